package store

import (
	"context"
	"time"

	"vidcollab/api/internal/model"

	"gorm.io/gorm"
)

func (s *Store) CreateInvite(ctx context.Context, inv *model.PendingInvite) error {
	return translate(s.db.WithContext(ctx).Create(inv).Error)
}

// HasPendingInvite reports whether a live pending request for the
// (email, youtuber) pair exists
func (s *Store) HasPendingInvite(ctx context.Context, email, youtuberID string, now time.Time) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(model.PendingInvite{}).
		Where("email = ? AND youtuber_id = ? AND status = ? AND expires_at > ?", email, youtuberID, model.InvitePending, now).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// ActivePendingInvites lists pending invites that haven't expired yet, newest
// first. Expiry is checked here rather than trusting the sweeper to have run.
func (s *Store) ActivePendingInvites(ctx context.Context, youtuberID string, now time.Time) ([]model.PendingInvite, error) {
	var invites []model.PendingInvite

	err := s.db.WithContext(ctx).
		Where("youtuber_id = ? AND status = ? AND expires_at > ?", youtuberID, model.InvitePending, now).
		Order("requested_at desc").
		Find(&invites).
		Error
	if err != nil {
		return nil, err
	}

	return invites, nil
}

// PendingInvite returns a pending invite owned by the youtuber regardless of
// expiry so the caller can tell "expired" apart from "missing"
func (s *Store) PendingInvite(ctx context.Context, youtuberID, inviteID string) (*model.PendingInvite, error) {
	var inv model.PendingInvite

	err := s.db.WithContext(ctx).
		Where("id = ? AND youtuber_id = ? AND status = ?", inviteID, youtuberID, model.InvitePending).
		First(&inv).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &inv, nil
}

// ApproveInvite creates the editor account and flips the invite to approved
// in one transaction. The invite update is conditional on it still being
// pending.
func (s *Store) ApproveInvite(ctx context.Context, inviteID string, editor *model.User, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.PendingInvite{}).
			Where("id = ? AND status = ?", inviteID, model.InvitePending).
			Updates(map[string]any{
				"status":       model.InviteApproved,
				"responded_at": now,
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrStale
		}

		return translate(tx.Create(editor).Error)
	})
}

func (s *Store) DenyInvite(ctx context.Context, youtuberID, inviteID string, now time.Time) error {
	r := s.db.WithContext(ctx).
		Model(&model.PendingInvite{}).
		Where("id = ? AND youtuber_id = ? AND status = ?", inviteID, youtuberID, model.InvitePending).
		Updates(map[string]any{
			"status":       model.InviteDenied,
			"responded_at": now,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrStale
	}

	return nil
}

// DeleteExpiredInvites physically removes every invite past its expiry, no
// matter the status
func (s *Store) DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.PendingInvite{})

	return r.RowsAffected, r.Error
}
