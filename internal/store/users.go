package store

import (
	"context"

	"vidcollab/api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("email = ?", email).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// SaveGoogleLink stores the refresh token, folder and link time in one write
func (s *Store) SaveGoogleLink(ctx context.Context, userID string, link model.GoogleLink) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"google_refresh_token": link.RefreshToken,
			"google_folder_id":     link.FolderID,
			"google_linked_at":     link.LinkedAt,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) SetFolderID(ctx context.Context, userID, folderID string) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("google_folder_id", folderID)
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) EditorsOf(ctx context.Context, youtuberID string) ([]model.User, error) {
	var editors []model.User

	err := s.db.WithContext(ctx).
		Where("youtuber_id = ? AND role = ?", youtuberID, model.RoleEditor).
		Order("created_at desc").
		Find(&editors).
		Error
	if err != nil {
		return nil, err
	}

	return editors, nil
}

// EditorOf returns the editor only if it belongs to the given youtuber
func (s *Store) EditorOf(ctx context.Context, youtuberID, editorID string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ? AND youtuber_id = ? AND role = ?", editorID, youtuberID, model.RoleEditor).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *Store) SetEditorStatus(ctx context.Context, youtuberID, editorID string, status model.UserStatus) (*model.User, error) {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND youtuber_id = ? AND role = ?", editorID, youtuberID, model.RoleEditor).
		Update("status", status)
	if r.Error != nil {
		return nil, r.Error
	}

	if r.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.EditorOf(ctx, youtuberID, editorID)
}

func (s *Store) RemoveEditor(ctx context.Context, youtuberID, editorID string) error {
	r := s.db.WithContext(ctx).
		Where("id = ? AND youtuber_id = ? AND role = ?", editorID, youtuberID, model.RoleEditor).
		Delete(&model.User{})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
