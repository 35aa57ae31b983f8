package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/util"
)

const msgOnlyYoutubers = "Only YouTubers can manage a team"

// Team is the youtuber side of editor membership
type Team struct {
	Store       *store.Store
	Notifier    Notifier
	FrontendURL string
	Now         func() time.Time
}

// HistoryStats counts an editor's uploads by status
type HistoryStats struct {
	Total         int `json:"total"`
	ActionPending int `json:"actionPending"`
	UnderReview   int `json:"underReview"`
	Approved      int `json:"approved"`
	Rejected      int `json:"rejected"`
}

type History struct {
	Editor *model.User   `json:"editor"`
	Videos []model.Video `json:"videos"`
	Stats  HistoryStats  `json:"stats"`
}

// Invite emails a signup link for joining the youtuber's team. Nothing is
// stored until the editor actually signs up.
func (t *Team) Invite(ctx context.Context, youtuber *model.User, email string) error {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return err
	}

	taken, err := t.Store.EmailTaken(ctx, email)
	if err != nil {
		return err
	}

	if taken {
		return apperr.New(apperr.KindConflict, "A user with this email already exists")
	}

	q := url.Values{}
	q.Set("page", "signup")
	q.Set("role", string(model.RoleEditor))
	q.Set("youtuberId", youtuber.ID)
	link := strings.TrimRight(t.FrontendURL, "/") + "/?" + q.Encode()

	notify(ctx, t.Notifier, email,
		"You have been invited to edit videos",
		fmt.Sprintf("%s invited you to join their team as an editor.\n\nSign up here: %s", youtuber.Email, link),
	)

	return nil
}

func (t *Team) Editors(ctx context.Context, youtuber *model.User) ([]model.User, error) {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return nil, err
	}

	return t.Store.EditorsOf(ctx, youtuber.ID)
}

// PendingInvites lists signup requests that are still waiting and not expired
func (t *Team) PendingInvites(ctx context.Context, youtuber *model.User) ([]model.PendingInvite, error) {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return nil, err
	}

	return t.Store.ActivePendingInvites(ctx, youtuber.ID, clock(t.Now))
}

// ApproveInvite turns a pending request into an active editor account
func (t *Team) ApproveInvite(ctx context.Context, youtuber *model.User, inviteID string) (*model.User, error) {
	inv, err := t.liveInvite(ctx, youtuber, inviteID)
	if err != nil {
		return nil, err
	}

	taken, err := t.Store.EmailTaken(ctx, inv.Email)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, apperr.New(apperr.KindConflict, "A user with this email already exists")
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	owner := youtuber.ID
	editor := &model.User{
		ID:           id,
		Email:        inv.Email,
		PasswordHash: inv.PasswordHash,
		Role:         model.RoleEditor,
		YoutuberID:   &owner,
		Status:       model.UserActive,
	}

	if err := t.Store.ApproveInvite(ctx, inv.ID, editor, clock(t.Now)); err != nil {
		switch {
		case errors.Is(err, store.ErrStale):
			return nil, apperr.Wrap(apperr.KindConflict, "Invite was already handled", err)
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.Wrap(apperr.KindConflict, "A user with this email already exists", err)
		}
		return nil, err
	}

	notify(ctx, t.Notifier, inv.Email,
		"Your editor request was approved",
		fmt.Sprintf("%s approved your request. You can now log in as an editor.", youtuber.Email),
	)

	return editor, nil
}

// DenyInvite rejects a pending request. The reason, if any, is passed on to
// the requester.
func (t *Team) DenyInvite(ctx context.Context, youtuber *model.User, inviteID, reason string) error {
	inv, err := t.liveInvite(ctx, youtuber, inviteID)
	if err != nil {
		return err
	}

	if err := t.Store.DenyInvite(ctx, youtuber.ID, inv.ID, clock(t.Now)); err != nil {
		if errors.Is(err, store.ErrStale) {
			return apperr.Wrap(apperr.KindConflict, "Invite was already handled", err)
		}
		return err
	}

	body := fmt.Sprintf("%s declined your request to join their team.", youtuber.Email)
	if reason = strings.TrimSpace(reason); reason != "" {
		body += "\n\nReason: " + reason
	}
	notify(ctx, t.Notifier, inv.Email, "Your editor request was declined", body)

	return nil
}

func (t *Team) SetEditorStatus(ctx context.Context, youtuber *model.User, editorID string, status model.UserStatus) (*model.User, error) {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return nil, err
	}

	if status != model.UserActive && status != model.UserInactive {
		return nil, apperr.New(apperr.KindValidation, "Invalid status")
	}

	editor, err := t.Store.SetEditorStatus(ctx, youtuber.ID, editorID, status)
	if err != nil {
		return nil, storeErr(err, "Editor not found")
	}

	return editor, nil
}

func (t *Team) RemoveEditor(ctx context.Context, youtuber *model.User, editorID string) error {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return err
	}

	return storeErr(t.Store.RemoveEditor(ctx, youtuber.ID, editorID), "Editor not found")
}

// EditorHistory lists what an editor uploaded for this youtuber, newest first.
// Older records identify the uploader by ID, newer ones by email.
func (t *Team) EditorHistory(ctx context.Context, youtuber *model.User, editorID string) (*History, error) {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return nil, err
	}

	editor, err := t.Store.EditorOf(ctx, youtuber.ID, editorID)
	if err != nil {
		return nil, storeErr(err, "Editor not found")
	}

	videos, err := t.Store.VideosUploadedBy(ctx, youtuber.ID, editor.Email, editor.ID)
	if err != nil {
		return nil, err
	}

	h := &History{Editor: editor, Videos: videos}
	for _, v := range videos {
		h.Stats.Total++
		switch v.Status {
		case model.StatusActionPending:
			h.Stats.ActionPending++
		case model.StatusUnderReview:
			h.Stats.UnderReview++
		case model.StatusApproved:
			h.Stats.Approved++
		case model.StatusRejected:
			h.Stats.Rejected++
		}
	}

	return h, nil
}

// liveInvite loads a pending invite and fails with Expired once its deadline
// passed, even if the sweeper hasn't removed it yet
func (t *Team) liveInvite(ctx context.Context, youtuber *model.User, inviteID string) (*model.PendingInvite, error) {
	if err := requireYoutuber(youtuber, msgOnlyYoutubers); err != nil {
		return nil, err
	}

	inv, err := t.Store.PendingInvite(ctx, youtuber.ID, inviteID)
	if err != nil {
		return nil, storeErr(err, "Invite not found")
	}

	if inv.Expired(clock(t.Now)) {
		return nil, apperr.New(apperr.KindExpired, "Invite has expired")
	}

	return inv, nil
}
