package model

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteApproved InviteStatus = "approved"
	InviteDenied   InviteStatus = "denied"
)

// PendingInvite is an editor's signup request waiting for the youtuber to
// respond. Rows past ExpiresAt are treated as gone even before the sweeper
// physically removes them.
type PendingInvite struct {
	ID           string       `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"not null;index:idx_invite_email_youtuber" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"` // Already hashed at signup
	YoutuberID   string       `gorm:"not null;index:idx_invite_email_youtuber;index:idx_invite_youtuber_status" json:"youtuberId"`
	Status       InviteStatus `gorm:"not null;index:idx_invite_youtuber_status" json:"status"`
	RequestedAt  time.Time    `json:"requestedAt"`
	RespondedAt  *time.Time   `json:"respondedAt,omitempty"`
	ExpiresAt    time.Time    `gorm:"not null;index" json:"expiresAt"`
}

func (i *PendingInvite) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
