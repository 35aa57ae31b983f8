package model

import "time"

type VideoStatus string

const (
	StatusActionPending VideoStatus = "Action Pending"
	StatusUnderReview   VideoStatus = "Under Review"
	StatusApproved      VideoStatus = "Approved"
	// StatusRejected is part of the stored enum but no transition sets it.
	// Rejections move a video to StatusUnderReview.
	StatusRejected VideoStatus = "Rejected"
)

type Video struct {
	ID         string      `gorm:"primaryKey" json:"id"`
	FileID     string      `gorm:"uniqueIndex;not null" json:"fileId"` // Drive file ID
	Name       string      `gorm:"not null" json:"name"`
	Link       string      `json:"link"`
	Status     VideoStatus `gorm:"not null;index" json:"status"`
	UploadedBy string      `gorm:"not null;index" json:"uploadedBy"` // Editor email or ID
	YoutuberID string      `gorm:"not null;index" json:"youtuberId"`
	YoutubeID  *string     `json:"youtubeId,omitempty"`

	// Action tokens only exist while the video is waiting on a decision
	ApprovalToken *string    `json:"-"`
	RejectToken   *string    `json:"-"`
	TokenExpires  *time.Time `json:"tokenExpires,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasTokens reports whether any action token or its expiry is still stored
func (v *Video) HasTokens() bool {
	return v.ApprovalToken != nil || v.RejectToken != nil || v.TokenExpires != nil
}
