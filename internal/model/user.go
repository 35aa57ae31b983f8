// Package model defines database models
package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleYoutuber Role = "youtuber"
	RoleEditor   Role = "editor"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

var (
	ErrEditorWithoutYoutuber = errors.New("editor must belong to a youtuber")
	ErrYoutuberWithOwner     = errors.New("youtuber can't belong to another youtuber")
)

type User struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"not null;index" json:"role"`
	YoutuberID   *string    `gorm:"index" json:"youtuberId"` // Only set for editors
	Status       UserStatus `gorm:"not null;default:active" json:"status"`
	Google       GoogleLink `gorm:"embedded;embeddedPrefix:google_" json:"google"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// GoogleLink is filled in once a youtuber finishes the Google consent screen.
// The refresh token never leaves the server.
type GoogleLink struct {
	RefreshToken string     `json:"-"`
	FolderID     string     `json:"driveFolderId,omitempty"`
	LinkedAt     *time.Time `json:"connectedAt,omitempty"`
}

// Linked reports whether the user holds a refresh token that can be exchanged
// for Google API access
func (u *User) Linked() bool {
	return u.Google.RefreshToken != ""
}

func (u *User) Active() bool {
	return u.Status == UserActive
}

// BeforeSave keeps the youtuber/editor ownership invariant intact no matter
// which code path writes the record
func (u *User) BeforeSave(*gorm.DB) error {
	switch u.Role {
	case RoleEditor:
		if u.YoutuberID == nil || *u.YoutuberID == "" {
			return ErrEditorWithoutYoutuber
		}
	case RoleYoutuber:
		if u.YoutuberID != nil {
			return ErrYoutuberWithOwner
		}
	}

	return nil
}
