// Package internal holds the dependency bag shared by every HTTP handler
package internal

import (
	"vidcollab/api/internal/service"
	"vidcollab/api/internal/store"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Store    *store.Store
	Accounts *service.Accounts
	Linker   *service.Linker
	Review   *service.Review
	Team     *service.Team

	// Upload limits, MaxUploadSize is in bytes
	MaxUploadSize int64
	AllowedTypes  []string
}
