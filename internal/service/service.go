// Package service implements the platform's workflows: account signup and
// login, team membership, linking a youtuber's Google account and the video
// review lifecycle
package service

import (
	"context"
	"errors"
	"time"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/google"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"

	"golang.org/x/oauth2"
)

const DefaultFolderName = "VidCollab Uploads"

// Broker hands out Google clients acting as a youtuber
type Broker interface {
	Storage(ctx context.Context, u *model.User) (google.Storage, error)
	Publisher(ctx context.Context, u *model.User) (google.Publisher, error)
}

// OAuthProvider drives the consent screen and code exchange
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return utcNow()
	}

	return now()
}

// provisionFolder returns the upload folder for a youtuber. A cached ID is
// trusted as is, otherwise an existing folder with the well-known name is
// reused before a new one gets created.
func provisionFolder(ctx context.Context, s google.Storage, cached, name string) (string, error) {
	if cached != "" {
		return cached, nil
	}

	id, err := s.FindFolder(ctx, name)
	if err != nil {
		return "", err
	}

	if id != "" {
		return id, nil
	}

	return s.CreateFolder(ctx, name)
}

// brokerErr classifies errors coming out of the broker and Google adapters
func brokerErr(err error, msg string) error {
	switch {
	case errors.Is(err, google.ErrNotLinked):
		return apperr.Wrap(apperr.KindNotLinked, "Channel owner has not connected Google yet", err)
	case errors.Is(err, google.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, msg, err)
	default:
		return apperr.Wrap(apperr.KindUpstream, msg, err)
	}
}

func storeErr(err error, notFoundMsg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, notFoundMsg, err)
	}

	return err
}

func requireYoutuber(u *model.User, msg string) error {
	if u == nil || u.Role != model.RoleYoutuber {
		return apperr.New(apperr.KindForbidden, msg)
	}

	return nil
}
