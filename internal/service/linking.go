package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"

	"go.uber.org/zap"
)

// StateTTL bounds the time between starting the Google consent flow and
// coming back to the callback
const StateTTL = 10 * time.Minute

const (
	msgLinked          = "Google connected successfully"
	msgLinkFailed      = "Failed to connect Google"
	msgNoRefreshToken  = "No refresh token returned. Remove app access in Google Account and try again."
	msgLinkExpired     = "The Google connection request expired. Please try again."
	msgLinkBadRequest  = "Missing code/state"
	msgLinkInvalidUser = "Only YouTubers can connect Google"
)

// Linker binds a youtuber's Google account through the three-legged OAuth
// flow. The two legs are tied together by a signed state token, not a session.
type Linker struct {
	Store       *store.Store
	OAuth       OAuthProvider
	Broker      Broker
	Tokens      *security.Signer
	FolderName  string
	FrontendURL string
	Now         func() time.Time
}

// Initiate returns the Google consent URL for the caller
func (l *Linker) Initiate(_ context.Context, caller *model.User) (string, error) {
	if err := requireYoutuber(caller, msgLinkInvalidUser); err != nil {
		return "", err
	}

	state, err := l.Tokens.Issue(security.TokenOAuthState, caller.ID, string(caller.Role), StateTTL)
	if err != nil {
		return "", err
	}

	return l.OAuth.AuthCodeURL(state), nil
}

// Callback finishes the flow and always returns the frontend URL to redirect
// the browser to, carrying a readable status message
func (l *Linker) Callback(ctx context.Context, code, state string) string {
	if err := l.link(ctx, code, state); err != nil {
		zap.L().Error("Failed to link Google account", zap.Error(err))
		return l.redirect(callbackMessage(err), "error")
	}

	return l.redirect(msgLinked, "success")
}

func (l *Linker) link(ctx context.Context, code, state string) error {
	if code == "" || state == "" {
		return apperr.New(apperr.KindValidation, msgLinkBadRequest)
	}

	claims, err := l.Tokens.Verify(state, security.TokenOAuthState)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return apperr.Wrap(apperr.KindExpired, msgLinkExpired, err)
		}

		return apperr.Wrap(apperr.KindForbidden, msgLinkFailed, err)
	}

	user, err := l.Store.UserByID(ctx, claims.UserID)
	if err != nil {
		return storeErr(err, msgLinkFailed)
	}

	if err := requireYoutuber(user, msgLinkInvalidUser); err != nil {
		return err
	}

	tok, err := l.OAuth.Exchange(ctx, code)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, msgLinkFailed, err)
	}

	// Google only returns a refresh token on first consent. Without one we can
	// only carry on if an earlier link left one behind.
	refresh := tok.RefreshToken
	if refresh == "" {
		if !user.Linked() {
			return apperr.New(apperr.KindNotLinked, msgNoRefreshToken)
		}
		refresh = user.Google.RefreshToken
	}

	now := clock(l.Now)
	link := user.Google
	link.RefreshToken = refresh
	link.LinkedAt = &now

	linked := *user
	linked.Google = link

	storage, err := l.Broker.Storage(ctx, &linked)
	if err != nil {
		return brokerErr(err, msgLinkFailed)
	}

	folder, err := provisionFolder(ctx, storage, link.FolderID, l.folderName())
	if err != nil {
		return brokerErr(err, msgLinkFailed)
	}
	link.FolderID = folder

	return storeErr(l.Store.SaveGoogleLink(ctx, user.ID, link), msgLinkFailed)
}

func (l *Linker) folderName() string {
	if l.FolderName == "" {
		return DefaultFolderName
	}

	return l.FolderName
}

func (l *Linker) redirect(msg, typ string) string {
	q := url.Values{}
	q.Set("message", msg)
	q.Set("type", typ)

	return strings.TrimRight(l.FrontendURL, "/") + "/?" + q.Encode()
}

func callbackMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}

	return msgLinkFailed
}
