package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/model"
	"vidcollab/api/internal/store"
	"vidcollab/api/pkg/security"
	"vidcollab/api/pkg/util"
	"vidcollab/api/pkg/validators"
)

const (
	DefaultSessionTTL = time.Hour
	DefaultInviteTTL  = 7 * 24 * time.Hour

	msgInvalidCredentials = "Invalid credentials"
)

type Accounts struct {
	Store      *store.Store
	Hasher     *security.ArgonHash
	Tokens     *security.Signer
	Notifier   Notifier
	SessionTTL time.Duration
	InviteTTL  time.Duration
	Now        func() time.Time
}

type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	YoutuberID string `json:"youtuberId"`
}

// SignupResult holds either a session for a new youtuber or the pending
// request an editor has to wait on
type SignupResult struct {
	User   *model.User          `json:"user,omitempty"`
	Token  string               `json:"token,omitempty"`
	Invite *model.PendingInvite `json:"invite,omitempty"`
}

// Signup creates a youtuber account straight away. Editors only get a
// pending request which their youtuber has to approve.
func (a *Accounts) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	email := validators.NormalizeEmail(req.Email)
	if err := validators.EmailValidator(email); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Invalid email address", err)
	}

	if err := validators.PasswordValidator(req.Password); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	role, err := validators.RoleValidator(req.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Invalid role", err)
	}

	taken, err := a.Store.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, apperr.New(apperr.KindConflict, "User already exists")
	}

	hash, err := a.Hasher.GenerateFromPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if role == model.RoleEditor {
		inv, err := a.requestMembership(ctx, email, hash, req.YoutuberID)
		if err != nil {
			return nil, err
		}
		return &SignupResult{Invite: inv}, nil
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleYoutuber,
		Status:       model.UserActive,
	}

	if err := a.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, "User already exists", err)
		}
		return nil, err
	}

	token, err := a.session(user)
	if err != nil {
		return nil, err
	}

	return &SignupResult{User: user, Token: token}, nil
}

func (a *Accounts) requestMembership(ctx context.Context, email, hash, youtuberID string) (*model.PendingInvite, error) {
	if youtuberID == "" {
		return nil, apperr.New(apperr.KindValidation, "YouTuber ID is required for editors")
	}

	owner, err := a.Store.UserByID(ctx, youtuberID)
	if err != nil || owner.Role != model.RoleYoutuber {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.New(apperr.KindValidation, "Invalid YouTuber ID")
	}

	now := clock(a.Now)

	dup, err := a.Store.HasPendingInvite(ctx, email, owner.ID, now)
	if err != nil {
		return nil, err
	}

	if dup {
		return nil, apperr.New(apperr.KindConflict, "A request for this YouTuber is already pending")
	}

	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	ttl := a.InviteTTL
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	inv := &model.PendingInvite{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		YoutuberID:   owner.ID,
		Status:       model.InvitePending,
		RequestedAt:  now,
		ExpiresAt:    now.Add(ttl),
	}

	if err := a.Store.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}

	notify(ctx, a.Notifier, owner.Email,
		"New editor request",
		fmt.Sprintf("%s wants to join your team as an editor. The request expires on %s.", email, inv.ExpiresAt.Format(time.RFC1123)),
	)

	return inv, nil
}

// Login checks the password before anything else so the response doesn't
// reveal which emails are registered
func (a *Accounts) Login(ctx context.Context, email, password, role string) (*model.User, string, error) {
	user, err := a.Store.UserByEmail(ctx, validators.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperr.New(apperr.KindUnauthorized, msgInvalidCredentials)
		}
		return nil, "", err
	}

	ok, err := a.Hasher.VerifyPasswd(password, user.PasswordHash)
	if err != nil && !errors.Is(err, security.ErrInvalidHash) {
		return nil, "", err
	}

	if !ok {
		return nil, "", apperr.New(apperr.KindUnauthorized, msgInvalidCredentials)
	}

	if !user.Active() {
		return nil, "", apperr.New(apperr.KindForbidden, "Your account has been deactivated. Contact your YouTuber.")
	}

	if role != "" && model.Role(role) != user.Role {
		return nil, "", apperr.New(apperr.KindValidation, "Role mismatch for this account")
	}

	token, err := a.session(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate resolves a session token to an active user
func (a *Accounts) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := a.Tokens.Verify(token, security.TokenAuth)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid or expired token", err)
	}

	user, err := a.Store.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, "User no longer exists", err)
		}
		return nil, err
	}

	if !user.Active() {
		return nil, apperr.New(apperr.KindForbidden, "Your account has been deactivated")
	}

	return user, nil
}

func (a *Accounts) session(u *model.User) (string, error) {
	ttl := a.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return a.Tokens.Issue(security.TokenAuth, u.ID, string(u.Role), ttl)
}
