package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"vidcollab/api/internal/model"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Scopes requested on the consent screen: files created by the app, YouTube
// channel access and uploads
var Scopes = []string{
	drive.DriveFileScope,
	youtube.YoutubeScope,
	youtube.YoutubeUploadScope,
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Broker builds Google API clients acting as a given youtuber. Nothing is
// cached between calls, every client starts with a fresh token exchange.
type Broker struct {
	oauth *oauth2.Config
	opts  []option.ClientOption
}

func NewBroker(c Config, opts ...option.ClientOption) *Broker {
	return &Broker{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     googleoauth.Endpoint,
			RedirectURL:  c.RedirectURL,
			Scopes:       Scopes,
		},
		opts: opts,
	}
}

// AuthCodeURL builds the consent URL. Consent is always forced so Google
// hands out a refresh token even on repeat links.
func (b *Broker) AuthCodeURL(state string) string {
	return b.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (b *Broker) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code, %w", err)
	}

	return tok, nil
}

func (b *Broker) Storage(ctx context.Context, u *model.User) (Storage, error) {
	client, err := b.httpClient(ctx, u)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, b.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client, %w", err)
	}

	return NewDrive(svc), nil
}

func (b *Broker) Publisher(ctx context.Context, u *model.User) (Publisher, error) {
	client, err := b.httpClient(ctx, u)
	if err != nil {
		return nil, err
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, b.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client, %w", err)
	}

	return NewYouTube(svc), nil
}

func (b *Broker) httpClient(ctx context.Context, u *model.User) (*http.Client, error) {
	if u == nil || !u.Linked() {
		return nil, ErrNotLinked
	}

	// The client outlives the request that created it, uploads keep going
	// after the caller hangs up
	ctx = context.WithoutCancel(ctx)

	src := b.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: u.Google.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode == "invalid_grant" {
			return nil, fmt.Errorf("%w, refresh token revoked, %w", ErrNotLinked, err)
		}

		return nil, fmt.Errorf("failed to refresh access token, %w", err)
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}
