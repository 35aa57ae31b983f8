package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenAuth       TokenType = "auth"
	TokenOAuthState TokenType = "oauth_state"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	UserID string    `json:"user_id"`
	Role   string    `json:"role,omitempty"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens. The type claim keeps session
// tokens and OAuth state tokens from being swapped for one another.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}

	return &Signer{secret: []byte(secret), now: now}
}

func (s *Signer) Issue(typ TokenType, userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("no user ID provided")
	}

	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return t.SignedString(s.secret)
}

func (s *Signer) Verify(tokenStr string, typ TokenType) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, fmt.Errorf("%w, %w", ErrTokenInvalid, err)
	}

	if claims.Type != typ {
		return nil, fmt.Errorf("%w, unexpected token type %q", ErrTokenInvalid, claims.Type)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w, missing user ID", ErrTokenInvalid)
	}

	return &claims, nil
}
