package security

import (
	"crypto/subtle"
	"errors"
	"time"

	"vidcollab/api/pkg/util"
)

// ActionTokenBytes is the entropy of a single action token, hex encoded to
// twice as many characters
const ActionTokenBytes = 32

// ActionTokens authorize the approve and reject transitions of one video
type ActionTokens struct {
	Approve   string
	Reject    string
	ExpiresAt time.Time
}

func NewActionTokens(now time.Time, ttl time.Duration) (*ActionTokens, error) {
	if ttl <= 0 {
		return nil, errors.New("action token ttl must be positive")
	}

	approve, err := util.GenerateToken(ActionTokenBytes)
	if err != nil {
		return nil, err
	}

	reject, err := util.GenerateToken(ActionTokenBytes)
	if err != nil {
		return nil, err
	}

	// 256 bits colliding means the random source is broken
	if approve == reject {
		return nil, errors.New("generated identical action tokens")
	}

	return &ActionTokens{
		Approve:   approve,
		Reject:    reject,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// TokenMatches compares a presented token with the stored one in constant
// time. A missing stored token never matches.
func TokenMatches(stored *string, given string) bool {
	if stored == nil || *stored == "" || given == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*stored), []byte(given)) == 1
}
