package service

import (
	"context"
	"time"

	"vidcollab/api/internal/store"

	"go.uber.org/zap"
)

// InviteCleanup periodically deletes invites whose expiry has passed, approved
// and denied ones included. Queries already ignore expired invites, this only
// keeps the table from growing forever.
func InviteCleanup(ctx context.Context, t time.Duration, s *store.Store, now func() time.Time) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Invite cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepInvites(ctx, s, clock(now))
			}
		}
	}()
}

func sweepInvites(ctx context.Context, s *store.Store, now time.Time) {
	n, err := s.DeleteExpiredInvites(ctx, now)
	if err != nil {
		zap.L().Error("Failed to cleanup expired invites", zap.Error(err))
		return
	}

	if n > 0 {
		zap.L().Debug("Cleaned up expired invites", zap.Int64("count", n))
	}
}
