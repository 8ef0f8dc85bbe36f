package application

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
)

func isRateLimited(err error) bool {
	_, ok := asRateLimit(err)
	return ok
}

func asRateLimit(err error) (*domain.RateLimitError, bool) {
	var rateLimit *domain.RateLimitError
	if errors.As(err, &rateLimit) {
		return rateLimit, true
	}
	return nil, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
