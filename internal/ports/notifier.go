package ports

import (
	"context"

	"github.com/bnema/streamwatch/internal/domain"
)

// Notifier announces a submission that just went live outside of reddit.
type Notifier interface {
	AnnounceLive(ctx context.Context, submission domain.Submission) error
}
