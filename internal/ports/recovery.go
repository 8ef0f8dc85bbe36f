package ports

import "context"

// RecoveryBrowser drives the heavyweight browser used to coax a fresh push
// address out of upstream.
type RecoveryBrowser interface {
	Navigate(ctx context.Context, discussionID string) error
	Refresh(ctx context.Context) error
	Close() error
}
