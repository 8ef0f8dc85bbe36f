package ports

import (
	"context"

	"github.com/bnema/streamwatch/internal/domain"
)

type StateStore interface {
	LoadUsers(ctx context.Context) (domain.Users, error)
	SaveUsers(ctx context.Context, users domain.Users) error
	LoadThreads(ctx context.Context) (domain.MonitoredThreads, error)
	SaveThreads(ctx context.Context, threads domain.MonitoredThreads) error
	LoadDiscussions(ctx context.Context) (*domain.Discussions, error)
	SaveDiscussions(ctx context.Context, discussions *domain.Discussions) error
	LoadCommands(ctx context.Context) (domain.CommandTable, error)
}
