package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

var ErrUnsupportedTarget = errors.New("unsupported update target")

var allTargets = []domain.UpdateTarget{
	domain.TargetUsers,
	domain.TargetThreads,
	domain.TargetDiscussions,
	domain.TargetCommands,
}

// BotState is the single owner of the in-memory collections shared by the
// sources, the connection manager and the dispatcher.
type BotState struct {
	Users       domain.Users
	Threads     domain.MonitoredThreads
	Discussions *domain.Discussions

	commands atomic.Pointer[domain.CommandTable]
}

func NewBotState() *BotState {
	state := &BotState{
		Users:       domain.Users{},
		Threads:     domain.MonitoredThreads{},
		Discussions: domain.NewDiscussions(),
	}
	state.SwapCommands(domain.CommandTable{})
	return state
}

func LoadState(ctx context.Context, store ports.StateStore) (*BotState, error) {
	state := NewBotState()
	if err := state.ReloadAll(ctx, store); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *BotState) Commands() domain.CommandTable {
	return *s.commands.Load()
}

func (s *BotState) SwapCommands(table domain.CommandTable) {
	normalized := table.Normalize()
	s.commands.Store(&normalized)
}

func (s *BotState) ReloadAll(ctx context.Context, store ports.StateStore) error {
	for _, target := range allTargets {
		if err := s.Reload(ctx, store, target); err != nil {
			return err
		}
	}
	return nil
}

func (s *BotState) Apply(ctx context.Context, store ports.StateStore, update domain.UpdateSignal) error {
	switch update.Mode {
	case domain.ModePersist:
		return s.Persist(ctx, store, update.Target)
	case domain.ModeReload:
		return s.Reload(ctx, store, update.Target)
	default:
		return nil
	}
}

func (s *BotState) Reload(ctx context.Context, store ports.StateStore, target domain.UpdateTarget) error {
	switch target {
	case domain.TargetUsers:
		users, err := store.LoadUsers(ctx)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		if users == nil {
			users = domain.Users{}
		}
		s.Users = users
	case domain.TargetThreads:
		threads, err := store.LoadThreads(ctx)
		if err != nil {
			return fmt.Errorf("load monitored threads: %w", err)
		}
		if threads == nil {
			threads = domain.MonitoredThreads{}
		}
		s.Threads = threads
	case domain.TargetDiscussions:
		discussions, err := store.LoadDiscussions(ctx)
		if err != nil {
			return fmt.Errorf("load monitored discussions: %w", err)
		}
		if discussions == nil {
			discussions = domain.NewDiscussions()
		}
		if err := discussions.Validate(); err != nil {
			return fmt.Errorf("load monitored discussions: %w", err)
		}
		s.Discussions = discussions
	case domain.TargetCommands:
		table, err := store.LoadCommands(ctx)
		if err != nil {
			return fmt.Errorf("load commands: %w", err)
		}
		s.SwapCommands(table)
	default:
		return fmt.Errorf("reload %s: %w", target, ErrUnsupportedTarget)
	}
	return nil
}

func (s *BotState) Persist(ctx context.Context, store ports.StateStore, target domain.UpdateTarget) error {
	switch target {
	case domain.TargetUsers:
		if err := store.SaveUsers(ctx, s.Users); err != nil {
			return fmt.Errorf("save users: %w", err)
		}
	case domain.TargetThreads:
		if err := store.SaveThreads(ctx, s.Threads); err != nil {
			return fmt.Errorf("save monitored threads: %w", err)
		}
	case domain.TargetDiscussions:
		if err := store.SaveDiscussions(ctx, s.Discussions); err != nil {
			return fmt.Errorf("save monitored discussions: %w", err)
		}
	default:
		return fmt.Errorf("persist %s: %w", target, ErrUnsupportedTarget)
	}
	return nil
}
