package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/ports"
)

const (
	DefaultLoopInterval = 2 * time.Second
	DefaultRestartDelay = 30 * time.Second
)

// Session is one fully built pipeline plus the cleanup for everything it
// opened (sockets, browser, clients).
type Session struct {
	Pipeline *Pipeline
	Close    func() error
}

// SessionFactory builds a fresh session against the shared state.
type SessionFactory func(ctx context.Context, state *BotState, logger zerolog.Logger) (*Session, error)

type Runner struct {
	store        ports.StateStore
	factory      SessionFactory
	interval     time.Duration
	restartDelay time.Duration
	sleep        func(context.Context, time.Duration) error
	logger       zerolog.Logger
}

type RunnerOptions struct {
	Interval     time.Duration
	RestartDelay time.Duration
	Sleep        func(context.Context, time.Duration) error
	Logger       zerolog.Logger
}

func NewRunner(store ports.StateStore, factory SessionFactory, opts RunnerOptions) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultLoopInterval
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = DefaultRestartDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Runner{
		store:        store,
		factory:      factory,
		interval:     opts.Interval,
		restartDelay: opts.RestartDelay,
		sleep:        opts.Sleep,
		logger:       opts.Logger.With().Str("component", "runner").Logger(),
	}
}

// Run loads the state and keeps a session running until ctx is cancelled.
// A state load failure here is the only error returned.
func (r *Runner) Run(ctx context.Context) error {
	state, err := LoadState(ctx, r.store)
	if err != nil {
		return fmt.Errorf("load bot state: %w", err)
	}

	for restart := 0; ; restart++ {
		logger := r.logger.With().Str("run", uuid.NewString()).Int("restart", restart).Logger()

		if restart > 0 {
			if err := state.ReloadAll(ctx, r.store); err != nil {
				logger.Error().Err(err).Msg("state_reload_failed")
			}
		}

		err := r.session(ctx, state, logger)
		if ctx.Err() != nil {
			logger.Info().Msg("runner_stopped")
			return nil
		}

		wait := r.restartDelay
		if rateLimit, ok := asRateLimit(err); ok {
			wait = rateLimit.Cooldown
			logger.Error().Err(err).Dur("cooldown", wait).Msg("rate_limited")
		} else {
			logger.Error().Err(err).Dur("cooldown", wait).Msg("session_failed")
		}

		if err := r.sleep(ctx, wait); err != nil {
			logger.Info().Msg("runner_stopped")
			return nil
		}
	}
}

func (r *Runner) session(ctx context.Context, state *BotState, logger zerolog.Logger) error {
	session, err := r.factory(ctx, state, logger)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("session_close_failed")
		}
	}()

	logger.Info().Msg("session_started")
	for {
		if err := session.Pipeline.Cycle(ctx); err != nil {
			return err
		}
		if err := r.sleep(ctx, r.interval); err != nil {
			return err
		}
	}
}
