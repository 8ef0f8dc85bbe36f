package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

// Pipeline runs one cycle at a time: poll, advance connections, dispatch.
type Pipeline struct {
	state       *BotState
	store       ports.StateStore
	live        Source
	inbox       *InboxFeed
	threads     *ThreadPoller
	connections *ConnectionManager
	dispatcher  *Dispatcher
	logger      zerolog.Logger
}

type PipelineOptions struct {
	Live        Source
	Inbox       *InboxFeed
	Threads     *ThreadPoller
	Connections *ConnectionManager
	Dispatcher  *Dispatcher
	Logger      zerolog.Logger
}

func NewPipeline(state *BotState, store ports.StateStore, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		state:       state,
		store:       store,
		live:        opts.Live,
		inbox:       opts.Inbox,
		threads:     opts.Threads,
		connections: opts.Connections,
		dispatcher:  opts.Dispatcher,
		logger:      opts.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// Cycle returns an error only for rate limiting or a cancelled context.
func (p *Pipeline) Cycle(ctx context.Context) error {
	logger := p.logger.With().Str("cycle", uuid.NewString()).Logger()

	if _, err := p.poll(ctx, logger, p.live); err != nil {
		return err
	}
	inboxBatch, err := p.poll(ctx, logger, p.inbox)
	if err != nil {
		return err
	}

	threadBatch, err := p.poll(ctx, logger, p.threads)
	if err != nil {
		return err
	}

	socketBatch, err := p.connections.Tick(ctx)
	p.applyAll(ctx, logger, socketBatch.Updates)
	if err != nil {
		return err
	}

	logger.Debug().
		Int("inbox", len(inboxBatch.Messages)).
		Int("thread", len(threadBatch.Messages)).
		Int("socket", len(socketBatch.Messages)).
		Msg("cycle_polled")

	if err := p.dispatchInbox(ctx, logger, inboxBatch.Messages); err != nil {
		return err
	}
	if err := p.dispatchThreads(ctx, logger, threadBatch.Messages); err != nil {
		return err
	}
	for _, msg := range socketBatch.Messages {
		if err := p.dispatch(ctx, logger, msg); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// poll keeps a failing source from aborting the cycle. Only rate limiting and
// cancellation are returned.
func (p *Pipeline) poll(ctx context.Context, logger zerolog.Logger, source Source) (Batch, error) {
	batch, err := source.Poll(ctx)
	p.applyAll(ctx, logger, batch.Updates)
	if err == nil {
		return batch, nil
	}
	if isRateLimited(err) {
		return Batch{}, err
	}
	if ctx.Err() != nil {
		return Batch{}, ctx.Err()
	}

	logger.Warn().Err(err).Str("source", source.Kind().String()).Msg("source_reset")
	source.Reset()
	return Batch{Source: source.Kind()}, nil
}

func (p *Pipeline) dispatchInbox(ctx context.Context, logger zerolog.Logger, messages []domain.NormalizedMessage) error {
	handled := make([]domain.Handle, 0, len(messages))
	defer func() {
		if err := p.inbox.Ack(context.WithoutCancel(ctx), handled); err != nil {
			logger.Warn().Err(err).Int("messages", len(handled)).Msg("inbox_ack_failed")
		}
	}()

	for _, msg := range messages {
		if err := p.dispatch(ctx, logger, msg); err != nil {
			return err
		}
		handled = append(handled, msg.Handle)
	}
	return nil
}

func (p *Pipeline) dispatchThreads(ctx context.Context, logger zerolog.Logger, messages []domain.NormalizedMessage) error {
	for _, msg := range messages {
		if !p.state.Threads.Contains(msg.ThreadID) {
			logger.Debug().Str("thread", msg.ThreadID).Msg("thread_message_dropped")
			continue
		}
		if err := p.dispatch(ctx, logger, msg); err != nil {
			return err
		}
	}
	p.apply(ctx, logger, p.threads.Commit())
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, logger zerolog.Logger, msg domain.NormalizedMessage) error {
	update, err := p.dispatcher.Dispatch(ctx, msg)
	p.apply(ctx, logger, update)
	return err
}

func (p *Pipeline) applyAll(ctx context.Context, logger zerolog.Logger, updates []domain.UpdateSignal) {
	for _, update := range updates {
		p.apply(ctx, logger, update)
	}
}

// apply reconciles one update signal. Store failures after startup are logged and skipped.
func (p *Pipeline) apply(ctx context.Context, logger zerolog.Logger, update domain.UpdateSignal) {
	if update.IsNone() {
		return
	}
	if err := p.state.Apply(ctx, p.store, update); err != nil {
		logger.Error().Err(err).Str("target", update.Target.String()).Str("mode", update.Mode.String()).Msg("state_update_failed")
		return
	}
	logger.Debug().Str("target", update.Target.String()).Str("mode", update.Mode.String()).Msg("state_updated")
}
