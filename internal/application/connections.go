package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	DefaultReceiveTimeout = 250 * time.Millisecond
	maxFramesPerDrain     = 256
)

type connection struct {
	state  domain.ConnectionState
	socket ports.Socket
}

// ConnectionManager owns one push connection per monitored discussion and the
// retry ladder that gets it established.
type ConnectionManager struct {
	state          *BotState
	resolver       ports.AddressResolver
	dialer         ports.SocketDialer
	browser        ports.RecoveryBrowser
	lock           *domain.RecoveryLock
	clock          ports.Clock
	self           string
	receiveTimeout time.Duration
	logger         zerolog.Logger

	conns map[string]*connection
}

type ConnectionManagerOptions struct {
	Resolver       ports.AddressResolver
	Dialer         ports.SocketDialer
	Browser        ports.RecoveryBrowser
	Lock           *domain.RecoveryLock
	Clock          ports.Clock
	Self           string
	ReceiveTimeout time.Duration
	Logger         zerolog.Logger
}

func NewConnectionManager(state *BotState, opts ConnectionManagerOptions) *ConnectionManager {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Lock == nil {
		opts.Lock = &domain.RecoveryLock{}
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = DefaultReceiveTimeout
	}

	return &ConnectionManager{
		state:          state,
		resolver:       opts.Resolver,
		dialer:         opts.Dialer,
		browser:        opts.Browser,
		lock:           opts.Lock,
		clock:          opts.Clock,
		self:           opts.Self,
		receiveTimeout: opts.ReceiveTimeout,
		logger:         opts.Logger.With().Str("source", domain.SourceSocket.String()).Logger(),
		conns:          map[string]*connection{},
	}
}

// Tick runs prune, advance and drain in that order.
func (m *ConnectionManager) Tick(ctx context.Context) (Batch, error) {
	batch := Batch{Source: domain.SourceSocket}

	m.Prune()
	updates, err := m.Advance(ctx)
	batch.Updates = updates
	if err != nil {
		return batch, err
	}
	batch.Messages = m.Drain()
	return batch, nil
}

// Prune closes and forgets connections whose discussion left the monitored set.
func (m *ConnectionManager) Prune() {
	for id, conn := range m.conns {
		if m.state.Discussions.IsMonitored(id) {
			continue
		}
		m.closeSocket(id, conn)
		delete(m.conns, id)
		m.lock.Release(id)
		m.logger.Info().Str("discussion", id).Msg("connection_pruned")
	}

	if holder := m.lock.Holder(); holder != "" && !m.state.Discussions.IsMonitored(holder) {
		m.lock.Release(holder)
	}
}

// Advance makes at most one refresh-then-connect attempt per due discussion.
// Only rate limiting is returned as an error.
func (m *ConnectionManager) Advance(ctx context.Context) ([]domain.UpdateSignal, error) {
	var updates []domain.UpdateSignal

	for _, id := range m.state.Discussions.MonitoredIDs() {
		conn := m.ensure(id)
		if conn.socket != nil {
			continue
		}
		if !m.lock.Available(id) {
			continue
		}
		now := m.clock.Now()
		if !conn.state.Due(now) {
			continue
		}

		address, _ := m.state.Discussions.Address(id)
		if address == "" || conn.state.NeedsRefresh {
			update, ok, err := m.refresh(ctx, id, conn, address, now)
			if !update.IsNone() {
				updates = append(updates, update)
			}
			if err != nil {
				return updates, err
			}
			if !ok {
				continue
			}
			address, _ = m.state.Discussions.Address(id)
		}

		m.connect(ctx, id, conn, address, now)
	}

	return updates, nil
}

func (m *ConnectionManager) ensure(id string) *connection {
	conn, ok := m.conns[id]
	if !ok {
		conn = &connection{}
		m.conns[id] = conn
	}
	return conn
}

func (m *ConnectionManager) refresh(ctx context.Context, id string, conn *connection, previous string, now time.Time) (domain.UpdateSignal, bool, error) {
	address, err := m.resolver.SocketAddress(ctx, id)
	if err == nil && address == "" {
		err = domain.ErrAddressUnavailable
	}
	if err == nil && conn.state.NeedsRefresh && address == previous {
		err = fmt.Errorf("%w: upstream returned the rejected address again", domain.ErrAddressUnavailable)
	}
	if err != nil {
		if isRateLimited(err) {
			return domain.NoUpdate, false, err
		}
		return m.recordFailure(ctx, id, conn, now, err), false, nil
	}

	m.state.Discussions.SetAddress(id, address)
	conn.state.Reset(now)
	m.lock.Release(id)
	m.logger.Info().Str("discussion", id).Str("address", address).Msg("address_refreshed")
	return domain.Persist(domain.TargetDiscussions), true, nil
}

func (m *ConnectionManager) recordFailure(ctx context.Context, id string, conn *connection, now time.Time, cause error) domain.UpdateSignal {
	escalation := conn.state.RecordRefreshFailure(now)
	m.logger.Warn().
		Err(cause).
		Str("discussion", id).
		Int("retry_count", conn.state.RetryCount).
		Dur("timeout", conn.state.Timeout).
		Str("escalation", escalation.String()).
		Msg("address_refresh_failed")

	switch escalation {
	case domain.EscalateNavigate:
		if m.browser == nil || !m.lock.TryAcquire(id) {
			return domain.NoUpdate
		}
		if err := m.browser.Navigate(ctx, id); err != nil {
			m.lock.Release(id)
			m.logger.Warn().Err(err).Str("discussion", id).Msg("recovery_navigate_failed")
			return domain.NoUpdate
		}
		m.logger.Info().Str("discussion", id).Msg("recovery_navigated")
	case domain.EscalateRefresh:
		if m.browser == nil || !m.lock.HeldBy(id) {
			return domain.NoUpdate
		}
		if err := m.browser.Refresh(ctx); err != nil {
			m.logger.Warn().Err(err).Str("discussion", id).Msg("recovery_refresh_failed")
			return domain.NoUpdate
		}
		m.logger.Info().Str("discussion", id).Msg("recovery_refreshed")
	case domain.EscalateAbandon:
		return m.abandon(id)
	}
	return domain.NoUpdate
}

func (m *ConnectionManager) abandon(id string) domain.UpdateSignal {
	m.state.Discussions.Unmonitor(id)
	m.lock.Release(id)
	if conn, ok := m.conns[id]; ok {
		m.closeSocket(id, conn)
		delete(m.conns, id)
	}
	m.logger.Warn().Str("discussion", id).Int("retry_count", domain.AbandonAtRetry).Msg("discussion_abandoned")
	return domain.Persist(domain.TargetDiscussions)
}

func (m *ConnectionManager) connect(ctx context.Context, id string, conn *connection, address string, now time.Time) {
	socket, err := m.dialer.Dial(ctx, address)
	if err != nil {
		conn.socket = nil
		conn.state.RecordRejection(now)
		event := m.logger.Warn().Err(err).Str("discussion", id).Dur("timeout", conn.state.Timeout)
		if errors.Is(err, domain.ErrHandshakeRejected) {
			event.Msg("socket_rejected")
		} else {
			event.Msg("socket_dial_failed")
		}
		return
	}

	conn.socket = socket
	conn.state.Reset(now)
	m.lock.Release(id)
	m.logger.Info().Str("discussion", id).Str("address", address).Msg("socket_connected")
}

// Drain reads every open socket until it runs dry and returns the live comments.
func (m *ConnectionManager) Drain() []domain.NormalizedMessage {
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var messages []domain.NormalizedMessage
	for _, id := range ids {
		conn := m.conns[id]
		if conn.socket == nil {
			continue
		}
		messages = append(messages, m.drain(id, conn)...)
	}
	return messages
}

func (m *ConnectionManager) drain(id string, conn *connection) []domain.NormalizedMessage {
	var messages []domain.NormalizedMessage

	for frames := 0; frames < maxFramesPerDrain; frames++ {
		event, err := conn.socket.Receive(m.receiveTimeout)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrReceiveTimeout):
			return messages
		case errors.Is(err, domain.ErrSocketClosed):
			// already closed on the transport side
			conn.socket = nil
			conn.state.LastAttempt = m.clock.Now()
			m.logger.Info().Str("discussion", id).Msg("socket_closed_by_peer")
			return messages
		default:
			m.closeSocket(id, conn)
			conn.state.LastAttempt = m.clock.Now()
			m.logger.Warn().Err(err).Str("discussion", id).Msg("socket_fault")
			return messages
		}

		if !event.IsComment() {
			continue
		}
		if strings.EqualFold(event.Author, m.self) {
			continue
		}
		threadID := event.ThreadID()
		if threadID == "" {
			threadID = id
		}
		messages = append(messages, domain.NormalizedMessage{
			Handle:   domain.Handle{Fullname: "t1_" + event.CommentID},
			Body:     event.Body,
			Author:   event.Author,
			Context:  domain.ContextLive,
			ThreadID: threadID,
		})
	}

	m.logger.Debug().Str("discussion", id).Int("frames", maxFramesPerDrain).Msg("drain_capped")
	return messages
}

func (m *ConnectionManager) closeSocket(id string, conn *connection) {
	if conn.socket == nil {
		return
	}
	if err := conn.socket.Close(); err != nil {
		m.logger.Debug().Err(err).Str("discussion", id).Msg("socket_close_failed")
	}
	conn.socket = nil
}

// Close releases every open socket and the recovery slot.
func (m *ConnectionManager) Close() error {
	var errs error
	for id, conn := range m.conns {
		if conn.socket != nil {
			if err := conn.socket.Close(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("close socket for %s: %w", id, err))
			}
			conn.socket = nil
		}
		m.lock.Release(id)
		delete(m.conns, id)
	}
	return errs
}
