package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 15 * time.Second
	defaultReadLimit        = 1 << 20
	frameBuffer             = 64
)

// Dialer opens live comment sockets.
type Dialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
	ReadLimit        int64
}

var _ ports.SocketDialer = Dialer{}

func (d Dialer) Dial(ctx context.Context, address string) (ports.Socket, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, address, d.Header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", domain.ErrHandshakeRejected, resp.StatusCode)
		}
		if errors.Is(err, websocket.ErrBadHandshake) {
			return nil, fmt.Errorf("%w: %w", domain.ErrHandshakeRejected, err)
		}
		return nil, fmt.Errorf("dial socket: %w", err)
	}

	readLimit := d.ReadLimit
	if readLimit <= 0 {
		readLimit = defaultReadLimit
	}
	conn.SetReadLimit(readLimit)

	return newSocket(conn), nil
}

type frame struct {
	data []byte
}

// Socket buffers frames read by a background pump so Receive can honour a
// per-call timeout without tearing down the connection.
type Socket struct {
	conn   *websocket.Conn
	frames chan frame
	done   chan struct{}

	mu        sync.Mutex
	readErr   error
	closeOnce sync.Once
	closeErr  error
}

var _ ports.Socket = (*Socket)(nil)

func newSocket(conn *websocket.Conn) *Socket {
	s := &Socket{
		conn:   conn,
		frames: make(chan frame, frameBuffer),
		done:   make(chan struct{}),
	}
	go s.readPump()
	return s
}

func (s *Socket) readPump() {
	defer close(s.frames)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			// release the transport now; callers only see the handle go dead
			_ = s.Close()
			return
		}

		select {
		case s.frames <- frame{data: data}:
		case <-s.done:
			return
		}
	}
}

func (s *Socket) Receive(timeout time.Duration) (domain.LiveEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f, ok := <-s.frames:
		if !ok {
			return domain.LiveEvent{}, s.terminalError()
		}
		return decodeEvent(f.data)
	case <-timer.C:
		return domain.LiveEvent{}, domain.ErrReceiveTimeout
	}
}

func (s *Socket) terminalError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr == nil {
		return domain.ErrSocketClosed
	}
	return fmt.Errorf("%w: %w", domain.ErrSocketClosed, s.readErr)
}

func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

type wireEvent struct {
	Type    string `json:"type"`
	Payload struct {
		ID36   string `json:"_id36"`
		Author string `json:"author"`
		Body   string `json:"body"`
		LinkID string `json:"link_id"`
	} `json:"payload"`
}

func decodeEvent(data []byte) (domain.LiveEvent, error) {
	var event wireEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.LiveEvent{}, fmt.Errorf("%w: %w", domain.ErrUndecodablePayload, err)
	}
	if event.Type == "" {
		return domain.LiveEvent{}, fmt.Errorf("%w: missing type", domain.ErrUndecodablePayload)
	}

	return domain.LiveEvent{
		Type:      event.Type,
		CommentID: event.Payload.ID36,
		Author:    event.Payload.Author,
		Body:      event.Payload.Body,
		LinkID:    event.Payload.LinkID,
	}, nil
}
