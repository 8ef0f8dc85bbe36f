package ports

import (
	"context"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
)

// Socket is one open push connection. Receive returns domain.ErrReceiveTimeout
// when nothing arrived in time, domain.ErrSocketClosed once the peer is gone and
// domain.ErrUndecodablePayload for frames it cannot read.
type Socket interface {
	Receive(timeout time.Duration) (domain.LiveEvent, error)
	Close() error
}

type SocketDialer interface {
	// Dial fails with domain.ErrHandshakeRejected when the address is refused.
	Dial(ctx context.Context, address string) (Socket, error)
}
