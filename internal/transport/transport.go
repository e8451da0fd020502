// Package transport fans simulated events out to network clients.
package transport

import (
	"context"

	"github.com/synheart/physiosim/internal/models"
)

// Broadcaster is a network sink for events.
type Broadcaster interface {
	// Start serves until ctx is cancelled.
	Start(ctx context.Context) error
	// BroadcastFromChannel forwards events until the channel closes.
	BroadcastFromChannel(ctx context.Context, events <-chan models.Event) error
	GetAddress() string
}

var (
	_ Broadcaster = (*WebSocketServer)(nil)
	_ Broadcaster = (*SSEServer)(nil)
	_ Broadcaster = (*UDPServer)(nil)
	_ Broadcaster = (*NATSPublisher)(nil)
)
