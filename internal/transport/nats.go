package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/synheart/physiosim/internal/models"
)

// DefaultNATSBatch is the number of scalar samples per published frame.
const DefaultNATSBatch = 32

// NATSPublisher publishes samples as little-endian float32 frames on
// <subject>.<signal>. Scalar samples are batched per signal; column samples
// are published as one frame each. Text samples go to <subject>.<signal>.text.
type NATSPublisher struct {
	url     string
	subject string
	batch   int

	conn    *nats.Conn
	ready   chan struct{}
	publish func(subject string, data []byte) error

	mu      sync.Mutex
	buffers map[string][]float64
}

// NewNATSPublisher creates a publisher. A batch of zero uses DefaultNATSBatch.
func NewNATSPublisher(url, subject string, batch int) *NATSPublisher {
	if batch <= 0 {
		batch = DefaultNATSBatch
	}
	return &NATSPublisher{
		url:     url,
		subject: subject,
		batch:   batch,
		ready:   make(chan struct{}),
		buffers: make(map[string][]float64),
	}
}

func connectNATS(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("physiosim"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// Start connects and holds the connection until ctx is cancelled, then
// flushes partial batches and drains.
func (p *NATSPublisher) Start(ctx context.Context) error {
	conn, err := connectNATS(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}
	p.conn = conn
	p.publish = conn.Publish
	close(p.ready)
	slog.Info("nats publisher connected", "url", conn.ConnectedUrl(), "subject", p.subject)

	<-ctx.Done()
	if err := p.Flush(); err != nil {
		slog.Warn("failed to flush nats batches", "error", err)
	}
	return conn.Drain()
}

// BroadcastFromChannel waits for the connection and publishes events until
// the channel closes.
func (p *NATSPublisher) BroadcastFromChannel(ctx context.Context, events <-chan models.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ready:
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return p.Flush()
			}
			if err := p.Publish(event); err != nil {
				slog.Warn("nats publish failed", "event_id", event.EventID, "error", err)
			}
		}
	}
}

// Publish adds one event to its signal batch, publishing when it is full.
func (p *NATSPublisher) Publish(event models.Event) error {
	name := event.Signal.Name
	subject := p.subject + "." + name

	switch v := event.Signal.Value.(type) {
	case string:
		return p.publish(subject+".text", []byte(v))
	case []float64, []any:
		return p.publish(subject, EncodeFloat32LE(event.Signal.Floats()))
	}

	value, ok := event.Signal.Scalar()
	if !ok {
		return nil
	}

	p.mu.Lock()
	buf := append(p.buffers[name], value)
	if len(buf) < p.batch {
		p.buffers[name] = buf
		p.mu.Unlock()
		return nil
	}
	p.buffers[name] = buf[:0]
	frame := EncodeFloat32LE(buf)
	p.mu.Unlock()

	return p.publish(subject, frame)
}

// Flush publishes every partial batch.
func (p *NATSPublisher) Flush() error {
	if p.publish == nil {
		return nil
	}

	p.mu.Lock()
	frames := make(map[string][]byte, len(p.buffers))
	for name, buf := range p.buffers {
		if len(buf) > 0 {
			frames[name] = EncodeFloat32LE(buf)
			p.buffers[name] = buf[:0]
		}
	}
	p.mu.Unlock()

	for name, frame := range frames {
		if err := p.publish(p.subject+"."+name, frame); err != nil {
			return err
		}
	}
	return nil
}

// GetAddress returns the broker URL and subject prefix
func (p *NATSPublisher) GetAddress() string {
	return fmt.Sprintf("%s (%s.>)", p.url, p.subject)
}

// EncodeFloat32LE packs values as little-endian float32.
func EncodeFloat32LE(values []float64) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// DecodeFloat32LE unpacks a frame written by EncodeFloat32LE.
func DecodeFloat32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
