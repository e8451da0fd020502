package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

// UDP clients register by sending one of these datagrams. Any other
// datagram also registers the sender.
const (
	udpSubscribe   = "subscribe"
	udpUnsubscribe = "unsubscribe"
)

// UDPServer broadcasts events via UDP
type UDPServer struct {
	host    string
	port    int
	encoder encoding.Encoder
	metrics *metrics.Metrics
	conn    *net.UDPConn
	clients map[string]*net.UDPAddr
	mu      sync.RWMutex
}

// NewUDPServer creates a new UDP server
func NewUDPServer(host string, port int, encoder encoding.Encoder, m *metrics.Metrics) *UDPServer {
	return &UDPServer{
		host:    host,
		port:    port,
		encoder: encoder,
		metrics: m,
		clients: make(map[string]*net.UDPAddr),
	}
}

// Start starts the UDP server
func (s *UDPServer) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve address: %w", err)
	}

	s.conn, err = net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	slog.Info("udp server listening", "addr", s.GetAddress())

	go s.readLoop(ctx)

	<-ctx.Done()
	return s.Shutdown()
}

// readLoop listens for client registration packets
func (s *UDPServer) readLoop(ctx context.Context) {
	buf := make([]byte, 1024)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			n, addr, err := s.conn.ReadFromUDP(buf)
			if err != nil {
				continue
			}

			msg := string(buf[:n])
			s.handleMessage(msg, addr)
		}
	}
}

func (s *UDPServer) handleMessage(msg string, addr *net.UDPAddr) {
	key := addr.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg {
	case udpSubscribe:
		s.clients[key] = addr
		slog.Info("udp client subscribed", "remote", key, "clients", len(s.clients))
	case udpUnsubscribe:
		delete(s.clients, key)
		slog.Info("udp client unsubscribed", "remote", key, "clients", len(s.clients))
	default:
		if _, exists := s.clients[key]; !exists {
			s.clients[key] = addr
			slog.Info("udp client registered", "remote", key, "clients", len(s.clients))
		}
	}
	s.metrics.SetClients("udp", len(s.clients))
}

// Broadcast sends an event to all registered clients
func (s *UDPServer) Broadcast(event models.Event) error {
	if s.GetClientCount() == 0 {
		return nil
	}

	data, err := s.encoder.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, addr := range s.clients {
		if _, err := s.conn.WriteToUDP(data, addr); err != nil {
			slog.Debug("failed to send to udp client", "remote", key, "error", err)
		}
	}
	return nil
}

// BroadcastFromChannel reads events and broadcasts them
func (s *UDPServer) BroadcastFromChannel(ctx context.Context, events <-chan models.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Broadcast(event); err != nil {
				slog.Warn("udp broadcast failed", "event_id", event.EventID, "error", err)
			}
		}
	}
}

// GetClientCount returns registered client count
func (s *UDPServer) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown closes the UDP connection
func (s *UDPServer) Shutdown() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// GetAddress returns the server address
func (s *UDPServer) GetAddress() string {
	return fmt.Sprintf("udp://%s:%d", s.host, s.port)
}
