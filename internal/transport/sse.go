package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

// sseClientBuffer is the per-client queue; a slow client misses events
// rather than stalling the broadcast.
const sseClientBuffer = 100

// SSEServer broadcasts events via Server-Sent Events
type SSEServer struct {
	host    string
	port    int
	encoder encoding.Encoder
	metrics *metrics.Metrics
	clients map[chan []byte]bool
	mu      sync.RWMutex
	server  *http.Server
}

// NewSSEServer creates a new SSE server
func NewSSEServer(host string, port int, encoder encoding.Encoder, m *metrics.Metrics) *SSEServer {
	return &SSEServer{
		host:    host,
		port:    port,
		encoder: encoder,
		metrics: m,
		clients: make(map[chan []byte]bool),
	}
}

// Handler returns the HTTP routes of the server
func (s *SSEServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream/sse", s.handleSSE)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start starts the SSE server
func (s *SSEServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("sse server listening", "addr", s.GetAddress())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("SSE server failed: %w", err)
		}
		return nil
	}
}

func (s *SSEServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "physiosim SSE server\n\nEndpoint: %s\n", s.GetAddress())
}

func (s *SSEServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientChan := make(chan []byte, sseClientBuffer)
	s.addClient(clientChan)
	defer s.removeClient(clientChan)

	slog.Info("sse client connected", "remote", r.RemoteAddr, "clients", s.GetClientCount())

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-clientChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *SSEServer) addClient(ch chan []byte) {
	s.mu.Lock()
	s.clients[ch] = true
	n := len(s.clients)
	s.mu.Unlock()
	s.metrics.SetClients("sse", n)
}

func (s *SSEServer) removeClient(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[ch]; exists {
		delete(s.clients, ch)
		close(ch)
		s.metrics.SetClients("sse", len(s.clients))
		slog.Info("sse client disconnected", "clients", len(s.clients))
	}
}

// Broadcast sends an event to all connected clients
func (s *SSEServer) Broadcast(event models.Event) error {
	if s.GetClientCount() == 0 {
		return nil
	}

	data, err := s.encoder.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	// SSE frames are text.
	if s.encoder.ContentType() != "application/json" {
		data = []byte(base64.StdEncoding.EncodeToString(data))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.clients {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

// BroadcastFromChannel reads events and broadcasts them
func (s *SSEServer) BroadcastFromChannel(ctx context.Context, events <-chan models.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Broadcast(event); err != nil {
				slog.Warn("sse broadcast failed", "event_id", event.EventID, "error", err)
			}
		}
	}
}

// GetClientCount returns connected client count
func (s *SSEServer) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown gracefully stops the server
func (s *SSEServer) Shutdown() error {
	s.mu.Lock()
	for ch := range s.clients {
		close(ch)
	}
	s.clients = make(map[chan []byte]bool)
	s.mu.Unlock()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// GetAddress returns the server address
func (s *SSEServer) GetAddress() string {
	return fmt.Sprintf("http://%s:%d/stream/sse", s.host, s.port)
}
