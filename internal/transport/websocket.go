package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketServer broadcasts events to WebSocket clients
type WebSocketServer struct {
	host    string
	port    int
	encoder encoding.Encoder
	metrics *metrics.Metrics
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	server  *http.Server
}

// NewWebSocketServer creates a new WebSocket server. The metrics handler is
// mounted at /metrics when m is not nil.
func NewWebSocketServer(host string, port int, encoder encoding.Encoder, m *metrics.Metrics) *WebSocketServer {
	return &WebSocketServer{
		host:    host,
		port:    port,
		encoder: encoder,
		metrics: m,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler returns the HTTP routes of the server
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleWebSocket)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start starts the WebSocket server
func (s *WebSocketServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("websocket server listening", "addr", s.GetAddress())
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
			return fmt.Errorf("websocket server failed: %w", err)
		}
		return nil
	}
}

// handleRoot provides info at the root endpoint
func (s *WebSocketServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "physiosim stream server\n\n")
	fmt.Fprintf(w, "WebSocket endpoint: %s\n", s.GetAddress())
	fmt.Fprintf(w, "Connected clients: %d\n", s.GetClientCount())
}

// handleWebSocket handles WebSocket connections
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.mu.Unlock()
	s.metrics.SetClients("websocket", clientCount)

	slog.Info("websocket client connected", "remote", r.RemoteAddr, "clients", clientCount)

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.mu.Unlock()
		s.metrics.SetClients("websocket", clientCount)

		conn.Close()
		slog.Info("websocket client disconnected", "remote", r.RemoteAddr, "clients", clientCount)
	}()

	// Keep connection alive and handle client messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends an event to all connected clients
func (s *WebSocketServer) Broadcast(event models.Event) error {
	if s.GetClientCount() == 0 {
		return nil
	}

	data, err := s.encoder.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	messageType := websocket.TextMessage
	if s.encoder.ContentType() != "application/json" {
		messageType = websocket.BinaryMessage
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if err := client.WriteMessage(messageType, data); err != nil {
			// Client will be cleaned up by the connection handler
			slog.Debug("failed to send to websocket client", "remote", client.RemoteAddr().String(), "error", err)
		}
	}

	return nil
}

// BroadcastFromChannel reads events from a channel and broadcasts them
func (s *WebSocketServer) BroadcastFromChannel(ctx context.Context, events <-chan models.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Broadcast(event); err != nil {
				slog.Warn("websocket broadcast failed", "event_id", event.EventID, "error", err)
			}
		}
	}
}

// GetClientCount returns the number of connected clients
func (s *WebSocketServer) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Shutdown gracefully shuts down the server
func (s *WebSocketServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetAddress returns the server address
func (s *WebSocketServer) GetAddress() string {
	return fmt.Sprintf("ws://%s:%d/stream", s.host, s.port)
}
