// Package control serves the HTTP API through which discrete interventions
// (shock, drugs, swallows, case changes) reach a running session.
package control

import (
	"compress/gzip"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

// maxBodySize bounds a command request body after decompression.
const maxBodySize = 64 * 1024

// CommandSink receives validated commands. *generator.Generator satisfies it.
type CommandSink interface {
	Apply(cmd models.Command) error
}

// Config holds the control server configuration
type Config struct {
	Host       string
	Port       int
	Token      string
	AcceptGzip bool
}

// Server is the HTTP control server
type Server struct {
	config     Config
	sink       CommandSink
	journal    Writer
	metrics    *metrics.Metrics
	idempotent *IdempotencyStore
	server     *http.Server
	mu         sync.RWMutex
	stats      Stats
}

// Stats holds server statistics
type Stats struct {
	TotalReceived   int
	TotalDuplicates int
	TotalErrors     int
}

// NewServer creates a new control server. journal and m may be nil.
func NewServer(config Config, sink CommandSink, journal Writer, m *metrics.Metrics) *Server {
	return &Server{
		config:     config,
		sink:       sink,
		journal:    journal,
		metrics:    m,
		idempotent: NewIdempotencyStore(),
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/commands", s.handleCommand)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start starts the control server
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("control server listening", "addr", s.GetAddress())
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
			return fmt.Errorf("control server failed: %w", err)
		}
		return nil
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetAddress returns the server address
func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://%s:%d/v1/commands", s.config.Host, s.config.Port)
}

// GetStats returns current server statistics
func (s *Server) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	types := make([]string, len(models.CommandTypes))
	for i, t := range models.CommandTypes {
		types[i] = string(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "physiosim-control",
		"endpoint": "/v1/commands",
		"commands": types,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.validateAuth(r) {
		s.fail(w, "", http.StatusUnauthorized, "invalid or missing authorization token")
		return
	}

	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		s.fail(w, "", http.StatusBadRequest, "Content-Type must be application/json")
		return
	}

	body, err := s.readBody(r)
	if err != nil {
		s.fail(w, "", http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}

	var cmd models.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		s.fail(w, "", http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	if err := cmd.Validate(); err != nil {
		s.metrics.ObserveCommand(string(cmd.Type), "invalid")
		s.fail(w, string(cmd.Type), http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = cmd.ID
	}

	duplicate := !s.idempotent.MarkIfNew(key)
	if duplicate {
		s.metrics.ObserveCommand(string(cmd.Type), "duplicate")
		slog.Debug("duplicate command acknowledged", "command_id", cmd.ID, "idempotency_key", key)
	} else {
		if err := s.sink.Apply(cmd); err != nil {
			s.idempotent.Forget(key)
			s.fail(w, string(cmd.Type), http.StatusServiceUnavailable, "command not queued: "+err.Error())
			return
		}
		s.metrics.ObserveCommand(string(cmd.Type), "queued")
		slog.Info("command queued", "command_id", cmd.ID, "type", string(cmd.Type))
	}

	receipt := models.NewCommandReceipt(&cmd, duplicate)
	if s.journal != nil {
		if err := s.journal.Write(receipt); err != nil {
			slog.Warn("failed to journal command receipt", "command_id", cmd.ID, "error", err)
		}
	}

	s.mu.Lock()
	s.stats.TotalReceived++
	if duplicate {
		s.stats.TotalDuplicates++
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"receipt": receipt,
	})
}

func (s *Server) validateAuth(r *http.Request) bool {
	if s.config.Token == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.config.Token)) == 1
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	var reader io.Reader = r.Body

	if r.Header.Get("Content-Encoding") == "gzip" {
		if !s.config.AcceptGzip {
			return nil, errors.New("gzip bodies are not accepted")
		}
		gzReader, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}

func (s *Server) fail(w http.ResponseWriter, commandType string, status int, message string) {
	s.mu.Lock()
	s.stats.TotalErrors++
	s.mu.Unlock()
	if status == http.StatusUnauthorized {
		s.metrics.ObserveCommand(commandType, "unauthorized")
	}
	s.writeError(w, status, message)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "status", status, "error", err)
	}
}

// IdempotencyStore tracks processed idempotency keys
type IdempotencyStore struct {
	seen map[string]time.Time
	mu   sync.Mutex
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		seen: make(map[string]time.Time),
	}
}

// MarkIfNew records key and reports whether it was not seen before.
func (s *IdempotencyStore) MarkIfNew(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = time.Now()
	return true
}

// Forget removes a key so a rejected command can be retried.
func (s *IdempotencyStore) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
}
