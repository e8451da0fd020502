package control

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/synheart/physiosim/internal/metrics"
	"github.com/synheart/physiosim/internal/models"
)

type recordingSink struct {
	mu       sync.Mutex
	commands []models.Command
	err      error
}

func (s *recordingSink) Apply(cmd models.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.commands = append(s.commands, cmd)
	return nil
}

func newTestServer(sink CommandSink, journal Writer, m *metrics.Metrics) *Server {
	config := Config{
		Host:  "127.0.0.1",
		Port:  8788,
		Token: "test-token",
	}
	return NewServer(config, sink, journal, m)
}

func commandRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	return req
}

func receiptOf(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	receipt, ok := resp["receipt"].(map[string]any)
	if !ok {
		t.Fatalf("response has no receipt: %s", rr.Body.String())
	}
	return receipt
}

func TestHandleCommand_Valid(t *testing.T) {
	sink := &recordingSink{}
	var journal bytes.Buffer
	server := newTestServer(sink, NewStdoutWriter(&journal, "ndjson"), nil)

	rr := httptest.NewRecorder()
	server.handleCommand(rr, commandRequest(`{"id":"c-1","type":"shock"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(sink.commands) != 1 || sink.commands[0].Type != models.CmdShock {
		t.Fatalf("expected one shock command, got %+v", sink.commands)
	}
	if receipt := receiptOf(t, rr); receipt["queued"] != true || receipt["command_id"] != "c-1" {
		t.Errorf("unexpected receipt: %v", receipt)
	}
	if !strings.Contains(journal.String(), `"command_id":"c-1"`) {
		t.Errorf("receipt not journaled: %s", journal.String())
	}
}

func TestHandleCommand_AssignsID(t *testing.T) {
	sink := &recordingSink{}
	server := newTestServer(sink, nil, nil)

	rr := httptest.NewRecorder()
	server.handleCommand(rr, commandRequest(`{"type":"ventilate"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if sink.commands[0].ID == "" {
		t.Error("expected a generated command id")
	}
}

func TestHandleCommand_Auth(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong token", "Bearer wrong-token"},
		{"wrong scheme", "Basic test-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			server := newTestServer(sink, nil, nil)

			req := commandRequest(`{"id":"c-1","type":"shock"}`)
			req.Header.Del("Authorization")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := httptest.NewRecorder()
			server.handleCommand(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rr.Code)
			}
			if len(sink.commands) != 0 {
				t.Error("unauthorized command must not be applied")
			}
		})
	}
}

func TestHandleCommand_EmptyTokenRejectsAll(t *testing.T) {
	server := NewServer(Config{Host: "127.0.0.1", Port: 8788}, &recordingSink{}, nil, nil)

	req := commandRequest(`{"id":"c-1","type":"shock"}`)
	req.Header.Set("Authorization", "Bearer ")

	rr := httptest.NewRecorder()
	server.handleCommand(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleCommand_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "not valid json"},
		{"unknown type", `{"id":"c-1","type":"teleport"}`},
		{"bad rhythm", `{"id":"c-1","type":"rhythm","rhythm":"AFIB"}`},
		{"energy out of range", `{"id":"c-1","type":"energy","energy":500}`},
		{"bad drug", `{"id":"c-1","type":"drug","value":"ASPIRIN"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			server := newTestServer(sink, nil, nil)

			rr := httptest.NewRecorder()
			server.handleCommand(rr, commandRequest(tt.body))

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if len(sink.commands) != 0 {
				t.Error("invalid command must not be applied")
			}
		})
	}
}

func TestHandleCommand_ContentType(t *testing.T) {
	server := newTestServer(&recordingSink{}, nil, nil)

	req := commandRequest(`{"id":"c-1","type":"shock"}`)
	req.Header.Set("Content-Type", "text/plain")

	rr := httptest.NewRecorder()
	server.handleCommand(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleCommand_MethodNotAllowed(t *testing.T) {
	server := newTestServer(&recordingSink{}, nil, nil)

	rr := httptest.NewRecorder()
	server.handleCommand(rr, httptest.NewRequest(http.MethodGet, "/v1/commands", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleCommand_Idempotency(t *testing.T) {
	sink := &recordingSink{}
	m := metrics.New()
	server := newTestServer(sink, nil, m)

	for i := 0; i < 2; i++ {
		req := commandRequest(`{"type":"drug","value":"EPI"}`)
		req.Header.Set("Idempotency-Key", "epi-dose-1")

		rr := httptest.NewRecorder()
		server.handleCommand(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, rr.Code)
		}

		receipt := receiptOf(t, rr)
		if i == 0 && receipt["duplicate"] == true {
			t.Error("first request should not be marked as duplicate")
		}
		if i == 1 && (receipt["duplicate"] != true || receipt["queued"] != false) {
			t.Errorf("second request should be an unqueued duplicate: %v", receipt)
		}
	}

	if len(sink.commands) != 1 {
		t.Errorf("duplicate must not be re-applied, got %d applications", len(sink.commands))
	}

	stats := server.GetStats()
	if stats.TotalReceived != 2 || stats.TotalDuplicates != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("drug", "duplicate")); got != 1 {
		t.Errorf("expected 1 duplicate metric, got %v", got)
	}
}

func TestHandleCommand_SinkRejectionAllowsRetry(t *testing.T) {
	sink := &recordingSink{err: errors.New("command queue full")}
	server := newTestServer(sink, nil, nil)

	rr := httptest.NewRecorder()
	server.handleCommand(rr, commandRequest(`{"id":"c-1","type":"charge"}`))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}

	sink.err = nil
	rr = httptest.NewRecorder()
	server.handleCommand(rr, commandRequest(`{"id":"c-1","type":"charge"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("retry: expected status 200, got %d", rr.Code)
	}
	if receipt := receiptOf(t, rr); receipt["duplicate"] == true {
		t.Error("retry after rejection is not a duplicate")
	}
}

func TestHandleCommand_Gzip(t *testing.T) {
	var compressed bytes.Buffer
	gzWriter := gzip.NewWriter(&compressed)
	gzWriter.Write([]byte(`{"id":"gz-1","type":"swallow"}`))
	gzWriter.Close()

	tests := []struct {
		name       string
		acceptGzip bool
		wantStatus int
	}{
		{"accepted", true, http.StatusOK},
		{"refused", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{Host: "127.0.0.1", Port: 8788, Token: "test-token", AcceptGzip: tt.acceptGzip}
			server := NewServer(config, &recordingSink{}, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/commands", bytes.NewReader(compressed.Bytes()))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Content-Encoding", "gzip")
			req.Header.Set("Authorization", "Bearer test-token")

			rr := httptest.NewRecorder()
			server.handleCommand(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(&recordingSink{}, nil, nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestIdempotencyStore(t *testing.T) {
	store := NewIdempotencyStore()

	if !store.MarkIfNew("key1") {
		t.Error("first mark should report a new key")
	}
	if store.MarkIfNew("key1") {
		t.Error("second mark should report a seen key")
	}

	store.Forget("key1")
	if !store.MarkIfNew("key1") {
		t.Error("key1 should be new again after Forget")
	}
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	w := brokenWriter{httptest.NewRecorder()}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(logs.String(), "failed to write response") {
		t.Errorf("expected a logged write failure, got %q", logs.String())
	}
}
