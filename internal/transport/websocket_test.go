package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/synheart/physiosim/internal/encoding"
	"github.com/synheart/physiosim/internal/metrics"
)

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func TestWebSocketServer_Broadcast(t *testing.T) {
	server := NewWebSocketServer("127.0.0.1", 0, encoding.NewJSONEncoder(), nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialStream(t, ts)
	defer conn.Close()
	waitFor(t, func() bool { return server.GetClientCount() == 1 })

	if err := server.Broadcast(sampleEvent("ws-1")); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if messageType != websocket.TextMessage {
		t.Errorf("expected text frame for json, got %d", messageType)
	}
	if !strings.Contains(string(data), `"event_id":"ws-1"`) {
		t.Errorf("unexpected payload: %s", data)
	}

	conn.Close()
	waitFor(t, func() bool { return server.GetClientCount() == 0 })
}

func TestWebSocketServer_ProtobufBinaryFrames(t *testing.T) {
	server := NewWebSocketServer("127.0.0.1", 0, encoding.NewProtobufEncoder(), nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialStream(t, ts)
	defer conn.Close()
	waitFor(t, func() bool { return server.GetClientCount() == 1 })

	server.Broadcast(sampleEvent("ws-pb"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	messageType, _, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if messageType != websocket.BinaryMessage {
		t.Errorf("expected binary frame for protobuf, got %d", messageType)
	}
}

func TestWebSocketServer_MetricsAndRoot(t *testing.T) {
	m := metrics.New()
	server := NewWebSocketServer("127.0.0.1", 8787, encoding.NewJSONEncoder(), m)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	conn := dialStream(t, ts)
	defer conn.Close()
	waitFor(t, func() bool { return server.GetClientCount() == 1 })

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `physiosim_clients{transport="websocket"} 1`) {
		t.Errorf("expected websocket client gauge in metrics output")
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ws://127.0.0.1:8787/stream") {
		t.Errorf("root page should show the stream address, got: %s", body)
	}
}

func TestWebSocketServer_NoMetricsRoute(t *testing.T) {
	server := NewWebSocketServer("127.0.0.1", 0, encoding.NewJSONEncoder(), nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	// Without metrics the root handler answers.
	if strings.Contains(string(body), "physiosim_") {
		t.Error("metrics should not be served without a registry")
	}
}
