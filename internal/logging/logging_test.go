package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"trace", LevelTrace},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf, "text")

	logger.Debug("hidden")
	logger.Info("visible", "clients", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "msg=visible") || !strings.Contains(out, "clients=2") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNewLogger_JSONTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf, "json")

	logger.Log(context.Background(), LevelTrace, "sample", "signal", "ecg")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["level"] != "TRACE" || entry["signal"] != "ecg" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
