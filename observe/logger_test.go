package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)

	l.Info(context.Background(), "cache miss", Field{Key: "path", Value: "/projects/1"})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["msg"] != "cache miss" {
		t.Errorf("msg = %v, want \"cache miss\"", e["msg"])
	}
	if e["level"] != "info" {
		t.Errorf("level = %v, want info", e["level"])
	}
	if e["path"] != "/projects/1" {
		t.Errorf("path = %v, want /projects/1", e["path"])
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("warn", &buf)

	ctx := context.Background()
	l.Debug(ctx, "dropped")
	l.Info(ctx, "dropped")
	l.Warn(ctx, "kept")
	l.Error(ctx, "kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)

	l.Info(context.Background(), "configured",
		Field{Key: "api_key", Value: "super-secret"},
		Field{Key: "workspace", Value: "42"},
	)

	entries := decodeLines(t, &buf)
	if entries[0]["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v, want [REDACTED]", entries[0]["api_key"])
	}
	if entries[0]["workspace"] != "42" {
		t.Errorf("workspace = %v, want 42", entries[0]["workspace"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter("info", &buf)

	scoped := l.With(Field{Key: "component", Value: "fetch"})
	scoped.Info(context.Background(), "retrying")

	entries := decodeLines(t, &buf)
	if entries[0]["component"] != "fetch" {
		t.Errorf("component = %v, want fetch", entries[0]["component"])
	}

	// The parent logger is unchanged.
	buf.Reset()
	l.Info(context.Background(), "plain")
	entries = decodeLines(t, &buf)
	if _, ok := entries[0]["component"]; ok {
		t.Error("parent logger inherited scoped field")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
