package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"sprintanalyzer/internal/config"
)

func TestJSONLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	l.Info().Msg("hidden")
	l.Warn().Str("sprint", "Sprint 1").Msg("capacity gap")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["level"] != "warn" || entry["sprint"] != "Sprint 1" || entry["message"] != "capacity gap" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LogConfig{Level: "loud", Format: "json"}, &buf)
	l.Debug().Msg("debug")
	l.Info().Msg("info")
	if bytes.Contains(buf.Bytes(), []byte(`"debug"`)) || !bytes.Contains(buf.Bytes(), []byte(`"info"`)) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
