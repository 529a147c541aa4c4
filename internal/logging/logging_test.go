package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	if err != nil || lvl != zapcore.InfoLevel {
		t.Fatalf("expected info default, got %v (%v)", lvl, err)
	}
	lvl, err = ParseLevel("WARN")
	if err != nil || lvl != zapcore.WarnLevel {
		t.Fatalf("expected warn, got %v (%v)", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("playback failed", zap.String("fingerprint", "abc"))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered: %s", out)
	}
	if !strings.Contains(out, "playback failed") || !strings.Contains(out, "abc") {
		t.Fatalf("expected warning with field: %s", out)
	}
}
