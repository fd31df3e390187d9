package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestQuietLoggerOnlyWritesWarnings(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("spawn", map[string]interface{}{"cmd": "brew"})
	l.Info("moved", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be suppressed, got %q", buf.String())
	}
	l.Warn("audit emit failed", map[string]interface{}{"sink": "jsonl"})
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "sink=jsonl") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestVerboseLoggerFlattensFieldsInOrder(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Debug("selected", map[string]interface{}{"b": 2, "a": 1})
	out := buf.String()
	if strings.Index(out, "a=1") > strings.Index(out, "b=2") {
		t.Fatalf("expected sorted attrs, got %q", out)
	}
	buf.Reset()
	l.Error("run failed", errors.New("boom"), nil)
	if !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("expected error attr, got %q", buf.String())
	}
}
