package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerFormatsComponent(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, levelVar))

	logger = logger.With(String(FieldComponent, "reconcile"))
	logger.Info("upload admitted", String(FieldSpeaker, "00001"), Int("seq", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO reconcile: upload admitted") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "speaker=00001") || !strings.Contains(line, "seq=3") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, levelVar))

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("info line should be suppressed: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatValueQuoting(t *testing.T) {
	if got := formatValue(slog.StringValue("plain")); got != "plain" {
		t.Fatalf("plain value quoted: %q", got)
	}
	if got := formatValue(slog.StringValue("has space")); got != `"has space"` {
		t.Fatalf("expected quoted value, got %q", got)
	}
}
