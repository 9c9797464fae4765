package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWriterLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, WarnLevel)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message %d", 1)
	log.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Messages below the level were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn message 1") {
		t.Errorf("Expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error message") {
		t.Errorf("Expected error line, got %q", out)
	}
}

func TestWriterLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, InfoLevel)
	child := log.With("session").With("merge")

	child.Info("processed %d files", 2)
	if !strings.Contains(buf.String(), "[INFO] session.merge: processed 2 files") {
		t.Errorf("Expected component-tagged line, got %q", buf.String())
	}

	// Derived loggers share the parent's level
	buf.Reset()
	log.SetLevel(ErrorLevel)
	child.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output after raising level, got %q", buf.String())
	}
}

func TestNewLogger_InvalidOutput(t *testing.T) {
	_, err := NewLogger(LogConfig{Output: "syslog"})
	if err == nil {
		t.Fatal("Expected error for invalid output, got nil")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := t.TempDir() + "/toolkit.log"
	log, err := NewLogger(LogConfig{Output: "file", FilePath: path, Level: "debug"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	log.Debug("written to file")
}
