package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"none", LevelNone},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LevelWarn, path, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	content := string(data)

	if strings.Contains(content, "debug line") || strings.Contains(content, "info line") {
		t.Errorf("Lines below the level leaked through:\n%s", content)
	}
	if !strings.Contains(content, "warn line") || !strings.Contains(content, "error line") {
		t.Errorf("Expected warn and error lines, got:\n%s", content)
	}
}

func TestWithPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LevelInfo, path, "server")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.WithPrefix("ws").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "[server:ws]") {
		t.Errorf("Expected chained prefix, got:\n%s", data)
	}
}
