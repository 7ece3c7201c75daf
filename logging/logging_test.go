package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestConfigureWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagesync.log")
	if err := Configure(Options{Level: "info", File: path}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	LogInfo("hello %s", "world")
	DebugLog("suppressed at info level")
	CloseLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Fatalf("expected info line in log, got %q", data)
	}
	if strings.Contains(string(data), "suppressed") {
		t.Fatalf("debug line should be filtered, got %q", data)
	}
}

func TestLogImageProcessedFailureIncludesPath(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)

	LogImageProcessed("/photos/a.jpg", false, "decode failed")
	out := buf.String()
	if !strings.Contains(out, "/photos/a.jpg") || !strings.Contains(out, "decode failed") {
		t.Fatalf("unexpected output %q", out)
	}
}
