package logging_test

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simplstream/internal/logging"
)

func TestSetupWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "simplstream.log")
	closer, err := logging.Setup(logging.Options{File: path, MaxSizeMB: 1, Quiet: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	log.Printf("[test] hello key=%q", "value")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `[test] hello key="value"`) {
		t.Fatalf("expected log line in file, got %q", data)
	}
}

func TestSetupWithoutFile(t *testing.T) {
	closer, err := logging.Setup(logging.Options{Quiet: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
