package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("debug", &buf)

	logger.WithField("component", "bridge").WithField("endpoint", "ws://robot:9090").Warnf("link %s", "lost")

	line := buf.String()
	if !strings.Contains(line, "[WAR] link lost") {
		t.Errorf("Expected level and message in output, got %q", line)
	}
	// Fields are sorted by key
	if !strings.HasSuffix(line, " component=bridge endpoint=ws://robot:9090\n") {
		t.Errorf("Expected sorted fields at end of line, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("warn", &buf)

	logger.Infof("should not appear")
	logger.Debugf("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("Expected info/debug to be filtered at warn level, got %q", buf.String())
	}

	logger.Errorf("boom")
	if !strings.Contains(buf.String(), "[ERR] boom") {
		t.Errorf("Expected error line, got %q", buf.String())
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("chatty", &buf)

	logger.Debugf("hidden")
	logger.Infof("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debug output should be filtered at default info level")
	}
	if !strings.Contains(buf.String(), "[INF] shown") {
		t.Errorf("Expected info line, got %q", buf.String())
	}
}

func TestNewLogrusLoggerCreatesLogFile(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogrusLogger("info", logDir)
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}
	logger.Infof("hello file")

	data, err := os.ReadFile(filepath.Join(logDir, LogFileName))
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Expected message in log file, got %q", string(data))
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Must not panic
	logger.WithField("a", 1).Infof("ignored %d", 1)
	logger.Errorf("ignored")
}
