package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewFromConfig_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewFromConfig("warn", "json", buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info().Msg("dropped")
	log.Warn().Str("bank_account_id", "b1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line at warn level, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", lines[0], err)
	}
	if entry["message"] != "kept" || entry["bank_account_id"] != "b1" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestNewFromConfig_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewFromConfig("debug", "console", buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug().Msg("page committed")

	output := buf.String()
	if !strings.Contains(output, "page committed") {
		t.Errorf("Expected output to contain message, got: %s", output)
	}
	if strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("Expected console output, got JSON: %s", output)
	}
}

func TestNewFromConfig_InvalidLevel(t *testing.T) {
	if _, err := NewFromConfig("verbose", "json", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	if ctx.Value(LoggerKey) == nil {
		t.Fatal("Expected logger in context, got nil")
	}

	log := FromContext(ctx)
	log.Info().Msg("sync started")

	if !strings.Contains(buf.String(), "sync started") {
		t.Errorf("Expected output from retrieved logger, got: %s", buf.String())
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"user_id":         "u1",
		"bank_account_id": "b1",
	})

	log.Info().Msg("test message")

	output := buf.String()
	for _, want := range []string{`"user_id":"u1"`, `"bank_account_id":"b1"`, "test message"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got: %s", want, output)
		}
	}
}
