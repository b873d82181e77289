package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()

	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"fatal", FatalLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", WarnLevel)
	logger.SetOutput(&buf)

	ctx := context.Background()
	logger.Debug(ctx, "[DEBUG] dropped", Fields{})
	logger.Info(ctx, "[INFO] dropped", Fields{})
	logger.Warn(ctx, "[WARN] kept", Fields{"k": "v"})

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "[WARN] kept", entries[0].Message)
	assert.Equal(t, "v", entries[0].Fields["k"])
	assert.Equal(t, "test", entries[0].Service)
}

func TestStructuredLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", DebugLevel)
	logger.SetOutput(&buf)

	ctx := WithAirport(WithRequestID(context.Background(), "req-1"), "ORD")
	logger.Info(ctx, "[CTX] tagged", nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0].RequestID)
	assert.Equal(t, "ORD", entries[0].Airport)
}

func TestStructuredLogger_ErrorCarriesCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", InfoLevel)
	logger.SetOutput(&buf)

	logger.Error(context.Background(), "[ERR] failed", Fields{}, errors.New("boom"))

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Error)
	assert.NotEmpty(t, entries[0].File)
	assert.NotZero(t, entries[0].Line)
	assert.Empty(t, entries[0].StackTrace)
}

func TestStructuredLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", InfoLevel)
	logger.SetOutput(&buf)

	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(context.Background(), "[FATAL] stop", Fields{}, errors.New("fatal"))

	assert.Equal(t, 1, code)
	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].StackTrace)
}

func TestContextLogger_MergeFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", InfoLevel)
	logger.SetOutput(&buf)

	component := logger.WithFields(Fields{"component": "renderer", "k": "base"})
	component.Info(context.Background(), "[MERGE] fields", Fields{"k": "override"})

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "renderer", entries[0].Fields["component"])
	assert.Equal(t, "override", entries[0].Fields["k"])
}
