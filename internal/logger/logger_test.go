// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		logLevel string

		shouldLogInfo bool
	}{{
		name:          "json format debug level",
		format:        "json",
		logLevel:      "debug",
		shouldLogInfo: true,
	}, {
		name:          "json format info level",
		format:        "json",
		logLevel:      "info",
		shouldLogInfo: true,
	}, {
		name:          "json format warn level",
		format:        "json",
		logLevel:      "warn",
		shouldLogInfo: false,
	}, {
		name:          "text format info level",
		format:        "text",
		logLevel:      "info",
		shouldLogInfo: true,
	}, {
		name:          "text format warn level",
		format:        "text",
		logLevel:      "warn",
		shouldLogInfo: false,
	}, {
		name:          "text format error level",
		format:        "text",
		logLevel:      "error",
		shouldLogInfo: false,
	}, {
		name:          "unknown format falls back to text",
		format:        "fancy",
		logLevel:      "info",
		shouldLogInfo: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(tt.logLevel, tt.format, &buf)
			log.Info("test message", "key", "value")

			output := buf.String()
			if !tt.shouldLogInfo {
				assert.NotContains(t, output, "test message")
				return
			}
			assert.Contains(t, output, "test message")

			// source path is shortened to its tail
			assert.NotContains(t, output, "/home/", "source path should be trimmed: %s", output)

			if tt.format == "json" {
				logParts := map[string]any{}
				require.NoError(t, json.Unmarshal(buf.Bytes(), &logParts))
				assert.Equal(t, "test message", logParts["msg"])
				assert.Equal(t, "value", logParts["key"])
				assert.Contains(t, logParts, "time")
			}
		})
	}
}

func TestTrimSource(t *testing.T) {
	src := &slog.Source{File: "/home/user/go/src/project/internal/logger/logger.go"}
	attr := trimSource(nil, slog.Any(slog.SourceKey, src))

	got, ok := attr.Value.Any().(*slog.Source)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("internal", "logger", "logger.go"), got.File)

	// short paths pass through untouched
	short := &slog.Source{File: "main.go"}
	attr = trimSource(nil, slog.Any(slog.SourceKey, short))
	got, ok = attr.Value.Any().(*slog.Source)
	require.True(t, ok)
	assert.Equal(t, "main.go", got.File)

	// non-source attributes are untouched
	other := slog.String("msg", "hello")
	assert.Equal(t, other, trimSource(nil, other))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLogLevel(tt.level), "parseLogLevel(%q)", tt.level)
	}
}

func TestLogLevelReportsConfigured(t *testing.T) {
	var buf bytes.Buffer
	_ = New("warn", "text", &buf)
	assert.Equal(t, slog.LevelWarn, LogLevel())

	_ = New("info", "text", &buf)
	assert.Equal(t, slog.LevelInfo, LogLevel())
}
