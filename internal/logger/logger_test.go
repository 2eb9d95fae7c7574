package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	log.Info().Str("table", "users").Msg("inspecting table")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "inspecting table", logEntry["message"])
	assert.Equal(t, "users", logEntry["table"])
	assert.NotEmpty(t, logEntry["time"])
}

func TestLogger_ConsoleOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{
		Level:  "info",
		Format: "console",
		Output: buf,
	})

	log.Warn().Str("field", "row_count").Msg("table query failed")

	assert.Contains(t, buf.String(), "table query failed")
	assert.Contains(t, buf.String(), "row_count")
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(zerolog.Logger)
		expected bool
	}{
		{
			name:     "debug level logs debug",
			level:    "debug",
			logFunc:  func(l zerolog.Logger) { l.Debug().Msg("debug message") },
			expected: true,
		},
		{
			name:     "info level skips debug",
			level:    "info",
			logFunc:  func(l zerolog.Logger) { l.Debug().Msg("debug message") },
			expected: false,
		},
		{
			name:     "warn level skips info",
			level:    "warn",
			logFunc:  func(l zerolog.Logger) { l.Info().Msg("info message") },
			expected: false,
		},
		{
			name:     "error level logs error",
			level:    "error",
			logFunc:  func(l zerolog.Logger) { l.Error().Msg("error message") },
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := New(&Config{Level: tt.level, Format: "json", Output: buf})

			tt.logFunc(log)

			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}
