package logging

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecretRedaction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "secret is redacted",
			input:    "my-secret-password",
			expected: "[REDACTED]",
		},
		{
			name:     "empty secret is still redacted",
			input:    "",
			expected: "[REDACTED]",
		},
		{
			name:     "complex secret is redacted",
			input:    "password123!@#",
			expected: "[REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Secret(tt.input).String())
			assert.Equal(t, tt.expected, fmt.Sprintf("%#v", Secret(tt.input)))
		})
	}
}

func TestLoggerRedactsSecretFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewFromCore(core)

	logger.Info("connecting", "user", "postgres", "password", Secret("MySecretAdminPassword"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "connecting", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "postgres", fields["user"])
	assert.Equal(t, "[REDACTED]", fields["password"])
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewFromCore(core).With("component", "test")

	logger.Debug("hidden")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	require.Equal(t, 3, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "test", entry.ContextMap()["component"])
	}
	assert.Equal(t, 0, logs.FilterMessage("hidden").Len())
}

func TestNewWithOptionsFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drdb.log")

	logger, err := NewWithOptions(Options{Debug: true, NoColor: true, Format: "json", File: path})
	require.NoError(t, err)

	logger.Debug("file sink online")
	_ = logger.Sync()

	assert.FileExists(t, path)
}

func TestNewWithOptionsLevel(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
	}{
		{name: "default is info", opts: Options{}, wantInfo: true},
		{name: "warn hides info", opts: Options{Level: "warn"}},
		{name: "debug level", opts: Options{Level: "debug"}, wantDebug: true, wantInfo: true},
		{name: "debug flag overrides level", opts: Options{Level: "error", Debug: true}, wantDebug: true, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithOptions(tt.opts)
			require.NoError(t, err)

			core := logger.sugar.Desugar().Core()
			assert.Equal(t, tt.wantDebug, core.Enabled(zap.DebugLevel))
			assert.Equal(t, tt.wantInfo, core.Enabled(zap.InfoLevel))
			assert.True(t, core.Enabled(zap.ErrorLevel))
		})
	}

	_, err := NewWithOptions(Options{Level: "loud"})
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("dropped", "err", fmt.Errorf("boom"))
	})
}

// TestRedactFunction tests the Redact utility function
func TestRedactFunction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		secrets  []string
		expected string
	}{
		{
			name:     "single secret redacted",
			input:    "The password is secret123",
			secrets:  []string{"secret123"},
			expected: "The password is [REDACTED]",
		},
		{
			name:     "multiple secrets redacted",
			input:    "User admin with password secret123 and API key abc123",
			secrets:  []string{"admin", "secret123", "abc123"},
			expected: "User [REDACTED] with password [REDACTED] and API key [REDACTED]",
		},
		{
			name:     "no secrets to redact",
			input:    "This has no secrets",
			secrets:  []string{},
			expected: "This has no secrets",
		},
		{
			name:     "short secret ignored",
			input:    "Short secret: ab",
			secrets:  []string{"ab"},
			expected: "Short secret: ab", // Too short to redact
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.input, tt.secrets))
		})
	}
}
