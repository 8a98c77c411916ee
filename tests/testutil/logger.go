package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/drdb/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a logging.Logger whose entries are kept in memory.
//
// Example usage:
//
//	log := NewTestLogger(t)
//	thing := NewThing(log.Logger)
//	log.AssertNotContains(t, "password123")
type TestLogger struct {
	*logging.Logger
	logs *observer.ObservedLogs
}

// NewTestLogger records every level, debug included.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	return &TestLogger{Logger: logging.NewFromCore(core), logs: logs}
}

// String renders all entries, fields included, one per line.
func (l *TestLogger) String() string {
	var s string
	for _, e := range l.logs.All() {
		s += fmt.Sprintf("%s %s %v\n", e.Level, e.Message, e.ContextMap())
	}
	return s
}

// AssertContains checks that some entry mentions substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.String(), substr)
}

// AssertNotContains checks that no entry, message or field, mentions substr.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.String(), substr)
}
