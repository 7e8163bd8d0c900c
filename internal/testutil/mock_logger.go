// Package testutil provides common test utilities for interview-intel.
package testutil

import (
	"sync"

	"github.com/prepwise/interview-intel/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger for testing purposes.
// It records log messages and can be used to verify logging behavior.
type MockLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) {
	m.log("debug", msg, fields)
}

func (m *MockLogger) Info(msg string, fields ...logging.Field) {
	m.log("info", msg, fields)
}

func (m *MockLogger) Warn(msg string, fields ...logging.Field) {
	m.log("warn", msg, fields)
}

func (m *MockLogger) Error(msg string, fields ...logging.Field) {
	m.log("error", msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields ...logging.Field) {
	m.log("fatal", msg, fields)
}

// With returns a child that writes into the same message sink with the extra
// fields prepended to every entry.
func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return &boundLogger{parent: m, with: fields}
}

// Named is a no-op for the mock; name scoping is not asserted in tests.
func (m *MockLogger) Named(string) logging.Logger {
	return m
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]LogMessage, len(m.Messages))
	copy(result, m.Messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = m.Messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logged := range m.Messages {
		if logged.Level == level && logged.Message == msg {
			return true
		}
	}
	return false
}

// boundLogger forwards entries to its parent MockLogger with bound fields.
type boundLogger struct {
	parent *MockLogger
	with   []logging.Field
}

func (b *boundLogger) forward(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(b.with)+len(fields))
	all = append(all, b.with...)
	all = append(all, fields...)
	b.parent.log(level, msg, all)
}

func (b *boundLogger) Debug(msg string, fields ...logging.Field) { b.forward("debug", msg, fields) }
func (b *boundLogger) Info(msg string, fields ...logging.Field)  { b.forward("info", msg, fields) }
func (b *boundLogger) Warn(msg string, fields ...logging.Field)  { b.forward("warn", msg, fields) }
func (b *boundLogger) Error(msg string, fields ...logging.Field) { b.forward("error", msg, fields) }
func (b *boundLogger) Fatal(msg string, fields ...logging.Field) { b.forward("fatal", msg, fields) }

func (b *boundLogger) With(fields ...logging.Field) logging.Logger {
	merged := make([]logging.Field, 0, len(b.with)+len(fields))
	merged = append(merged, b.with...)
	merged = append(merged, fields...)
	return &boundLogger{parent: b.parent, with: merged}
}

func (b *boundLogger) Named(string) logging.Logger { return b }

var (
	_ logging.Logger = (*MockLogger)(nil)
	_ logging.Logger = (*boundLogger)(nil)
)
