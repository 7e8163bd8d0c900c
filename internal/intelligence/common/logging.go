// Package common carries the infrastructure shared by the intelligence
// packages: the logging and metrics seams, the phrase matcher the extractor
// feeds token streams through, and a generic bounded-concurrency batch runner.
package common

// Logger is the structured logging seam for the intelligence layer,
// compatible with zap's sugared logger.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (n *noopLogger) Debug(string, ...interface{}) {}
func (n *noopLogger) Info(string, ...interface{})  {}
func (n *noopLogger) Warn(string, ...interface{})  {}
func (n *noopLogger) Error(string, ...interface{}) {}

// NewNoopLogger returns a Logger that discards all logs.
func NewNoopLogger() Logger {
	return &noopLogger{}
}
