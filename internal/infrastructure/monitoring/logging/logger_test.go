package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedLogger returns a Logger wired to an in-memory observer core so
// tests can assert on emitted entries.
func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)
	return NewLoggerFromCore(core), observed
}

func TestNewLogger_BuildsForBothFormats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, "format %q", format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_RejectsUnopenablePath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/no/such/dir/out.log"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseLevel(tc.in), "input %q", tc.in)
	}
}

func TestLogger_EmitsFieldsWithTypedValues(t *testing.T) {
	l, observed := newObservedLogger(zapcore.DebugLevel)

	l.Info("topic scored",
		String("company", "acme"),
		Int("sample_size", 7),
		Float64("confidence", 0.83),
		Bool("significant", true),
		Duration("took", 12*time.Millisecond),
	)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "topic scored", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "acme", fields["company"])
	assert.Equal(t, int64(7), fields["sample_size"])
	assert.Equal(t, 0.83, fields["confidence"])
	assert.Equal(t, true, fields["significant"])
}

func TestLogger_ErrFieldUsesCanonicalKey(t *testing.T) {
	l, observed := newObservedLogger(zapcore.DebugLevel)

	l.Warn("record skipped", Err(errors.New("no company")))
	l.Warn("nothing wrong", Err(nil))

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "no company", entries[0].ContextMap()["error"])
	assert.Equal(t, "<nil>", entries[1].ContextMap()["error"])
}

func TestLogger_WithAddsPersistentFields(t *testing.T) {
	l, observed := newObservedLogger(zapcore.DebugLevel)

	child := l.With(String("run_id", "run-1"))
	child.Info("first")
	child.Info("second")

	for _, entry := range observed.All() {
		assert.Equal(t, "run-1", entry.ContextMap()["run_id"])
	}
	require.Equal(t, 2, observed.Len())
}

func TestLogger_NamedAppendsName(t *testing.T) {
	l, observed := newObservedLogger(zapcore.DebugLevel)

	l.Named("engine").Named("extractor").Info("hello")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "engine.extractor", entries[0].LoggerName)
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, observed := newObservedLogger(zapcore.WarnLevel)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	assert.Equal(t, 2, observed.Len())
}

func TestNopLogger_AllMethodsAreSafe(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg", Int("n", 1))
	l.Warn("msg")
	l.Error("msg", Err(errors.New("x")))
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NotNil(t, l.Named("sub"))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newObservedLogger(zapcore.InfoLevel)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default(), "SetDefault(nil) must be ignored")
}
