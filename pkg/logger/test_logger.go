package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages so tests can assert on them.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		zerolog:  &nopLogger,
	}
}

// record captures one message; fields already merged by the caller.
func (l *TestLogger) record(level, msg string, fields map[string]interface{}, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})

	fmt.Fprintf(&l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(&l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(&l.buffer, " error=%v", err)
	}
	fmt.Fprintln(&l.buffer)
}

// GetMessages returns a copy of all captured log messages.
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level.
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var filtered []LogMessage
	for _, msg := range l.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged.
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range l.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error-level message was logged.
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear drops all captured messages.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all captured messages as one string.
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// The Logger interface is implemented by delegating to a context that
// carries accumulated fields and an optional error.

func (l *TestLogger) ctx() *testContext { return &testContext{base: l} }

func (l *TestLogger) Debug(msg string) { l.ctx().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.ctx().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.ctx().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.ctx().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.ctx().Fatal(msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.ctx().WithField(key, value)
}
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.ctx().WithFields(fields)
}
func (l *TestLogger) WithError(err error) Logger             { return l.ctx().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.ctx().DebugWithFields(msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.ctx().InfoWithFields(msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.ctx().WarnWithFields(msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.ctx().ErrorWithFields(msg, fields)
}
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.ctx().FatalWithFields(msg, fields)
}

func (l *TestLogger) GetZerolog() *zerolog.Logger { return l.zerolog }

// testContext carries fields and an error accumulated through With* calls.
type testContext struct {
	base   *TestLogger
	fields map[string]interface{}
	err    error
}

func (c *testContext) merged(extra map[string]interface{}) map[string]interface{} {
	if len(c.fields) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (c *testContext) Debug(msg string) { c.base.record("DEBUG", msg, c.merged(nil), c.err) }
func (c *testContext) Info(msg string)  { c.base.record("INFO", msg, c.merged(nil), c.err) }
func (c *testContext) Warn(msg string)  { c.base.record("WARN", msg, c.merged(nil), c.err) }
func (c *testContext) Error(msg string) { c.base.record("ERROR", msg, c.merged(nil), c.err) }
func (c *testContext) Fatal(msg string) { c.base.record("FATAL", msg, c.merged(nil), c.err) }

func (c *testContext) WithField(key string, value interface{}) Logger {
	return &testContext{base: c.base, fields: c.merged(map[string]interface{}{key: value}), err: c.err}
}

func (c *testContext) WithFields(fields map[string]interface{}) Logger {
	return &testContext{base: c.base, fields: c.merged(fields), err: c.err}
}

func (c *testContext) WithError(err error) Logger {
	return &testContext{base: c.base, fields: c.fields, err: err}
}

func (c *testContext) WithContext(ctx context.Context) Logger { return c }

func (c *testContext) DebugWithFields(msg string, fields map[string]interface{}) {
	c.base.record("DEBUG", msg, c.merged(fields), c.err)
}
func (c *testContext) InfoWithFields(msg string, fields map[string]interface{}) {
	c.base.record("INFO", msg, c.merged(fields), c.err)
}
func (c *testContext) WarnWithFields(msg string, fields map[string]interface{}) {
	c.base.record("WARN", msg, c.merged(fields), c.err)
}
func (c *testContext) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.base.record("ERROR", msg, c.merged(fields), c.err)
}
func (c *testContext) FatalWithFields(msg string, fields map[string]interface{}) {
	c.base.record("FATAL", msg, c.merged(fields), c.err)
}

func (c *testContext) GetZerolog() *zerolog.Logger { return c.base.zerolog }

// NewNopLogger creates a no-operation logger for tests that don't need to
// assert on log output.
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
