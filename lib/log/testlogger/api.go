package testlogger

import (
	"time"
)

type sprintFunc func(v ...interface{}) string
type sprintfFunc func(format string, v ...interface{}) string

// Logger adapts a TestLogger to the log.DebugLogger interface.
type Logger struct {
	logger    TestLogger
	sprint    sprintFunc
	sprintf   sprintfFunc
	startTime time.Time
}

// TestLogger defines an interface for a type that can be used for logging by
// tests. The testing.T type from the standard library satisfies this interface.
type TestLogger interface {
	Fatal(v ...interface{})
	Log(v ...interface{})
}

// New will create a Logger from a TestLogger, so that stage code which
// expects a log.DebugLogger writes into the test output. Debug messages are
// always logged, regardless of level.
// Trailing newlines are removed before calling the TestLogger methods.
func New(logger TestLogger) *Logger {
	return newTestlogger(logger)
}

// NewWithTimestamps is the same as New, except that the time since creating
// the logger is prefixed to each message.
func NewWithTimestamps(logger TestLogger) *Logger {
	return newWithTimestamps(logger)
}

func (l *Logger) Debug(level uint8, v ...interface{}) {
	l.logger.Log(l.sprint(v...))
}

func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	l.logger.Log(l.sprintf(format, v...))
}

func (l *Logger) Debugln(level uint8, v ...interface{}) {
	l.logger.Log(l.sprint(v...))
}

func (l *Logger) Fatal(v ...interface{}) {
	l.logger.Fatal(l.sprint(v...))
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(l.sprintf(format, v...))
}

func (l *Logger) Fatalln(v ...interface{}) {
	l.logger.Fatal(l.sprint(v...))
}

func (l *Logger) Print(v ...interface{}) {
	l.logger.Log(l.sprint(v...))
}

func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Log(l.sprintf(format, v...))
}

func (l *Logger) Println(v ...interface{}) {
	l.logger.Log(l.sprint(v...))
}
