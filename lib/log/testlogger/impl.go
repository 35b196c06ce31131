package testlogger

import (
	"fmt"
	"strings"
	"time"
)

func plainSprint(v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprint(v...), "\n")
}

func plainSprintf(format string, v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
}

func newTestlogger(logger TestLogger) *Logger {
	return &Logger{
		logger:  logger,
		sprint:  plainSprint,
		sprintf: plainSprintf,
	}
}

func newWithTimestamps(logger TestLogger) *Logger {
	l := &Logger{
		logger:    logger,
		startTime: time.Now(),
	}
	l.sprint = func(v ...interface{}) string {
		return l.stamp(plainSprint(v...))
	}
	l.sprintf = func(format string, v ...interface{}) string {
		return l.stamp(plainSprintf(format, v...))
	}
	return l
}

func (l *Logger) stamp(message string) string {
	return fmt.Sprintf("[%09.6fs] %s",
		time.Since(l.startTime).Seconds(), message)
}
