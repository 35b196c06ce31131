package debuglogger

import (
	"log"
)

// Logger wraps a standard library *log.Logger and adds leveled debug
// logging. Debug messages with a level greater than the configured level are
// discarded. The default level is -1, which discards all debug messages.
type Logger struct {
	level  int16
	logger *log.Logger
}

// New will create a Logger which writes to the specified standard logger.
func New(logger *log.Logger) *Logger {
	return &Logger{level: -1, logger: logger}
}

// GetLevel returns the current debug level.
func (l *Logger) GetLevel() int16 {
	return l.level
}

// SetLevel sets the debug level. Supported range: -1 to 32767.
func (l *Logger) SetLevel(maxLevel int16) {
	if maxLevel < -1 {
		maxLevel = -1
	}
	l.level = maxLevel
}

func (l *Logger) Debug(level uint8, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Print(v...)
	}
}

func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Printf(format, v...)
	}
}

func (l *Logger) Debugln(level uint8, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Println(v...)
	}
}

func (l *Logger) Fatal(v ...interface{}) {
	l.logger.Fatal(v...)
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(format, v...)
}

func (l *Logger) Fatalln(v ...interface{}) {
	l.logger.Fatalln(v...)
}

func (l *Logger) Print(v ...interface{}) {
	l.logger.Print(v...)
}

func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *Logger) Println(v ...interface{}) {
	l.logger.Println(v...)
}

func (l *Logger) enabled(level uint8) bool {
	return int16(level) <= l.level
}
