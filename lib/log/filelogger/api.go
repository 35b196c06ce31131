package filelogger

import (
	"bufio"
	"os"

	"github.com/stormos/installer/lib/log/debuglogger"
)

// Logger is a debug logger which writes to a file, and optionally also to
// standard error. The file is buffered; call Flush before copying it.
type Logger struct {
	*debuglogger.Logger
	file     *os.File
	filename string
	writer   *bufio.Writer
}

type Options struct {
	AlsoLogToStderr bool
	DebugLevel      int16 // Supported range: -1 to 32767.
	Flags           int
}

// New will create a *Logger with the specified filename and options. Any
// missing parent directories are created.
func New(filename string, options Options) (*Logger, error) {
	return newLogger(filename, options)
}

func (l *Logger) Close() error {
	return l.close()
}

// Filename returns the name of the file being logged to.
func (l *Logger) Filename() string {
	return l.filename
}

func (l *Logger) Flush() error {
	return l.writer.Flush()
}
