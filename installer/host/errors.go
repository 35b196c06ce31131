package host

import (
	"fmt"
	"strings"
)

// RunError is returned when a command fails to start or exits with a
// non-zero status.
type RunError struct {
	Command string
	Err     error
	Output  []byte
}

func (e *RunError) Error() string {
	output := strings.TrimSpace(string(e.Output))
	if output == "" {
		return fmt.Sprintf("error running: %s: %s", e.Command, e.Err)
	}
	return fmt.Sprintf("error running: %s: %s, output: %s",
		e.Command, e.Err, output)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
