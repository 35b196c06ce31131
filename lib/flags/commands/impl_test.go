package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stormos/installer/lib/log"
	"github.com/stormos/installer/lib/log/testlogger"
)

func TestRunCommands(t *testing.T) {
	var gotArgs []string
	commands := []Command{
		{"fail", "", 0, 0, func([]string, log.DebugLogger) error {
			return errors.New("failed on purpose")
		}},
		{"plan", "device", 1, 1, func(args []string, _ log.DebugLogger) error {
			gotArgs = args
			return nil
		}},
	}
	logger := testlogger.New(t)
	var usageCount int
	usage := func() { usageCount++ }
	errorOutput := &bytes.Buffer{}
	if code := RunCommands(commands, []string{"plan", "/dev/sdX"}, usage,
		errorOutput, logger); code != 0 {
		t.Errorf("plan exit code: %d", code)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "/dev/sdX" {
		t.Errorf("plan args: %v", gotArgs)
	}
	if code := RunCommands(commands, []string{"plan"}, usage, errorOutput,
		logger); code != 2 {
		t.Errorf("missing argument exit code: %d", code)
	}
	if code := RunCommands(commands, []string{"fail"}, usage, errorOutput,
		logger); code != 1 {
		t.Errorf("fail exit code: %d", code)
	}
	if !strings.Contains(errorOutput.String(), "failed on purpose") {
		t.Errorf("error not printed: %q", errorOutput.String())
	}
	if code := RunCommands(commands, []string{"unknown"}, usage, errorOutput,
		logger); code != 2 {
		t.Errorf("unknown command exit code: %d", code)
	}
	if usageCount != 2 {
		t.Errorf("usage printed %d times, expected 2", usageCount)
	}
}
