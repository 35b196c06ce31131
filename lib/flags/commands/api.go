package commands

import (
	"io"

	"github.com/stormos/installer/lib/log"
)

type CommandFunc func([]string, log.DebugLogger) error

type Command struct {
	Command string
	Args    string
	MinArgs int
	MaxArgs int // Negative means unlimited.
	CmdFunc CommandFunc
}

func PrintCommands(writer io.Writer, commands []Command) {
	printCommands(writer, commands)
}

// RunCommands runs the command named by args[0] and returns a process exit
// code: 0 on success, 1 if the command failed and 2 for usage errors.
func RunCommands(commands []Command, args []string, printUsage func(),
	errorWriter io.Writer, logger log.DebugLogger) int {
	return runCommands(commands, args, printUsage, errorWriter, logger)
}
