package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/stormos/installer/lib/log"
)

func printCommands(writer io.Writer, commands []Command) {
	isSorted := sort.SliceIsSorted(commands, func(i, j int) bool {
		return commands[i].Command < commands[j].Command
	})
	if !isSorted {
		fmt.Fprintln(writer, "NOTE: COMMANDS ARE NOT SORTED!")
	}
	for _, command := range commands {
		if command.CmdFunc == nil {
			continue
		}
		if command.Args == "" {
			fmt.Fprintln(writer, " ", command.Command)
		} else {
			fmt.Fprintln(writer, " ", command.Command, command.Args)
		}
	}
}

func runCommands(commands []Command, args []string, printUsage func(),
	errorWriter io.Writer, logger log.DebugLogger) int {
	if len(args) < 1 {
		printUsage()
		return 2
	}
	numCommandArgs := len(args) - 1
	for _, command := range commands {
		if command.CmdFunc == nil || args[0] != command.Command {
			continue
		}
		if numCommandArgs < command.MinArgs ||
			(command.MaxArgs >= 0 && numCommandArgs > command.MaxArgs) {
			printUsage()
			return 2
		}
		if err := command.CmdFunc(args[1:], logger); err != nil {
			fmt.Fprintln(errorWriter, err)
			return 1
		}
		return 0
	}
	printUsage()
	return 2
}
