//go:build linux
// +build linux

package main

import (
	"github.com/stormos/installer/lib/log"
	"golang.org/x/sys/unix"
)

func rebootSubcommand(args []string, logger log.DebugLogger) error {
	return reboot(logger)
}

func reboot(logger log.DebugLogger) error {
	if *dryRun {
		logger.Println("dry run: skipping reboot")
		return nil
	}
	logger.Println("rebooting")
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
}
