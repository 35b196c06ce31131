//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/stormos/installer/installer/settings"
	"github.com/stormos/installer/lib/log"
)

func writeDefaultSettingsSubcommand(args []string,
	logger log.DebugLogger) error {
	written, err := settings.WriteDefault(*settingsFile)
	if err != nil {
		return fmt.Errorf("error writing default settings: %s", err)
	}
	if written {
		logger.Printf("wrote default settings to: %s\n", *settingsFile)
	} else {
		logger.Printf("settings file exists: %s\n", *settingsFile)
	}
	return nil
}
