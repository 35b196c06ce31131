//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/installer/modules"
	"github.com/stormos/installer/lib/log"
)

func runModulesSubcommand(args []string, logger log.DebugLogger) error {
	if err := runModules(logger); err != nil {
		return fmt.Errorf("error running modules: %s", err)
	}
	return nil
}

func runModules(logger log.DebugLogger) error {
	scanned, err := modules.Scan(*moduleDirectory)
	if err != nil {
		return err
	}
	runner := &modules.Runner{
		Host:            host.New(*dryRun, logger),
		Logger:          logger,
		ContinueOnError: *continueOnModuleError,
	}
	results, err := runner.Run(scanned, *stagingRoot)
	for _, result := range results {
		status := "ok"
		switch {
		case result.Skipped:
			status = "skipped: " + result.Error
		case result.Error != "":
			status = fmt.Sprintf("failed (exit %d)", result.ExitStatus)
		case !result.Ran:
			status = "applied"
		}
		fmt.Printf("%-32s %-12s %s\n", result.Name, result.Kind, status)
	}
	return err
}
