//go:build linux
// +build linux

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/installer/pipeline"
	"github.com/stormos/installer/lib/format"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
	"golang.org/x/term"
)

var errNotConfirmed = errors.New(
	"confirmation required: run interactively or use -yes")

func installSubcommand(args []string, logger log.DebugLogger) error {
	if err := installCmd(args[0], logger); err != nil {
		return fmt.Errorf("error installing: %s", err)
	}
	return nil
}

func installCmd(device string, logger log.DebugLogger) error {
	confirmed, err := confirm(device)
	if err != nil {
		return err
	}
	fileLogger, err := createLogger()
	if err != nil {
		return err
	}
	defer fileLogger.Close()
	logger = fileLogger
	if *dryRun {
		logger.Println("dry run: no changes will be made")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer cancel()
	installer := pipeline.New(pipeline.Config{
		Host:           host.New(*dryRun, logger),
		Logger:         logger,
		DryRun:         *dryRun,
		SourceRoot:     *sourceRoot,
		ExclusionsFile: *exclusionsFile,
		LogFilename:    fileLogger.Filename(),
		LogFlusher:     fileLogger,
	})
	status := &statusPage{}
	if *portNum > 0 {
		if err := startHttpServer(*portNum, status); err != nil {
			logger.Printf("cannot start server: %s\n", err)
		}
	}
	handle := installer.Start(ctx, proto.InstallRequest{
		Device:                device,
		Confirmed:             confirmed,
		ContinueOnModuleError: *continueOnModuleError,
		Hostname:              *hostname,
		ModuleDirectory:       *moduleDirectory,
		SettingsFile:          *settingsFile,
		StagingRoot:           *stagingRoot,
		Unmount:               *unmount,
	})
	for event := range handle.Events {
		status.addEvent(event)
		fmt.Println(event)
	}
	result := handle.Wait()
	status.setResult(result)
	for _, line := range result.Output {
		fmt.Fprintln(os.Stderr, line)
	}
	if !result.Success {
		if result.Indeterminate {
			fmt.Fprintf(os.Stderr,
				"partition table of %s may be partially written\n",
				result.Device)
		}
		return fmt.Errorf("%s: %s", result.Stage, result.Message)
	}
	fmt.Printf("installation %s completed in %s\n",
		result.RunId, format.Duration(result.Duration))
	if *rebootAfterInstall && !*dryRun {
		fileLogger.Flush()
		return reboot(logger)
	}
	return nil
}

// confirm returns true if the user agreed to erase device, either with the
// -yes flag or by answering the prompt on a terminal.
func confirm(device string) (bool, error) {
	if *yes || *dryRun {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errNotConfirmed
	}
	fmt.Printf("All data on %s will be erased. Type \"yes\" to continue: ",
		device)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(answer) == "yes", nil
}
