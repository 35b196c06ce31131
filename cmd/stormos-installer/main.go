//go:build linux
// +build linux

package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"github.com/Cloud-Foundations/tricorder/go/tricorder"
	"github.com/stormos/installer/installer/pipeline"
	"github.com/stormos/installer/installer/settings"
	"github.com/stormos/installer/lib/flags/commands"
	"github.com/stormos/installer/lib/flags/loadflags"
	"github.com/stormos/installer/lib/log/debuglogger"
	"github.com/stormos/installer/lib/log/filelogger"
)

const logfile = "/var/log/installer/latest"

var (
	continueOnModuleError = flag.Bool("continueOnModuleError", false,
		"If true, run the remaining modules after a module fails")
	dryRun = flag.Bool("dryRun", ifUnprivileged(),
		"If true, do not make changes")
	exclusionsFile = flag.String("exclusionsFile", "",
		"Pathname of file listing further paths not to copy")
	hostname        = flag.String("hostname", "", "Hostname of the new system")
	logDebugLevel   = flag.Int("logDebugLevel", -1, "Debug log level")
	moduleDirectory = flag.String("moduleDirectory",
		"/etc/stormos-installer/modules",
		"Directory containing post-install modules")
	portNum = flag.Uint("portNum", 0,
		"Port number to listen on for HTTP status (0: do not listen)")
	rebootAfterInstall = flag.Bool("reboot", false,
		"If true, reboot after a successful installation")
	settingsFile = flag.String("settingsFile", settings.DefaultFilename,
		"Pathname of the installation settings file")
	sourceRoot = flag.String("sourceRoot", "/",
		"Root of the live tree to copy")
	stagingRoot = flag.String("stagingRoot", pipeline.DefaultStagingRoot,
		"Mount point for the new root file-system")
	unmount = flag.Bool("unmount", false,
		"If true, unmount the new file-systems when done")
	yes = flag.Bool("yes", false,
		"If true, do not ask for confirmation before erasing the device")
)

func printUsage() {
	w := flag.CommandLine.Output()
	fmt.Fprintln(w,
		"Usage: stormos-installer [flags...] command [args...]")
	fmt.Fprintln(w, "Common flags:")
	flag.PrintDefaults()
	fmt.Fprintln(w, "Commands:")
	commands.PrintCommands(w, subcommands)
}

var subcommands = []commands.Command{
	{Command: "install", Args: "device", MinArgs: 1, MaxArgs: 1, CmdFunc: installSubcommand},
	{Command: "list-drives", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: listDrivesSubcommand},
	{Command: "plan", Args: "device", MinArgs: 1, MaxArgs: 1, CmdFunc: planSubcommand},
	{Command: "reboot", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: rebootSubcommand},
	{Command: "run-modules", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: runModulesSubcommand},
	{Command: "show-result", Args: "[root-dir]", MinArgs: 0, MaxArgs: 1, CmdFunc: showResultSubcommand},
	{Command: "write-default-settings", Args: "", MinArgs: 0, MaxArgs: 0, CmdFunc: writeDefaultSettingsSubcommand},
}

func createLogger() (*filelogger.Logger, error) {
	return filelogger.New(logfile, filelogger.Options{
		AlsoLogToStderr: true,
		DebugLevel:      int16(*logDebugLevel),
		Flags:           stdlog.LstdFlags,
	})
}

func ifUnprivileged() bool {
	if os.Geteuid() != 0 {
		return true
	}
	return false
}

func main() {
	if err := loadflags.LoadForDaemon("stormos-installer"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tricorder.RegisterFlags()
	flag.Usage = printUsage
	flag.Parse()
	logger := debuglogger.New(stdlog.New(os.Stderr, "", 0))
	logger.SetLevel(int16(*logDebugLevel))
	os.Exit(commands.RunCommands(subcommands, flag.Args(), printUsage,
		os.Stderr, logger))
}
