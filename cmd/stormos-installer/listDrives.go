//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/installer/inventory"
	"github.com/stormos/installer/lib/log"
)

func listDrivesSubcommand(args []string, logger log.DebugLogger) error {
	if err := listDrives(logger); err != nil {
		return fmt.Errorf("error listing drives: %s", err)
	}
	return nil
}

func listDrives(logger log.DebugLogger) error {
	devices, err := inventory.List(host.New(*dryRun, logger), logger)
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "DEVICE\tSIZE\tTRANSPORT\tMODEL")
	for _, device := range devices {
		transport := device.Transport
		if device.Removable {
			transport += " (removable)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			device.Path, device.HumanSize, transport, device.Model)
	}
	return writer.Flush()
}
