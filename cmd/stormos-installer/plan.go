//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/installer/inventory"
	"github.com/stormos/installer/installer/partition"
	"github.com/stormos/installer/lib/log"
)

func planSubcommand(args []string, logger log.DebugLogger) error {
	if err := printPlan(args[0], logger); err != nil {
		return fmt.Errorf("error planning: %s", err)
	}
	return nil
}

func printPlan(devicePath string, logger log.DebugLogger) error {
	devices, err := inventory.List(host.New(true, logger), logger)
	if err != nil {
		return err
	}
	device, ok := inventory.Find(devices, devicePath)
	if !ok {
		return fmt.Errorf("%s is not an installable disk", devicePath)
	}
	fmt.Printf("%s: %s %s\n", device.Path, device.HumanSize, device.Model)
	fmt.Print(partition.Plan(device.Path))
	return nil
}
