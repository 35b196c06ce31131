// Package fsstage makes the file-systems of a freshly partitioned device and
// mounts them under the staging root.
package fsstage

import (
	"time"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

// DeviceTimeout bounds the wait for a partition device node to appear.
var DeviceTimeout = 10 * time.Second

type Host interface {
	host.Filesystem
	host.MountTable
}

type FormatError struct {
	Device string
	Err    error
}

type MountError struct {
	Device string
	Target string
	Err    error
}

// FormatAndMount formats every partition in plan and then mounts them,
// root first, below stagingRoot. It stops at the first failure: a partition
// which failed to format is never mounted and no mounts are made if any
// format failed. The mounts made are returned even on failure.
func FormatAndMount(h Host, plan proto.PartitionPlan, stagingRoot string,
	logger log.DebugLogger) ([]proto.MountPoint, error) {
	return formatAndMount(h, plan, stagingRoot, logger)
}

// Unmount unmounts mounts in reverse order. All are attempted; the first
// error is returned.
func Unmount(mt host.MountTable, mounts []proto.MountPoint,
	logger log.DebugLogger) error {
	return unmount(mt, mounts, logger)
}
