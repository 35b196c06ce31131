package fsstage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

func (e *FormatError) Error() string {
	return fmt.Sprintf("error formatting %s: %s", e.Device, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *MountError) Error() string {
	return fmt.Sprintf("error mounting %s on %s: %s",
		e.Device, e.Target, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

func formatAndMount(h Host, plan proto.PartitionPlan, stagingRoot string,
	logger log.DebugLogger) ([]proto.MountPoint, error) {
	for _, partition := range plan.Partitions {
		device := plan.PartitionDevice(partition)
		if err := h.WaitForDevice(device, DeviceTimeout); err != nil {
			return nil, &FormatError{Device: device, Err: err}
		}
	}
	for _, partition := range plan.Partitions {
		device := plan.PartitionDevice(partition)
		logger.Debugf(0, "making %s file-system on: %s\n",
			partition.FileSystemType, device)
		err := h.Format(device, partition.FileSystemType, partition.Label)
		if err != nil {
			return nil, &FormatError{Device: device, Err: err}
		}
	}
	mounts := mountPoints(plan, stagingRoot)
	if len(mounts) < 1 || mounts[0].Target != filepath.Clean(stagingRoot) {
		return nil, fmt.Errorf("plan for %s has no root partition",
			plan.Device)
	}
	var mounted []proto.MountPoint
	for _, mount := range mounts {
		err := h.Mount(mount.Device, mount.Target, mount.FileSystemType)
		if err != nil {
			return mounted, &MountError{
				Device: mount.Device,
				Target: mount.Target,
				Err:    err,
			}
		}
		logger.Debugf(1, "mounted %s on %s\n", mount.Device, mount.Target)
		mounted = append(mounted, mount)
	}
	return mounted, nil
}

// mountPoints returns the mounts for plan, ordered so that every mount point
// follows the mount point containing it.
func mountPoints(plan proto.PartitionPlan,
	stagingRoot string) []proto.MountPoint {
	mounts := make([]proto.MountPoint, 0, len(plan.Partitions))
	for _, partition := range plan.Partitions {
		if partition.MountPoint == "" {
			continue
		}
		mounts = append(mounts, proto.MountPoint{
			Device:         plan.PartitionDevice(partition),
			Target:         filepath.Join(stagingRoot, partition.MountPoint),
			FileSystemType: partition.FileSystemType,
		})
	}
	sort.SliceStable(mounts, func(left, right int) bool {
		return depth(mounts[left].Target) < depth(mounts[right].Target)
	})
	return mounts
}

func depth(path string) int {
	if path == "/" {
		return 0
	}
	return strings.Count(path, "/")
}

func unmount(mt host.MountTable, mounts []proto.MountPoint,
	logger log.DebugLogger) error {
	var firstError error
	for index := len(mounts) - 1; index >= 0; index-- {
		target := mounts[index].Target
		if err := mt.Unmount(target); err != nil {
			logger.Printf("error unmounting: %s: %s\n", target, err)
			if firstError == nil {
				firstError = fmt.Errorf("error unmounting: %s: %s", target, err)
			}
		}
	}
	return firstError
}
