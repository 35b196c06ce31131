// Package finalize configures a freshly copied system so that it boots on
// its own: host name, file-system table, boot loader and services.
package finalize

import (
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

const (
	StepHostname          = "hostname"
	StepFstab             = "fstab"
	StepBindMounts        = "bind-mounts"
	StepBootloaderInstall = "bootloader-install"
	StepMenuGeneration    = "menu-generation"
	StepServiceEnable     = "service-enable"

	DefaultHostname     = "stormos"
	DefaultBootloaderId = "StormOS"
)

var (
	// BindMounts are bound from the live system into the staging root so
	// that chroot-scoped commands see devices and kernel interfaces.
	BindMounts      = []string{"/dev", "/proc", "/sys", "/run"}
	DefaultServices = []string{"NetworkManager"}
)

type Host interface {
	host.Runner
	host.Filesystem
	host.MountTable
}

type Error struct {
	Step string
	Err  error
}

type Finalizer struct {
	Host         Host
	Logger       log.DebugLogger
	DryRun       bool
	Hostname     string   // Defaults to DefaultHostname.
	BootloaderId string   // Defaults to DefaultBootloaderId.
	Services     []string // Defaults to DefaultServices.
}

// Finalize runs each step in order and stops at the first failure. Bind
// mounts made are left in place; release them with ReleaseBindMounts.
func (f *Finalizer) Finalize(stagingRoot string,
	mounts []proto.MountPoint) error {
	return f.finalize(stagingRoot, mounts)
}

// FstabEntries returns the file-system table for mounts, keyed by the UUIDs
// of the devices, root first.
func (f *Finalizer) FstabEntries(stagingRoot string,
	mounts []proto.MountPoint) ([]string, error) {
	return f.fstabEntries(stagingRoot, mounts)
}

// ReleaseBindMounts unmounts the bind mounts below stagingRoot which are
// mounted, in reverse order.
func ReleaseBindMounts(mt host.MountTable, stagingRoot string,
	logger log.DebugLogger) error {
	return releaseBindMounts(mt, stagingRoot, logger)
}
