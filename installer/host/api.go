// Package host provides the capabilities the installer needs from the live
// system: running programmes (optionally inside a chroot), editing partition
// tables, making file-systems and mounting them.
// Each capability is a narrow interface so that stages can be exercised
// against the in-memory implementation in the fakehost package.
package host

import (
	"time"

	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

type Command struct {
	Name   string
	Args   []string
	Chroot string   // If set, the command is run with this root directory.
	Dir    string   // Working directory. Defaults to "/" inside a chroot.
	Env    []string // Added to the environment of the installer.
	Query  bool     // If true, the command is run even in dry-run mode.
}

type Runner interface {
	Run(cmd Command) ([]byte, error)
}

type PartitionTable interface {
	// Zap destroys all partition table entries on device.
	Zap(device string) error
	CreatePartition(device string, partition proto.PartitionSpec) error
	// Reread asks the kernel to re-read the partition table of device.
	Reread(device string) error
}

type Filesystem interface {
	WaitForDevice(device string, timeout time.Duration) error
	Format(device string, fsType proto.FileSystemType, label string) error
	UUID(device string) (string, error)
}

type MountTable interface {
	Mount(device, target string, fsType proto.FileSystemType) error
	// BindMount binds source and every mount below it onto target.
	BindMount(source, target string) error
	// Detach lazily unmounts target and every mount below it.
	Detach(target string) error
	Unmount(target string) error
	// IsMounted returns true if anything is mounted at or below path.
	IsMounted(path string) (bool, error)
}

type Capabilities interface {
	Runner
	PartitionTable
	Filesystem
	MountTable
}

// System implements Capabilities on the running system. Commands are run
// directly, without a shell. In dry-run mode changes are logged and skipped.
type System struct {
	dryRun bool
	logger log.DebugLogger
}

// ExitCode returns the exit status carried by err, or -1 if err does not
// carry one. A nil error yields 0.
func ExitCode(err error) int {
	return exitCode(err)
}

func New(dryRun bool, logger log.DebugLogger) *System {
	return &System{dryRun: dryRun, logger: logger}
}

func (s *System) DryRun() bool {
	return s.dryRun
}

func (s *System) Run(cmd Command) ([]byte, error) {
	return s.run(cmd)
}

func (s *System) Zap(device string) error {
	return s.zap(device)
}

func (s *System) CreatePartition(device string,
	partition proto.PartitionSpec) error {
	return s.createPartition(device, partition)
}

func (s *System) Reread(device string) error {
	return s.reread(device)
}

func (s *System) WaitForDevice(device string, timeout time.Duration) error {
	return s.waitForDevice(device, timeout)
}

func (s *System) Format(device string, fsType proto.FileSystemType,
	label string) error {
	return s.format(device, fsType, label)
}

func (s *System) UUID(device string) (string, error) {
	return s.uuid(device)
}

func (s *System) Mount(device, target string,
	fsType proto.FileSystemType) error {
	return s.mount(device, target, fsType)
}

func (s *System) BindMount(source, target string) error {
	return s.bindMount(source, target)
}

func (s *System) Detach(target string) error {
	return s.detach(target)
}

func (s *System) Unmount(target string) error {
	return s.unmount(target)
}

func (s *System) IsMounted(path string) (bool, error) {
	return s.isMounted(path)
}
