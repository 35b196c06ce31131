// Package pipeline runs an installation: device inventory, partitioning,
// file-systems, tree copy, finalization and modules, strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

const DefaultStagingRoot = "/mnt/stormos"

var (
	ErrNotConfirmed    = errors.New("installation not confirmed")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrStagingRootBusy = errors.New("staging root is in use")
	ErrDeviceBusy      = errors.New("installation already running on device")
)

type flusher interface {
	Flush() error
}

type Config struct {
	Host       host.Capabilities
	Logger     log.DebugLogger
	DryRun     bool
	SourceRoot string   // Root of the live tree. Defaults to "/".
	Exclusions []string // Defaults to copier.DefaultExclusions.
	// ExclusionsFile lists further exclusions, one per line.
	ExclusionsFile string
	LogFilename    string  // If set, copied into the installed system.
	LogFlusher     flusher // Flushed before LogFilename is copied.
}

type Installer struct {
	config      Config
	mutex       sync.Mutex
	busyDevices map[string]struct{}
}

// Handle tracks an installation started with Start.
type Handle struct {
	Events <-chan proto.StageEvent // Closed when the installation ends.
	done   chan struct{}
	result *proto.InstallResult
}

func New(config Config) *Installer {
	return newInstaller(config)
}

// Run performs the installation described by request and returns the
// terminal result. Each stage reports an event through events (which may be
// nil). Nothing destructive happens unless request.Confirmed is true and ctx
// is not done. Once partitioning starts, cancellation is ignored and the
// installation runs to completion or to its first failure.
func (i *Installer) Run(ctx context.Context, request proto.InstallRequest,
	events func(proto.StageEvent)) *proto.InstallResult {
	return i.run(ctx, request, events)
}

// Start runs the installation in a goroutine.
func (i *Installer) Start(ctx context.Context,
	request proto.InstallRequest) *Handle {
	return i.start(ctx, request)
}

// Wait waits for the installation to end and returns the result.
func (h *Handle) Wait() *proto.InstallResult {
	<-h.done
	return h.result
}
