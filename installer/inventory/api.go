// Package inventory enumerates the block devices which may be offered as
// installation targets.
package inventory

import (
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

// QueryError is returned when the block devices cannot be enumerated. Callers
// should treat it as "no devices offered".
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return "error querying block devices: " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// List returns the writable whole disks, in the order the kernel enumerates
// them. It has no side effects.
func List(runner host.Runner, logger log.DebugLogger) (
	[]proto.BlockDevice, error) {
	return list(runner, logger)
}

// Find returns the device in devices with the specified path, or false.
func Find(devices []proto.BlockDevice, path string) (proto.BlockDevice, bool) {
	return find(devices, path)
}
