// Package partition plans and applies the partition layout of the target
// device: one EFI system partition followed by one root partition using the
// remaining space.
package partition

import (
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

const (
	EfiSize     = 512 << 20
	EfiLabel    = "EFI"
	EfiTypeCode = "ef00"

	RootLabel    = "stormos"
	RootTypeCode = "8300"

	ReasonZapFailed        = "zap-failed"
	ReasonCreateFailedEfi  = "create-failed-efi"
	ReasonCreateFailedRoot = "create-failed-root"
)

// ConfirmationToken proves that the user confirmed destruction of the
// contents of a device. It can only be obtained from Confirm.
type ConfirmationToken struct {
	device string
}

// Error is returned when applying a plan fails. If Indeterminate is true the
// partition table was destroyed but the new partitions are incomplete.
type Error struct {
	Device        string
	Reason        string
	Indeterminate bool
	Err           error
}

// Confirm returns a token permitting destructive changes to device, or nil if
// confirmed is false.
func Confirm(device string, confirmed bool) *ConfirmationToken {
	return confirm(device, confirmed)
}

// Plan returns the partition layout for device. It has no side effects and
// always returns the same plan for the same device.
func Plan(device string) proto.PartitionPlan {
	return plan(device)
}

// Apply replaces the partition table of device with plan. This is
// irreversible and there is no rollback: partial failures are reported with
// Indeterminate set.
func Apply(table host.PartitionTable, device string, plan proto.PartitionPlan,
	token *ConfirmationToken, logger log.DebugLogger) error {
	return apply(table, device, plan, token, logger)
}
