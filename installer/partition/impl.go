package partition

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

var ErrNotConfirmed = errors.New("destructive operation not confirmed")

func confirm(device string, confirmed bool) *ConfirmationToken {
	if !confirmed {
		return nil
	}
	return &ConfirmationToken{device: filepath.Clean(device)}
}

func plan(device string) proto.PartitionPlan {
	return proto.PartitionPlan{
		Device: device,
		Partitions: []proto.PartitionSpec{
			{
				Index:          1,
				SizeBytes:      EfiSize,
				FileSystemType: proto.FileSystemTypeVfat,
				Label:          EfiLabel,
				MountPoint:     "/boot",
				TypeCode:       EfiTypeCode,
			},
			{
				Index:          2,
				FileSystemType: proto.FileSystemTypeExt4,
				Label:          RootLabel,
				MountPoint:     "/",
				TypeCode:       RootTypeCode,
			},
		},
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("error partitioning %s: %s: %s",
		e.Device, e.Reason, e.Err)
	if e.Indeterminate {
		msg += " (partition table is in an indeterminate state)"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func apply(table host.PartitionTable, device string, plan proto.PartitionPlan,
	token *ConfirmationToken, logger log.DebugLogger) error {
	if token == nil || token.device != filepath.Clean(device) {
		return ErrNotConfirmed
	}
	if plan.Device != device {
		return fmt.Errorf("plan is for: %s, not: %s", plan.Device, device)
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	logger.Printf("destroying partition table on: %s\n", device)
	if err := table.Zap(device); err != nil {
		return &Error{Device: device, Reason: ReasonZapFailed, Err: err}
	}
	for _, partition := range plan.Partitions {
		logger.Debugf(0, "creating partition: %s\n",
			plan.PartitionDevice(partition))
		if err := table.CreatePartition(device, partition); err != nil {
			reason := ReasonCreateFailedRoot
			if partition.TypeCode == EfiTypeCode {
				reason = ReasonCreateFailedEfi
			}
			return &Error{
				Device:        device,
				Reason:        reason,
				Indeterminate: true,
				Err:           err,
			}
		}
	}
	if err := table.Reread(device); err != nil {
		logger.Printf("error re-reading partition table on %s: %s\n",
			device, err)
	}
	return nil
}
