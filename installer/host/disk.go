package host

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stormos/installer/lib/format"
	"github.com/stormos/installer/lib/fsutil"
	proto "github.com/stormos/installer/proto/installer"
)

func formatCommand(device string, fsType proto.FileSystemType,
	label string) (Command, error) {
	switch fsType {
	case proto.FileSystemTypeExt4:
		return Command{
			Name: "mkfs.ext4",
			Args: []string{"-F", "-L", label, device},
		}, nil
	case proto.FileSystemTypeVfat:
		return Command{
			Name: "mkfs.fat",
			Args: []string{"-F", "32", "-n", label, device},
		}, nil
	}
	return Command{}, fmt.Errorf("unsupported file-system type: %d (%s)",
		fsType, fsType)
}

func sgdiskCreateArgs(device string, partition proto.PartitionSpec) []string {
	var size string
	switch {
	case partition.SizeBytes == 0:
		size = "0"
	case partition.SizeBytes&(1<<20-1) == 0:
		size = fmt.Sprintf("+%dM", partition.SizeBytes>>20)
	default:
		size = fmt.Sprintf("+%dK", (partition.SizeBytes+1023)>>10)
	}
	index := partition.Index
	args := []string{fmt.Sprintf("--new=%d:0:%s", index, size)}
	if partition.TypeCode != "" {
		args = append(args,
			fmt.Sprintf("--typecode=%d:%s", index, partition.TypeCode))
	}
	if partition.Label != "" {
		args = append(args,
			fmt.Sprintf("--change-name=%d:%s", index, partition.Label))
	}
	return append(args, device)
}

func (s *System) createPartition(device string,
	partition proto.PartitionSpec) error {
	_, err := s.run(Command{
		Name: "sgdisk",
		Args: sgdiskCreateArgs(device, partition),
	})
	return err
}

func (s *System) format(device string, fsType proto.FileSystemType,
	label string) error {
	cmd, err := formatCommand(device, fsType, label)
	if err != nil {
		return err
	}
	startTime := time.Now()
	if _, err := s.run(cmd); err != nil {
		return err
	}
	if !s.dryRun {
		s.logger.Printf("made %s file-system on %s in %s\n",
			fsType, device, format.Duration(time.Since(startTime)))
	}
	return nil
}

func (s *System) reread(device string) error {
	_, err := s.run(Command{Name: "blockdev", Args: []string{"--rereadpt", device}})
	return err
}

func (s *System) uuid(device string) (string, error) {
	if s.dryRun {
		id := uuid.NewString()
		s.logger.Debugf(0, "dry run: using UUID: %s for: %s\n", id, device)
		return id, nil
	}
	output, err := s.run(Command{
		Name:  "blkid",
		Args:  []string{"-s", "UUID", "-o", "value", device},
		Query: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (s *System) waitForDevice(device string, timeout time.Duration) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: not waiting for: %s\n", device)
		return nil
	}
	startTime := time.Now()
	numIterations, numOpened, err := fsutil.WaitForBlockAvailable(device,
		timeout)
	if err != nil {
		return err
	}
	if numIterations > 0 {
		s.logger.Debugf(0, "%s available after %d iterations, %d opens, %s\n",
			device, numIterations, numOpened,
			format.Duration(time.Since(startTime)))
	}
	return nil
}

func (s *System) zap(device string) error {
	_, err := s.run(Command{Name: "sgdisk", Args: []string{"--zap-all", device}})
	return err
}
