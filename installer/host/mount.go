package host

import (
	"os"

	"github.com/stormos/installer/lib/fsutil"
	"github.com/stormos/installer/lib/fsutil/mounts"
	proto "github.com/stormos/installer/proto/installer"
	"golang.org/x/sys/unix"
)

// Submounts such as /dev/pts and /sys/firmware/efi/efivars must be visible
// inside the chroot.
const bindMountFlags = unix.MS_BIND | unix.MS_REC

func (s *System) bindMount(source, target string) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping bind mount of %s on %s\n",
			source, target)
		return nil
	}
	s.logger.Debugf(1, "bind mount %s on %s\n", source, target)
	if err := os.MkdirAll(target, fsutil.DirPerms); err != nil {
		return err
	}
	return unix.Mount(source, target, "", bindMountFlags, "")
}

func (s *System) detach(target string) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping detach of %s\n", target)
		return nil
	}
	if err := unix.Unmount(target, unix.MNT_DETACH); err != nil {
		return err
	}
	s.logger.Debugf(2, "detached: %s\n", target)
	return nil
}

func (s *System) isMounted(path string) (bool, error) {
	table, err := mounts.GetMountTable()
	if err != nil {
		return false, err
	}
	return len(table.EntriesAtOrBelow(path)) > 0, nil
}

func (s *System) mount(device, target string,
	fsType proto.FileSystemType) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping mount of %s on %s type=%s\n",
			device, target, fsType)
		return nil
	}
	s.logger.Debugf(0, "mount %s on %s type=%s\n", device, target, fsType)
	if err := os.MkdirAll(target, fsutil.DirPerms); err != nil {
		return err
	}
	return unix.Mount(device, target, fsType.String(), 0, "")
}

func (s *System) unmount(target string) error {
	if s.dryRun {
		s.logger.Debugf(0, "dry run: skipping unmount of %s\n", target)
		return nil
	}
	if err := unix.Unmount(target, 0); err != nil {
		return err
	}
	s.logger.Debugf(2, "unmounted: %s\n", target)
	return nil
}
