package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stormos/installer/lib/fsutil"
	"golang.org/x/sys/unix"
)

// lockStagingRoot checks that nothing is mounted on the staging root and
// takes an exclusive lock on a file next to it, which is held until the
// returned function is called. Dry runs take no lock, since they change
// nothing and may run unprivileged.
func (s *runState) lockStagingRoot() (func(), error) {
	if mounted, err := s.config.Host.IsMounted(s.stagingRoot); err != nil {
		return nil, err
	} else if mounted {
		return nil, fmt.Errorf("%w: %s is mounted", ErrStagingRootBusy,
			s.stagingRoot)
	}
	if s.config.DryRun {
		return func() {}, nil
	}
	lockFilename := s.stagingRoot + ".lock"
	err := os.MkdirAll(filepath.Dir(lockFilename), fsutil.DirPerms)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(lockFilename, os.O_CREATE|os.O_RDWR,
		fsutil.PrivateFilePerms)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("%w: %s is locked", ErrStagingRootBusy,
				lockFilename)
		}
		return nil, fmt.Errorf("error locking: %s: %s", lockFilename, err)
	}
	return func() { file.Close() }, nil
}
