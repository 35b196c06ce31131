package fsutil

import (
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const (
	DirPerms = unix.S_IRWXU | unix.S_IRGRP | unix.S_IXGRP |
		unix.S_IROTH | unix.S_IXOTH
	PrivateDirPerms  = unix.S_IRWXU
	PrivateFilePerms = unix.S_IRUSR | unix.S_IWUSR
	PublicFilePerms  = PrivateFilePerms | unix.S_IRGRP | unix.S_IROTH
)

// CopyFile will create a new file, copies data from the sourceFilename to a
// tmpfile and then atomically renames the tmpfile to destFilename, ensuring
// that the file never has incomplete data.
// If there are any errors, then destFilename is unchanged.
// CopyFile is not safe to call concurrently for the same file.
func CopyFile(destFilename, sourceFilename string, mode os.FileMode) error {
	return copyFile(destFilename, sourceFilename, mode)
}

// CopyToFile will create a new file, write all bytes from reader to a
// tmpfile and then atomically renames the tmpfile to destFilename, ensuring
// that the file never has incomplete data.
// If there are any errors, then destFilename is unchanged.
func CopyToFile(destFilename string, perm os.FileMode,
	reader io.Reader) error {
	return copyToFile(destFilename, perm, reader)
}

// LoadLines will open a file and read lines from it. Comment lines (i.e. lines
// beginning with '#') and empty lines are skipped.
func LoadLines(filename string) ([]string, error) {
	return loadLines(filename)
}

// WaitForBlockAvailable will wait for the specified block device node to
// become available, or return an error on timeout. The timeout is limited to
// one hour. The number of iterations and the number of successful Open(2) calls
// is returned.
// Partitions are created asynchronously by the kernel and udev after the
// partition table is written, so there is a delay from creation to
// availability. The parent directory is watched so that the wait ends as soon
// as the node appears.
func WaitForBlockAvailable(pathname string,
	timeout time.Duration) (uint, uint, error) {
	return waitForBlockAvailable(pathname, timeout)
}

// WriteString will atomically replace the content of filename with data.
func WriteString(filename string, perm os.FileMode, data string) error {
	return writeString(filename, perm, data)
}
