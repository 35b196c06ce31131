package mounts

import (
	"io"
)

type MountEntry struct {
	Device     string
	MountPoint string
	Type       string
	Options    string
}

type MountTable struct {
	Entries []*MountEntry
}

// GetMountTable reads the mount table of the current process.
func GetMountTable() (*MountTable, error) {
	return getMountTable()
}

// ReadMountTable parses a mount table in the /proc/mounts format.
func ReadMountTable(reader io.Reader) (*MountTable, error) {
	return readMountTable(reader)
}

// EntriesAtOrBelow returns the entries mounted at path or on a directory
// below path, in mount order.
func (mt *MountTable) EntriesAtOrBelow(path string) []*MountEntry {
	return mt.entriesAtOrBelow(path)
}
