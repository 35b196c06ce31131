package mounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	procMounts = "/proc/self/mounts"
)

func getMountTable() (*MountTable, error) {
	file, err := os.Open(procMounts)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readMountTable(file)
}

func readMountTable(reader io.Reader) (*MountTable, error) {
	scanner := bufio.NewScanner(reader)
	table := &MountTable{}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("only read %d values from %s",
				len(fields), scanner.Text())
		}
		table.Entries = append(table.Entries, &MountEntry{
			Device:     fields[0],
			MountPoint: unescape(fields[1]),
			Type:       fields[2],
			Options:    fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func (mt *MountTable) entriesAtOrBelow(path string) []*MountEntry {
	path = filepath.Clean(path)
	var entries []*MountEntry
	for _, entry := range mt.Entries {
		if isAtOrBelow(entry.MountPoint, path) {
			entries = append(entries, entry)
		}
	}
	return entries
}

func isAtOrBelow(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+"/")
}

// unescape decodes the octal escapes the kernel uses for whitespace in
// mount point names.
func unescape(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	replacer := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n",
		`\134`, `\`)
	return replacer.Replace(field)
}
