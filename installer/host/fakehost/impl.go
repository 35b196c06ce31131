package fakehost

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/fsutil"
	proto "github.com/stormos/installer/proto/installer"
)

func isAtOrBelow(path, dir string) bool {
	if dir == "/" || path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+"/")
}

func (h *Host) bindMount(source, target string) error {
	if err := h.record("bind " + source + " " + target); err != nil {
		return err
	}
	if err := os.MkdirAll(target, fsutil.DirPerms); err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.mounted[filepath.Clean(target)] = source
	return nil
}

func (h *Host) createPartition(device string,
	partition proto.PartitionSpec) error {
	err := h.record(fmt.Sprintf("create %s %d %s %d %s",
		device, partition.Index, partition.TypeCode, partition.SizeBytes,
		partition.Label))
	return err
}

func (h *Host) fail(prefix string, err error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.failures = append(h.failures, failure{prefix, err})
}

func (h *Host) format(device string, fsType proto.FileSystemType,
	label string) error {
	err := h.record(fmt.Sprintf("format %s %s %s", device, fsType, label))
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.formatted[device] = fsType
	return nil
}

func (h *Host) getCalls() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	calls := make([]string, len(h.calls))
	copy(calls, h.calls)
	return calls
}

func (h *Host) getMounted() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	targets := make([]string, 0, len(h.mounted))
	for target := range h.mounted {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

func (h *Host) isMounted(path string) (bool, error) {
	if err := h.record("is-mounted " + path); err != nil {
		return false, err
	}
	path = filepath.Clean(path)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for target := range h.mounted {
		if isAtOrBelow(target, path) {
			return true, nil
		}
	}
	return false, nil
}

// mount creates the target directory, so that later stages may write below
// it as they would on a real mount.
func (h *Host) mount(device, target string,
	fsType proto.FileSystemType) error {
	err := h.record(fmt.Sprintf("mount %s %s %s", device, target, fsType))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, fsutil.DirPerms); err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.mounted[filepath.Clean(target)] = device
	return nil
}

func (h *Host) record(call string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, failure := range h.failures {
		if strings.HasPrefix(call, failure.prefix) {
			return failure.err
		}
	}
	h.calls = append(h.calls, call)
	return nil
}

func (h *Host) run(cmd host.Command) ([]byte, error) {
	call := "run"
	if cmd.Chroot != "" {
		call += "(chroot=" + cmd.Chroot + ")"
	}
	call += " " + strings.TrimSpace(cmd.Name+" "+strings.Join(cmd.Args, " "))
	if err := h.record(call); err != nil {
		return nil, err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.outputs[cmd.Name], nil
}

func (h *Host) setOutput(name string, output []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.outputs[name] = output
}

func (h *Host) setUUID(device, uuid string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.uuids[device] = uuid
}

// detach removes target and every mount below it.
func (h *Host) detach(target string) error {
	if err := h.record("detach " + target); err != nil {
		return err
	}
	target = filepath.Clean(target)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.mounted[target]; !ok {
		return fmt.Errorf("not mounted: %s", target)
	}
	for mounted := range h.mounted {
		if isAtOrBelow(mounted, target) {
			delete(h.mounted, mounted)
		}
	}
	return nil
}

func (h *Host) unmount(target string) error {
	if err := h.record("unmount " + target); err != nil {
		return err
	}
	target = filepath.Clean(target)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.mounted[target]; !ok {
		return fmt.Errorf("not mounted: %s", target)
	}
	delete(h.mounted, target)
	return nil
}

// uuid returns a stable UUID for device, shaped like the UUIDs blkid reports
// for the file-system type the device was formatted with.
func (h *Host) uuid(device string) (string, error) {
	if err := h.record("uuid " + device); err != nil {
		return "", err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if id, ok := h.uuids[device]; ok {
		return id, nil
	}
	fsType, ok := h.formatted[device]
	if !ok {
		return "", nil
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+device))
	if fsType == proto.FileSystemTypeVfat {
		return strings.ToUpper(fmt.Sprintf("%x-%x", id[:2], id[2:4])), nil
	}
	return id.String(), nil
}
