package finalize

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/deniswernert/go-fstab"
	"github.com/google/uuid"
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/fsutil"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

var fatVolumeId = regexp.MustCompile(`^[0-9A-F]{4}-[0-9A-F]{4}$`)

func (e *Error) Error() string {
	return fmt.Sprintf("error finalizing: %s: %s", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (f *Finalizer) finalize(stagingRoot string,
	mounts []proto.MountPoint) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{StepHostname, func() error { return f.writeHostname(stagingRoot) }},
		{StepFstab, func() error { return f.writeFstab(stagingRoot, mounts) }},
		{StepBindMounts, func() error { return f.makeBindMounts(stagingRoot) }},
		{StepBootloaderInstall, func() error {
			return f.chroot(stagingRoot, "grub-install", "--target=x86_64-efi",
				"--efi-directory=/boot", "--bootloader-id="+f.bootloaderId(),
				"--recheck")
		}},
		{StepMenuGeneration, func() error {
			return f.chroot(stagingRoot, "grub-mkconfig", "-o",
				"/boot/grub/grub.cfg")
		}},
		{StepServiceEnable, func() error {
			return f.enableServices(stagingRoot)
		}},
	}
	for _, step := range steps {
		f.Logger.Debugf(0, "finalizing: %s\n", step.name)
		if err := step.fn(); err != nil {
			return &Error{Step: step.name, Err: err}
		}
	}
	return nil
}

func (f *Finalizer) bootloaderId() string {
	if f.BootloaderId == "" {
		return DefaultBootloaderId
	}
	return f.BootloaderId
}

func (f *Finalizer) chroot(stagingRoot, name string, args ...string) error {
	_, err := f.Host.Run(host.Command{
		Name:   name,
		Args:   args,
		Chroot: stagingRoot,
	})
	return err
}

func (f *Finalizer) enableServices(stagingRoot string) error {
	services := f.Services
	if services == nil {
		services = DefaultServices
	}
	for _, service := range services {
		if err := f.chroot(stagingRoot, "systemctl", "enable",
			service); err != nil {
			return err
		}
	}
	return nil
}

// Column widths of the written file-system table.
var fstabPaddings = []int{42, 10, 5, 10, 1, 1}

func (f *Finalizer) fstabEntries(stagingRoot string,
	mounts []proto.MountPoint) ([]string, error) {
	entries, err := f.fstabMounts(stagingRoot, mounts)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.String())
	}
	return lines, nil
}

func (f *Finalizer) fstabMounts(stagingRoot string,
	mounts []proto.MountPoint) (fstab.Mounts, error) {
	var entries fstab.Mounts
	for _, mount := range mounts {
		rel, err := filepath.Rel(stagingRoot, mount.Target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("mount: %s is not below: %s",
				mount.Target, stagingRoot)
		}
		id, err := f.Host.UUID(mount.Device)
		if err != nil {
			return nil, fmt.Errorf("error getting UUID of: %s: %s",
				mount.Device, err)
		}
		if err := validateUUID(id, mount.FileSystemType); err != nil {
			return nil, fmt.Errorf("%s: %s", mount.Device, err)
		}
		entry := &fstab.Mount{
			Spec:    "UUID=" + id,
			File:    filepath.Join("/", rel),
			VfsType: mount.FileSystemType.String(),
			Freq:    0,
		}
		switch mount.FileSystemType {
		case proto.FileSystemTypeVfat:
			entry.MntOps = map[string]string{"umask": "0077"}
			entry.PassNo = 2
		default:
			entry.MntOps = map[string]string{"defaults": ""}
			entry.PassNo = 2
			if entry.File == "/" {
				entry.PassNo = 1
			}
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(left, right int) bool {
		return entries[left].File == "/" && entries[right].File != "/"
	})
	if len(entries) < 1 || entries[0].File != "/" {
		return nil, fmt.Errorf("no root file-system in: %v", mounts)
	}
	return entries, nil
}

func (f *Finalizer) makeBindMounts(stagingRoot string) error {
	for _, bindMount := range BindMounts {
		err := f.Host.BindMount(bindMount, filepath.Join(stagingRoot, bindMount))
		if err != nil {
			return err
		}
	}
	return nil
}

// validateUUID rejects identifiers which were not resolved, such as empty
// output or unexpanded shell substitutions.
func validateUUID(id string, fsType proto.FileSystemType) error {
	if id == "" {
		return fmt.Errorf("empty UUID")
	}
	if strings.ContainsAny(id, "$`() \t\n") {
		return fmt.Errorf("unresolved UUID: %q", id)
	}
	switch fsType {
	case proto.FileSystemTypeExt4:
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid UUID: %s: %s", id, err)
		}
	case proto.FileSystemTypeVfat:
		if !fatVolumeId.MatchString(id) {
			return fmt.Errorf("invalid FAT volume ID: %s", id)
		}
	}
	return nil
}

func (f *Finalizer) writeFile(filename, data string) error {
	if f.DryRun {
		f.Logger.Debugf(0, "dry run: skipping write of: %s\n", filename)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(filename), fsutil.DirPerms); err != nil {
		return err
	}
	return fsutil.WriteString(filename, fsutil.PublicFilePerms, data)
}

func (f *Finalizer) writeFstab(stagingRoot string,
	mounts []proto.MountPoint) error {
	entries, err := f.fstabMounts(stagingRoot, mounts)
	if err != nil {
		return err
	}
	buffer := &bytes.Buffer{}
	fmt.Fprintln(buffer, "# Static information about the file-systems.")
	fmt.Fprintln(buffer, "# <file system> <dir> <type> <options> <dump> <pass>")
	fmt.Fprintln(buffer, entries.PaddedString(fstabPaddings...))
	filename := filepath.Join(stagingRoot, "etc", "fstab")
	if err := f.writeFile(filename, buffer.String()); err != nil {
		return err
	}
	if f.DryRun {
		return nil
	}
	return verifyFstab(filename, len(entries))
}

// verifyFstab reads back the written table and checks that every entry is
// keyed by UUID.
func verifyFstab(filename string, numEntries int) error {
	written, err := fstab.ParseFile(filename)
	if err != nil {
		return err
	}
	if len(written) != numEntries {
		return fmt.Errorf("%s has %d entries, expected %d",
			filename, len(written), numEntries)
	}
	for _, entry := range written {
		if entry.SpecType() != fstab.UUID {
			return fmt.Errorf("%s: entry for: %s is not keyed by UUID",
				filename, entry.File)
		}
	}
	return nil
}

func (f *Finalizer) writeHostname(stagingRoot string) error {
	hostname := f.Hostname
	if hostname == "" {
		hostname = DefaultHostname
	}
	if !isValidHostname(hostname) {
		return fmt.Errorf("invalid hostname: %q", hostname)
	}
	return f.writeFile(filepath.Join(stagingRoot, "etc", "hostname"),
		hostname+"\n")
}

// isValidHostname returns true if the specified hostname contains valid
// characters.
func isValidHostname(hostname string) bool {
	if len(hostname) < 1 || len(hostname) > 63 {
		return false
	}
	for _, ch := range hostname {
		if (ch >= 'A' && ch <= 'Z') ||
			(ch >= 'a' && ch <= 'z') ||
			(ch >= '0' && ch <= '9') ||
			(ch == '-') {
			continue
		}
		return false
	}
	return hostname[0] != '-'
}

func releaseBindMounts(mt host.MountTable, stagingRoot string,
	logger log.DebugLogger) error {
	var firstError error
	for index := len(BindMounts) - 1; index >= 0; index-- {
		target := filepath.Join(stagingRoot, BindMounts[index])
		if mounted, err := mt.IsMounted(target); err != nil {
			return err
		} else if !mounted {
			continue
		}
		if err := mt.Detach(target); err != nil {
			logger.Printf("error detaching: %s: %s\n", target, err)
			if firstError == nil {
				firstError = err
			}
		}
	}
	return firstError
}
