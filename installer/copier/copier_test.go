package copier

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stormos/installer/lib/log/testlogger"
	"golang.org/x/sys/unix"
)

type treeEntry struct {
	Mode    fs.FileMode
	Size    int64
	ModTime time.Time
	Target  string
	Digest  string
}

var testTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, root, path, data string, perm fs.FileMode) {
	filename := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filename, []byte(data), perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filename, perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filename, testTime, testTime); err != nil {
		t.Fatal(err)
	}
}

func makeLiveTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "etc/hostname", "live\n", 0644)
	writeFile(t, root, "etc/shadow", "root:*:19000::::::\n", 0600)
	writeFile(t, root, "usr/bin/tool", "#!/bin/sh\n", 0755)
	writeFile(t, root, "usr/lib/os-release", "NAME=StormOS\n", 0644)
	writeFile(t, root, "var/lib/pacman/local", "db", 0644)
	writeFile(t, root, "var/log/pacman.log", "log", 0644)
	writeFile(t, root, "var/cache/pkg/big.pkg", "package", 0644)
	writeFile(t, root, "boot/vmlinuz-linux", "kernel", 0644)
	writeFile(t, root, "proc/1/status", "Name: init\n", 0444)
	writeFile(t, root, "proc/cpuinfo", "processor: 0\n", 0444)
	if err := os.Symlink("../usr/lib/os-release",
		filepath.Join(root, "etc/os-release")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("/nonexistent/target",
		filepath.Join(root, "etc/dangling")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("usr/bin", filepath.Join(root, "bin")); err != nil {
		t.Fatal(err)
	}
	return root
}

func snapshot(t *testing.T, root string) map[string]treeEntry {
	entries := make(map[string]treeEntry)
	err := filepath.WalkDir(root,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			entry := treeEntry{Mode: fi.Mode(), ModTime: fi.ModTime()}
			switch {
			case fi.Mode()&fs.ModeSymlink != 0:
				entry.Target, err = os.Readlink(path)
				if err != nil {
					return err
				}
			case fi.Mode().IsRegular():
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				entry.Size = fi.Size()
				entry.Digest = fmt.Sprintf("%x", sha256.Sum256(data))
			}
			entries[rel] = entry
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestExcludedDirectoryIsNeverRead(t *testing.T) {
	source := makeLiveTree(t)
	expected := snapshot(t, source)
	procDir := filepath.Join(source, "proc")
	// Without privileges, reading an unreadable directory fails the copy.
	if err := os.Chmod(procDir, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(procDir, 0755)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree([]string{"/proc"}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "proc")); !os.IsNotExist(err) {
		t.Errorf("excluded directory copied: %v", err)
	}
	if diff := cmp.Diff([]string{"/proc"}, stats.Excluded); diff != "" {
		t.Errorf("excluded mismatch (-want +got):\n%s", diff)
	}
	delete(expected, "proc")
	delete(expected, "proc/cpuinfo")
	delete(expected, "proc/1")
	delete(expected, "proc/1/status")
	if diff := cmp.Diff(expected, snapshot(t, dest),
		cmp.FilterPath(func(p cmp.Path) bool {
			return p.Last().String() == ".ModTime"
		}, cmp.Ignore())); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if stats.Files != 8 {
		t.Errorf("files copied: %d != 8", stats.Files)
	}
	if stats.Symlinks != 3 {
		t.Errorf("symlinks copied: %d != 3", stats.Symlinks)
	}
}

func TestExcludedTreeRootSkipped(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree([]string{"/proc", "/etc"}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "etc")); !os.IsNotExist(err) {
		t.Errorf("excluded tree copied: %v", err)
	}
	if diff := cmp.Diff([]string{"/etc", "/proc"}, stats.Excluded); diff != "" {
		t.Errorf("excluded mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dest, "usr/bin/tool")); err != nil {
		t.Errorf("other trees not copied: %s", err)
	}
}

func TestDefaultExclusions(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree(DefaultExclusions, dest)
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"proc", "var/cache"} {
		if _, err := os.Lstat(filepath.Join(dest, path)); err == nil {
			t.Errorf("excluded path copied: %s", path)
		}
	}
	// The boot tree is copied even though /boot is excluded below "/".
	data, err := os.ReadFile(filepath.Join(dest, "boot", "vmlinuz-linux"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "kernel" {
		t.Errorf("kernel content: %s", data)
	}
	expected := []string{"/boot", "/proc", "/var/cache"}
	if diff := cmp.Diff(expected, stats.Excluded); diff != "" {
		t.Errorf("excluded mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyIsIdempotent(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	first, err := c.CopyLiveTree(DefaultExclusions, dest)
	if err != nil {
		t.Fatal(err)
	}
	before := snapshot(t, dest)
	second, err := c.CopyLiveTree(DefaultExclusions, dest)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, snapshot(t, dest)); diff != "" {
		t.Errorf("destination changed (-first +second):\n%s", diff)
	}
	if second.Files != 0 || second.Symlinks != 0 || second.BytesCopied != 0 {
		t.Errorf("second copy rewrote: %+v", second)
	}
	if second.Unchanged != first.Files+first.Symlinks+first.Unchanged {
		t.Errorf("unchanged: %d != %d", second.Unchanged,
			first.Files+first.Symlinks+first.Unchanged)
	}
}

func TestResumeOverPartialCopy(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	writeFile(t, dest, "etc/hostname", "stale content\n", 0600)
	if err := os.Symlink("elsewhere",
		filepath.Join(dest, "etc/os-release")); err != nil {
		t.Fatal(err)
	}
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	if _, err := c.CopyLiveTree([]string{"/proc"}, dest); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "etc/hostname"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "live\n" {
		t.Errorf("stale file not replaced: %q", data)
	}
	target, err := os.Readlink(filepath.Join(dest, "etc/os-release"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "../usr/lib/os-release" {
		t.Errorf("symlink target: %s", target)
	}
}

func TestModesTimesAndLinksPreserved(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	if _, err := c.CopyLiveTree([]string{"/proc"}, dest); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Lstat(filepath.Join(dest, "etc/shadow"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0600 {
		t.Errorf("shadow mode: %o != 600", perm)
	}
	if !fi.ModTime().Equal(testTime) {
		t.Errorf("shadow mtime: %s != %s", fi.ModTime(), testTime)
	}
	fi, err = os.Lstat(filepath.Join(dest, "bin"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		t.Error("symlink to directory was followed")
	}
	if _, err := os.Lstat(filepath.Join(dest, "etc/dangling")); err != nil {
		t.Errorf("dangling symlink not copied: %s", err)
	}
}

func TestSpecialFilesSkipped(t *testing.T) {
	source := makeLiveTree(t)
	if err := unix.Mkfifo(filepath.Join(source, "etc/initctl"),
		0600); err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree(DefaultExclusions, dest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "etc/initctl")); err == nil {
		t.Error("FIFO copied")
	}
	// Seen by the "/" and "/etc" trees.
	if stats.Specials != 2 {
		t.Errorf("specials: %d != 2", stats.Specials)
	}
}

func TestStagingRootExcluded(t *testing.T) {
	source := makeLiveTree(t)
	dest := filepath.Join(source, "mnt", "stormos")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree([]string{"/proc"}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "mnt")); err != nil {
		t.Errorf("mount point directory not copied: %s", err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "mnt", "stormos")); err == nil {
		t.Error("copy recursed into its destination")
	}
	if diff := cmp.Diff([]string{"/mnt/stormos", "/proc"},
		stats.Excluded); diff != "" {
		t.Errorf("excluded mismatch (-want +got):\n%s", diff)
	}
}

func TestPatternExclusions(t *testing.T) {
	exclusions, err := NewExclusions([]string{"/var/log/*.log", "/proc"})
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]bool{
		"/proc":                  true,
		"/proc/1":                false,
		"/var/log/pacman.log":    true,
		"/var/log/journal/x.log": false,
		"/var/log":               false,
	}
	for path, expected := range tests {
		if got := exclusions.Excludes(path); got != expected {
			t.Errorf("Excludes(%s): %v != %v", path, got, expected)
		}
	}
	if _, err := NewExclusions([]string{"relative/path"}); err == nil {
		t.Error("relative exclusion accepted")
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	source := makeLiveTree(t)
	dest := t.TempDir()
	c := &Copier{SourceRoot: source, DryRun: true, Logger: testlogger.New(t)}
	stats, err := c.CopyLiveTree(DefaultExclusions, dest)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files < 1 {
		t.Error("dry run counted no files")
	}
	if entries, _ := os.ReadDir(dest); len(entries) > 0 {
		t.Errorf("dry run wrote %d entries", len(entries))
	}
}

func TestUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	source := makeLiveTree(t)
	writeFile(t, source, "etc/secret", "secret", 0)
	c := &Copier{SourceRoot: source, Logger: testlogger.New(t)}
	_, err := c.CopyLiveTree(DefaultExclusions, t.TempDir())
	var copyError *CopyError
	if !errors.As(err, &copyError) {
		t.Fatalf("not a CopyError: %v", err)
	}
	if copyError.Tree != "/" || copyError.Path != "/etc/secret" {
		t.Errorf("error location: %s %s", copyError.Tree, copyError.Path)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("cause not wrapped: %s", err)
	}
}
