package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stormos/installer/lib/log/testlogger"
	proto "github.com/stormos/installer/proto/installer"
	"golang.org/x/sys/unix"
)

func TestSgdiskCreateArgs(t *testing.T) {
	efi := proto.PartitionSpec{
		Index:     1,
		SizeBytes: 512 << 20,
		Label:     "EFI",
		TypeCode:  "ef00",
	}
	expected := []string{"--new=1:0:+512M", "--typecode=1:ef00",
		"--change-name=1:EFI", "/dev/sdX"}
	if diff := cmp.Diff(expected, sgdiskCreateArgs("/dev/sdX", efi)); diff != "" {
		t.Errorf("EFI args mismatch (-want +got):\n%s", diff)
	}
	root := proto.PartitionSpec{Index: 2, TypeCode: "8300"}
	expected = []string{"--new=2:0:0", "--typecode=2:8300", "/dev/sdX"}
	if diff := cmp.Diff(expected, sgdiskCreateArgs("/dev/sdX", root)); diff != "" {
		t.Errorf("root args mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatCommand(t *testing.T) {
	cmd, err := formatCommand("/dev/sdX1", proto.FileSystemTypeVfat, "EFI")
	if err != nil {
		t.Fatal(err)
	}
	expected := Command{Name: "mkfs.fat",
		Args: []string{"-F", "32", "-n", "EFI", "/dev/sdX1"}}
	if diff := cmp.Diff(expected, cmd); diff != "" {
		t.Errorf("vfat mismatch (-want +got):\n%s", diff)
	}
	cmd, err = formatCommand("/dev/sdX2", proto.FileSystemTypeExt4, "stormos")
	if err != nil {
		t.Fatal(err)
	}
	expected = Command{Name: "mkfs.ext4",
		Args: []string{"-F", "-L", "stormos", "/dev/sdX2"}}
	if diff := cmp.Diff(expected, cmd); diff != "" {
		t.Errorf("ext4 mismatch (-want +got):\n%s", diff)
	}
	if _, err := formatCommand("/dev/sdX3", 9, "x"); err == nil {
		t.Error("unsupported file-system type accepted")
	}
}

func TestBindMountIsRecursive(t *testing.T) {
	if bindMountFlags&unix.MS_BIND == 0 || bindMountFlags&unix.MS_REC == 0 {
		t.Errorf("bind mount flags: %#x", bindMountFlags)
	}
}

func TestLookPathInChroot(t *testing.T) {
	rootDir := t.TempDir()
	binDir := filepath.Join(rootDir, "usr", "sbin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(binDir, "grub-install"), nil, 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(binDir, "not-executable"), nil, 0644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", "/bin:/usr/sbin")
	path, err := lookPath(rootDir, "grub-install")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/usr/sbin/grub-install" {
		t.Errorf("path: %s != /usr/sbin/grub-install", path)
	}
	if _, err := lookPath(rootDir, "not-executable"); err == nil {
		t.Error("non-executable file found")
	}
	if _, err := lookPath(rootDir, "/usr/sbin/not-executable"); err == nil {
		t.Error("non-executable absolute path accepted")
	}
}

func TestDryRunSkipsChanges(t *testing.T) {
	system := New(true, testlogger.New(t))
	output, err := system.Run(Command{Name: "no-such-programme"})
	if err != nil {
		t.Fatalf("dry run executed command: %s", err)
	}
	if len(output) > 0 {
		t.Errorf("unexpected output: %s", output)
	}
	if _, err := system.Run(Command{Name: "no-such-programme",
		Query: true}); err == nil {
		t.Error("query command not run in dry-run mode")
	}
	if id, err := system.UUID("/dev/sdX2"); err != nil {
		t.Fatal(err)
	} else if id == "" {
		t.Error("empty UUID in dry-run mode")
	}
	if err := system.Mount("/dev/sdX2", "/nonexistent/target",
		proto.FileSystemTypeExt4); err != nil {
		t.Errorf("dry run mounted: %s", err)
	}
}

func TestExitCode(t *testing.T) {
	system := New(false, testlogger.New(t))
	_, err := system.Run(Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	if err == nil {
		t.Fatal("no error for failing command")
	}
	if code := ExitCode(err); code != 3 {
		t.Errorf("exit code: %d != 3", code)
	}
	if code := ExitCode(nil); code != 0 {
		t.Errorf("exit code for nil: %d != 0", code)
	}
}

func TestRunEnvironmentAndDirectory(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	system := New(false, testlogger.New(t))
	output, err := system.Run(Command{
		Name: "sh",
		Args: []string{"-c", `echo "$STORMOS_TARGET $(pwd -P)"`},
		Dir:  dir,
		Env:  []string{"STORMOS_TARGET=/mnt/stormos"},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected := "/mnt/stormos " + dir + "\n"
	if string(output) != expected {
		t.Errorf("output: %q != %q", output, expected)
	}
}
