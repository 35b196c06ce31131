package loadflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "flags.default"),
		[]byte("# defaults\nhostname = stormos\nmountPoint=/mnt/a\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "flags.extra"),
		[]byte("mountPoint=/mnt/b\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	hostname := flagSet.String("hostname", "", "")
	mountPoint := flagSet.String("mountPoint", "", "")
	if err := LoadFromDirectory(flagSet, dir); err != nil {
		t.Fatal(err)
	}
	if *hostname != "stormos" {
		t.Errorf("hostname: %s != stormos", *hostname)
	}
	if *mountPoint != "/mnt/b" {
		t.Errorf("mountPoint: %s != /mnt/b", *mountPoint)
	}
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "flags.default"),
		[]byte("noSuchFlag=1\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := LoadFromDirectory(flagSet, dir); err == nil {
		t.Fatal("unknown flag accepted")
	}
}
