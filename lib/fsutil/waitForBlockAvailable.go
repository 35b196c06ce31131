package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stormos/installer/lib/backoffdelay"
)

func waitForBlockAvailable(pathname string,
	timeout time.Duration) (uint, uint, error) {
	if timeout < 0 || timeout > time.Hour {
		timeout = time.Hour
	}
	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(pathname)); err == nil {
			events = watcher.Events
			watchErrors = watcher.Errors
		}
	}
	sleeper := backoffdelay.NewExponential(time.Millisecond,
		100*time.Millisecond, 2)
	deadline := time.After(timeout)
	var numIterations, numOpened uint
	for ; ; numIterations++ {
		// Need to open rather than just test for inode existance, because an
		// Open(2) is what may be needed to trigger dynamic device node creation
		if file, err := os.Open(pathname); err == nil {
			numOpened++
			fi, err := file.Stat()
			file.Close()
			if err != nil {
				return numIterations, numOpened, err
			}
			if fi.Mode()&os.ModeDevice != 0 {
				return numIterations, numOpened, nil
			}
		}
		select {
		case <-deadline:
			return numIterations, numOpened,
				fmt.Errorf("timed out waiting for partition, %d opens: %s",
					numOpened, pathname)
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case _, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
			}
		case <-sleeper.After():
		}
	}
}
