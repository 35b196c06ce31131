package copier

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/stormos/installer/lib/format"
	"github.com/stormos/installer/lib/fsutil"
	"golang.org/x/sys/unix"
)

const fatTimeResolution = 2 * time.Second

type directory struct {
	tree     string
	name     string
	path     string
	mode     fs.FileMode
	modTime  time.Time
	uid      int
	gid      int
	metadata bool
	setOwner bool
}

type treeCopier struct {
	*Copier
	tree        Tree
	exclusions  *Exclusions
	destRoot    string
	setOwner    bool
	stats       *Stats
	directories *[]directory
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("error copying tree: %s at: %s: %s",
		e.Tree, e.Path, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

func (c *Copier) copyLiveTree(exclusionPaths []string,
	stagingRoot string) (Stats, error) {
	var stats Stats
	sourceRoot := c.SourceRoot
	if sourceRoot == "" {
		sourceRoot = "/"
	}
	trees := c.Trees
	if trees == nil {
		trees = DefaultTrees
	}
	exclusions, err := newExclusions(exclusionPaths)
	if err != nil {
		return stats, err
	}
	stagingRoot, err = filepath.Abs(stagingRoot)
	if err != nil {
		return stats, err
	}
	if rel, err := filepath.Rel(sourceRoot, stagingRoot); err == nil &&
		rel != ".." && !strings.HasPrefix(rel, "../") {
		exclusions.add(filepath.Join("/", rel))
	}
	var directories []directory
	for _, tree := range trees {
		startTime := time.Now()
		before := stats
		tc := &treeCopier{
			Copier:      c,
			tree:        tree,
			exclusions:  exclusions,
			destRoot:    stagingRoot,
			setOwner:    os.Geteuid() == 0 && !tree.FilesOnly,
			stats:       &stats,
			directories: &directories,
		}
		if err := tc.copy(sourceRoot); err != nil {
			return stats, err
		}
		c.Logger.Debugf(0,
			"copied tree: %s: %d files, %d unchanged, %d bytes in %s\n",
			tree.Path, stats.Files-before.Files,
			stats.Unchanged-before.Unchanged,
			stats.BytesCopied-before.BytesCopied,
			format.Duration(time.Since(startTime)))
	}
	if err := finishDirectories(directories); err != nil {
		return stats, err
	}
	sort.Strings(stats.Excluded)
	return stats, nil
}

func sameFile(dest, source fs.FileInfo, resolution time.Duration) bool {
	if !dest.Mode().IsRegular() || dest.Size() != source.Size() {
		return false
	}
	delta := dest.ModTime().Sub(source.ModTime())
	if resolution == 0 {
		return delta == 0
	}
	return delta > -resolution && delta < resolution
}

func owner(fi fs.FileInfo) (int, int) {
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		return int(stat.Uid), int(stat.Gid)
	}
	return -1, -1
}

func (tc *treeCopier) copy(sourceRoot string) error {
	treeRoot := filepath.Join(sourceRoot, tc.tree.Path)
	if _, err := os.Lstat(treeRoot); err != nil {
		if os.IsNotExist(err) {
			tc.Logger.Debugf(0, "skipping missing tree: %s\n", tc.tree.Path)
			return nil
		}
		return &CopyError{Tree: tc.tree.Path, Path: tc.tree.Path, Err: err}
	}
	err := filepath.WalkDir(treeRoot,
		func(sourcePath string, entry fs.DirEntry, err error) error {
			rel, e := filepath.Rel(sourceRoot, sourcePath)
			if e != nil {
				return e
			}
			path := filepath.Join("/", rel)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return &CopyError{Tree: tc.tree.Path, Path: path, Err: err}
			}
			isTreeRoot := path == filepath.Clean(tc.tree.Path)
			if !(isTreeRoot && tc.tree.IgnoreExclusion) &&
				tc.exclusions.excludes(path) {
				tc.Logger.Debugf(1, "excluding: %s\n", path)
				tc.stats.Excluded = appendUnique(tc.stats.Excluded, path)
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if err := tc.copyEntry(sourcePath, path, entry); err != nil {
				if os.IsNotExist(err) {
					tc.Logger.Debugf(1, "vanished: %s\n", path)
					return nil
				}
				return &CopyError{Tree: tc.tree.Path, Path: path, Err: err}
			}
			return nil
		})
	if err != nil {
		var copyError *CopyError
		if errors.As(err, &copyError) {
			return err
		}
		return &CopyError{Tree: tc.tree.Path, Path: tc.tree.Path, Err: err}
	}
	return nil
}

func appendUnique(list []string, value string) []string {
	for _, entry := range list {
		if entry == value {
			return list
		}
	}
	return append(list, value)
}

func (tc *treeCopier) copyEntry(sourcePath, path string,
	entry fs.DirEntry) error {
	fi, err := entry.Info()
	if err != nil {
		return err
	}
	destPath := filepath.Join(tc.destRoot, path)
	switch mode := fi.Mode(); {
	case mode.IsDir():
		return tc.copyDirectory(path, destPath, fi)
	case mode.IsRegular():
		return tc.copyRegularFile(sourcePath, destPath, fi)
	case mode&fs.ModeSymlink != 0:
		if tc.tree.FilesOnly {
			tc.Logger.Debugf(1, "skipping symlink: %s\n", path)
			tc.stats.Specials++
			return nil
		}
		return tc.copySymlink(sourcePath, destPath, fi)
	default:
		tc.Logger.Debugf(2, "skipping special file: %s\n", path)
		tc.stats.Specials++
		return nil
	}
}

func (tc *treeCopier) copyDirectory(name, destPath string,
	fi fs.FileInfo) error {
	tc.stats.Directories++
	if tc.DryRun {
		return nil
	}
	if dfi, err := os.Lstat(destPath); err == nil && !dfi.IsDir() {
		if err := os.Remove(destPath); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(destPath, fsutil.DirPerms); err != nil {
		return err
	}
	uid, gid := owner(fi)
	*tc.directories = append(*tc.directories, directory{
		tree:     tc.tree.Path,
		name:     name,
		metadata: !tc.tree.FilesOnly,
		setOwner: tc.setOwner,
		path:     destPath,
		mode:     fi.Mode(),
		modTime:  fi.ModTime(),
		uid:      uid,
		gid:      gid,
	})
	return nil
}

func (tc *treeCopier) copyRegularFile(sourcePath, destPath string,
	fi fs.FileInfo) error {
	var resolution time.Duration
	if tc.tree.FilesOnly {
		resolution = fatTimeResolution
	}
	if dfi, err := os.Lstat(destPath); err == nil {
		if sameFile(dfi, fi, resolution) {
			tc.stats.Unchanged++
			return nil
		}
		if !tc.DryRun {
			if err := os.RemoveAll(destPath); err != nil {
				return err
			}
		}
	}
	tc.stats.Files++
	if tc.DryRun {
		tc.stats.BytesCopied += uint64(fi.Size())
		return nil
	}
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()
	dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY,
		fsutil.PrivateFilePerms)
	if err != nil {
		return err
	}
	nCopied, err := io.Copy(dest, source)
	if err != nil {
		dest.Close()
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}
	tc.stats.BytesCopied += uint64(nCopied)
	if !tc.tree.FilesOnly {
		if err := tc.setOwnerAndMode(destPath, fi); err != nil {
			return err
		}
	}
	return os.Chtimes(destPath, fi.ModTime(), fi.ModTime())
}

func (tc *treeCopier) copySymlink(sourcePath, destPath string,
	fi fs.FileInfo) error {
	target, err := os.Readlink(sourcePath)
	if err != nil {
		return err
	}
	if dfi, err := os.Lstat(destPath); err == nil {
		if dfi.Mode()&fs.ModeSymlink != 0 {
			if existing, _ := os.Readlink(destPath); existing == target {
				tc.stats.Unchanged++
				return nil
			}
		}
		if !tc.DryRun {
			if err := os.RemoveAll(destPath); err != nil {
				return err
			}
		}
	}
	tc.stats.Symlinks++
	if tc.DryRun {
		return nil
	}
	if err := os.Symlink(target, destPath); err != nil {
		return err
	}
	if tc.setOwner {
		uid, gid := owner(fi)
		if err := os.Lchown(destPath, uid, gid); err != nil {
			return err
		}
	}
	mtime := unix.NsecToTimespec(fi.ModTime().UnixNano())
	return unix.UtimesNanoAt(unix.AT_FDCWD, destPath,
		[]unix.Timespec{mtime, mtime}, unix.AT_SYMLINK_NOFOLLOW)
}

// finishDirectories applies ownership, modes and times to the copied
// directories once all writes are done, since writing into a directory
// updates its time.
func finishDirectories(directories []directory) error {
	for index := len(directories) - 1; index >= 0; index-- {
		dir := directories[index]
		if dir.metadata {
			if dir.setOwner {
				if err := os.Lchown(dir.path, dir.uid, dir.gid); err != nil {
					return &CopyError{dir.tree, dir.name, err}
				}
			}
			if err := os.Chmod(dir.path, modeBits(dir.mode)); err != nil {
				return &CopyError{dir.tree, dir.name, err}
			}
		}
		if err := os.Chtimes(dir.path, dir.modTime, dir.modTime); err != nil {
			return &CopyError{dir.tree, dir.name, err}
		}
	}
	return nil
}

func modeBits(mode fs.FileMode) fs.FileMode {
	return mode & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
}

func (tc *treeCopier) setOwnerAndMode(destPath string, fi fs.FileInfo) error {
	if tc.setOwner {
		uid, gid := owner(fi)
		if err := os.Lchown(destPath, uid, gid); err != nil {
			return err
		}
	}
	return os.Chmod(destPath, modeBits(fi.Mode()))
}
