// Package copier copies the live system tree onto the staging root.
package copier

import (
	"github.com/gobwas/glob"
	"github.com/stormos/installer/lib/log"
)

// Tree is a source directory copied by a Copier.
type Tree struct {
	Path      string
	FilesOnly bool // Only directories and regular files, no ownership/modes.
	// IgnoreExclusion copies the tree even when its root is excluded, for
	// trees excluded from "/" so that they can be copied on their own terms.
	IgnoreExclusion bool
}

type Copier struct {
	SourceRoot string // Defaults to "/".
	Trees      []Tree // Defaults to DefaultTrees.
	DryRun     bool
	Logger     log.DebugLogger
}

type CopyError struct {
	Tree string
	Path string
	Err  error
}

// Exclusions is a set of absolute source paths (or glob patterns) which are
// never traversed.
type Exclusions struct {
	paths    map[string]struct{}
	patterns []exclusionPattern
}

type exclusionPattern struct {
	text string
	glob glob.Glob
}

type Stats struct {
	Directories uint64
	Files       uint64
	Symlinks    uint64
	Specials    uint64 // Sockets, FIFOs and device nodes (not copied).
	Unchanged   uint64 // Files and symlinks already up to date.
	BytesCopied uint64
	Excluded    []string
}

var (
	DefaultExclusions = []string{
		"/proc",
		"/sys",
		"/dev",
		"/run",
		"/tmp",
		"/mnt",
		"/media",
		"/lost+found",
		"/boot",
		"/var/cache",
		"/var/tmp",
	}
	DefaultTrees = []Tree{
		{Path: "/"},
		{Path: "/boot", FilesOnly: true, IgnoreExclusion: true},
		{Path: "/etc"},
		{Path: "/usr"},
		{Path: "/var"},
	}
)

// NewExclusions compiles paths. Entries containing any of the glob
// metacharacters "*?[{" are treated as patterns where "*" does not match "/".
func NewExclusions(paths []string) (*Exclusions, error) {
	return newExclusions(paths)
}

// Excludes returns true if the source path is excluded.
func (e *Exclusions) Excludes(path string) bool {
	return e.excludes(path)
}

// CopyLiveTree copies each tree below the source root into stagingRoot.
// The staging root is always excluded. Exclusions are checked before
// descending into a directory, so nothing below an excluded directory is
// read. A tree whose root is excluded is skipped unless it is marked
// IgnoreExclusion.
// Existing destination entries are overwritten, and unchanged files (same
// size and modification time) are not rewritten, so running again over a
// partial copy resumes it.
func (c *Copier) CopyLiveTree(exclusions []string,
	stagingRoot string) (Stats, error) {
	return c.copyLiveTree(exclusions, stagingRoot)
}
