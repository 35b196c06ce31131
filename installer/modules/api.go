// Package modules scans and runs post-install customisation modules.
//
// A module directory holds declarative modules (*.conf, INI style settings
// which are parsed but never executed) and executable modules (*.sh, run with
// /bin/sh -e). Other files are ignored. Modules run in SortKey order, which
// defaults to the file name, so "05-disk.conf" precedes "10-network.sh".
// A module may override its sort key with a "sort-key" variable in the
// [module] section (declarative) or a "# sort-key: <key>" line in its header
// comment (executable).
package modules

import (
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

const TargetEnvironmentVariable = "STORMOS_TARGET"

// Section maps variable names to values.
type Section map[string]string

type Module struct {
	Name     string
	SortKey  string
	Kind     proto.ModuleKind
	Path     string
	Mode     uint32
	Settings map[string]Section // Declarative modules only.
}

// Error is returned when an executable module fails.
type Error struct {
	Module     string
	ExitStatus int
	Err        error
}

type Runner struct {
	Host            host.Runner
	Logger          log.DebugLogger
	ContinueOnError bool
	settings        map[string]Section
}

// Scan returns the modules in directory, sorted by SortKey. Declarative
// modules are parsed here and a parse failure fails the scan.
func Scan(directory string) ([]Module, error) {
	return scan(directory)
}

// Merge merges the settings of the declarative modules into the retained
// settings without running anything, so that they may be consulted before
// Run. Merging the same modules again has no effect.
func (r *Runner) Merge(modules []Module) {
	r.mergeModules(modules)
}

// Run applies modules in order. Declarative modules are merged into the
// retained settings. Executable modules without an executable permission bit
// are skipped. Unless ContinueOnError is set the first failing module stops
// the run; otherwise all modules run. The first failure is returned either
// way, along with a result for every module considered.
func (r *Runner) Run(modules []Module, stagingRoot string) (
	[]proto.ModuleResult, error) {
	return r.run(modules, stagingRoot)
}

// Settings returns a copy of the settings merged from the declarative
// modules run so far. Later modules override earlier ones.
func (r *Runner) Settings() map[string]Section {
	return r.getSettings()
}
