package loadflags

import (
	"flag"
	"path/filepath"
)

// LoadForDaemon loads flag values from /etc/<progName>/flags.default and then
// /etc/<progName>/flags.extra into the default flag set. Missing files are
// ignored.
func LoadForDaemon(progName string) error {
	return loadFlags(flag.CommandLine, filepath.Join("/etc", progName))
}

// LoadFromDirectory is like LoadForDaemon but reads from dirname into the
// specified flag set.
func LoadFromDirectory(flagSet *flag.FlagSet, dirname string) error {
	return loadFlags(flagSet, dirname)
}
