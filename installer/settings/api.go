// Package settings reads and writes the installation settings file, an INI
// style file with a single [SETTINGS] section.
package settings

import (
	proto "github.com/stormos/installer/proto/installer"
)

const DefaultFilename = "/etc/stormos-installer/settings.conf"

var Default = proto.Settings{
	Desktop:           "XFCE",
	AutoMirror:        true,
	EnableFirewall:    true,
	InstallRecommends: true,
	NoCheck:           false,
	Theme:             "default",
}

// Load reads the settings in filename. Unknown sections and variables are
// ignored. Variable names may use "_" or "-" as a word separator.
func Load(filename string) (*proto.Settings, error) {
	return load(filename)
}

// Parse is the same as Load, except that the settings are read from text.
func Parse(text string) (*proto.Settings, error) {
	return parse(text)
}

// WriteDefault writes the default settings to filename, unless it already
// exists. It returns true if the file was written.
func WriteDefault(filename string) (bool, error) {
	return writeDefault(filename)
}
