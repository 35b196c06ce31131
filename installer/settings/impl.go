package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/gcfg"
	"github.com/stormos/installer/lib/fsutil"
	proto "github.com/stormos/installer/proto/installer"
)

type file struct {
	Settings proto.Settings
}

func format(settings proto.Settings) string {
	buffer := &bytes.Buffer{}
	fmt.Fprintln(buffer, "[SETTINGS]")
	fmt.Fprintf(buffer, "desktop = %s\n", settings.Desktop)
	fmt.Fprintf(buffer, "auto_mirror = %t\n", settings.AutoMirror)
	fmt.Fprintf(buffer, "enable_firewall = %t\n", settings.EnableFirewall)
	fmt.Fprintf(buffer, "install_recommends = %t\n",
		settings.InstallRecommends)
	fmt.Fprintf(buffer, "no_check = %t\n", settings.NoCheck)
	fmt.Fprintf(buffer, "theme = %s\n", settings.Theme)
	return buffer.String()
}

func load(filename string) (*proto.Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	settings, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("error reading: %s: %s", filename, err)
	}
	return settings, nil
}

// normalize rewrites variable names to the character set gcfg accepts.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '[' || trimmed[0] == '#' ||
			trimmed[0] == ';' {
			continue
		}
		name := trimmed
		var rest string
		if pos := strings.IndexByte(trimmed, '='); pos >= 0 {
			name = trimmed[:pos]
			rest = trimmed[pos:]
		}
		lines[index] = strings.ReplaceAll(name, "_", "-") + rest
	}
	return strings.Join(lines, "\n")
}

func parse(text string) (*proto.Settings, error) {
	var config file
	config.Settings = Default
	err := gcfg.ReadStringInto(&config, normalize(text))
	if err := gcfg.FatalOnly(err); err != nil {
		return nil, err
	}
	return &config.Settings, nil
}

func writeDefault(filename string) (bool, error) {
	if _, err := os.Stat(filename); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(filename), fsutil.DirPerms); err != nil {
		return false, err
	}
	err := fsutil.WriteString(filename, fsutil.PublicFilePerms,
		format(Default))
	if err != nil {
		return false, err
	}
	return true, nil
}
