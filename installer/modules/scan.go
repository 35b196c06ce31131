package modules

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	proto "github.com/stormos/installer/proto/installer"
	"gopkg.in/ini.v1"
)

const (
	moduleSection = "module"
	sortKeyName   = "sort-key"
	sortKeyPrefix = "# sort-key:"
)

// loadSettings reads a declarative module. Variables before the first
// section header belong to the section named "".
func loadSettings(filename string) (map[string]Section, string, error) {
	file, err := ini.Load(filename)
	if err != nil {
		return nil, "", err
	}
	settings := make(map[string]Section)
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			if len(section.Keys()) < 1 {
				continue
			}
			name = ""
		}
		settings[name] = section.KeysHash()
	}
	sortKey := file.Section(moduleSection).Key(sortKeyName).String()
	return settings, sortKey, nil
}

func readSortKey(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		if strings.HasPrefix(line, sortKeyPrefix) {
			return strings.TrimSpace(line[len(sortKeyPrefix):]), nil
		}
	}
	return "", scanner.Err()
}

func scan(directory string) ([]Module, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	var modules []Module
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		module := Module{
			Name:    name,
			SortKey: name,
			Path:    filepath.Join(directory, name),
		}
		switch filepath.Ext(name) {
		case ".conf":
			module.Kind = proto.ModuleKindDeclarative
			settings, key, err := loadSettings(module.Path)
			if err != nil {
				return nil, fmt.Errorf("error parsing module: %s: %s",
					name, err)
			}
			module.Settings = settings
			if key != "" {
				module.SortKey = key
			}
		case ".sh":
			module.Kind = proto.ModuleKindExecutable
			if key, err := readSortKey(module.Path); err != nil {
				return nil, err
			} else if key != "" {
				module.SortKey = key
			}
		default:
			continue
		}
		fi, err := os.Stat(module.Path)
		if err != nil {
			return nil, err
		}
		module.Mode = uint32(fi.Mode().Perm())
		modules = append(modules, module)
	}
	sort.SliceStable(modules, func(left, right int) bool {
		if modules[left].SortKey != modules[right].SortKey {
			return modules[left].SortKey < modules[right].SortKey
		}
		return modules[left].Name < modules[right].Name
	})
	return modules, nil
}
