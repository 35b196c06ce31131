package copier

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

func newExclusions(paths []string) (*Exclusions, error) {
	exclusions := &Exclusions{paths: make(map[string]struct{}, len(paths))}
	for _, path := range paths {
		if err := exclusions.add(path); err != nil {
			return nil, err
		}
	}
	return exclusions, nil
}

func (e *Exclusions) add(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("exclusion is not an absolute path: %s", path)
	}
	if !strings.ContainsAny(path, "*?[{") {
		e.paths[filepath.Clean(path)] = struct{}{}
		return nil
	}
	g, err := glob.Compile(path, '/')
	if err != nil {
		return fmt.Errorf("error compiling exclusion: %s: %s", path, err)
	}
	e.patterns = append(e.patterns, exclusionPattern{path, g})
	return nil
}

func (e *Exclusions) excludes(path string) bool {
	if _, ok := e.paths[path]; ok {
		return true
	}
	for _, pattern := range e.patterns {
		if pattern.glob.Match(path) {
			return true
		}
	}
	return false
}
