//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stormos/installer/lib/json"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

func showResultSubcommand(args []string, logger log.DebugLogger) error {
	rootDir := *stagingRoot
	if len(args) > 0 {
		rootDir = args[0]
	}
	if err := showResult(rootDir); err != nil {
		return fmt.Errorf("error showing result: %s", err)
	}
	return nil
}

func showResult(rootDir string) error {
	var result proto.InstallResult
	filename := filepath.Join(rootDir, "var", "log", "installer",
		"result.json")
	if err := json.ReadFromFile(filename, &result); err != nil {
		return err
	}
	return json.WriteWithIndent(os.Stdout, "    ", result)
}
