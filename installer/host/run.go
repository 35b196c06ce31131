package host

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

func findExecutable(rootDir, file string) error {
	if d, err := os.Stat(filepath.Join(rootDir, file)); err != nil {
		return err
	} else {
		if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
			return nil
		}
		return os.ErrPermission
	}
}

// lookPath searches PATH for file, with rootDir as the root directory.
func lookPath(rootDir, file string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(rootDir, file); err != nil {
			return "", err
		}
		return file, nil
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "." // Unix shell semantics: path element "" means "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(rootDir, path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("(chroot=%s) %s not found in PATH", rootDir, file)
}

func (s *System) run(command Command) ([]byte, error) {
	line := strings.TrimSpace(
		command.Name + " " + strings.Join(command.Args, " "))
	if s.dryRun && !command.Query {
		s.logger.Debugf(0, "dry run: skipping: %s\n", line)
		return nil, nil
	}
	path, err := lookPath(command.Chroot, command.Name)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, command.Args...)
	cmd.WaitDelay = time.Second
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	if command.Chroot != "" {
		if cmd.Dir == "" {
			cmd.Dir = "/"
		}
		cmd.SysProcAttr = &syscall.SysProcAttr{Chroot: command.Chroot}
		s.logger.Debugf(0, "running(chroot=%s): %s\n", command.Chroot, line)
	} else {
		s.logger.Debugf(0, "running: %s\n", line)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		if err == exec.ErrWaitDelay {
			return output, nil
		}
		return output, &RunError{Command: line, Err: err, Output: output}
	}
	return output, nil
}
