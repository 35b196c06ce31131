package modules

import (
	"fmt"
	"strings"
	"time"

	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/format"
	proto "github.com/stormos/installer/proto/installer"
)

func (e *Error) Error() string {
	return fmt.Sprintf("module: %s failed with exit status %d: %s",
		e.Module, e.ExitStatus, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (r *Runner) getSettings() map[string]Section {
	settings := make(map[string]Section, len(r.settings))
	for name, section := range r.settings {
		copied := make(Section, len(section))
		for key, value := range section {
			copied[key] = value
		}
		settings[name] = copied
	}
	return settings
}

func (r *Runner) mergeModules(modules []Module) {
	for _, module := range modules {
		if module.Kind == proto.ModuleKindDeclarative {
			r.merge(module.Settings)
		}
	}
}

func (r *Runner) merge(settings map[string]Section) {
	if r.settings == nil {
		r.settings = make(map[string]Section)
	}
	for name, section := range settings {
		if r.settings[name] == nil {
			r.settings[name] = make(Section)
		}
		for key, value := range section {
			r.settings[name][key] = value
		}
	}
}

func (r *Runner) run(modules []Module, stagingRoot string) (
	[]proto.ModuleResult, error) {
	results := make([]proto.ModuleResult, 0, len(modules))
	var firstError error
	for _, module := range modules {
		result, err := r.runModule(module, stagingRoot)
		results = append(results, result)
		if err == nil {
			continue
		}
		if firstError == nil {
			firstError = err
		}
		if !r.ContinueOnError {
			break
		}
	}
	return results, firstError
}

func (r *Runner) runModule(module Module, stagingRoot string) (
	proto.ModuleResult, error) {
	result := proto.ModuleResult{Name: module.Name, Kind: module.Kind}
	switch module.Kind {
	case proto.ModuleKindDeclarative:
		r.merge(module.Settings)
		r.Logger.Debugf(0, "applied settings from: %s\n", module.Name)
		return result, nil
	case proto.ModuleKindExecutable:
	default:
		return result, fmt.Errorf("unsupported module kind: %s", module.Kind)
	}
	if module.Mode&0111 == 0 {
		r.Logger.Printf("skipping non-executable module: %s\n", module.Name)
		result.Skipped = true
		result.Error = "not executable"
		return result, nil
	}
	r.Logger.Printf("running module: %s\n", module.Name)
	startTime := time.Now()
	output, err := r.Host.Run(host.Command{
		Name: "/bin/sh",
		Args: []string{"-e", module.Path},
		Dir:  stagingRoot,
		Env:  []string{TargetEnvironmentVariable + "=" + stagingRoot},
	})
	result.Ran = true
	result.Output = strings.TrimSpace(string(output))
	if err != nil {
		result.ExitStatus = host.ExitCode(err)
		result.Error = err.Error()
		return result, &Error{
			Module:     module.Name,
			ExitStatus: result.ExitStatus,
			Err:        err,
		}
	}
	r.Logger.Debugf(0, "module: %s completed in %s\n",
		module.Name, format.Duration(time.Since(startTime)))
	return result, nil
}
