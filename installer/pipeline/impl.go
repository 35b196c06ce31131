package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/stormos/installer/installer/copier"
	"github.com/stormos/installer/installer/finalize"
	"github.com/stormos/installer/installer/fsstage"
	"github.com/stormos/installer/installer/inventory"
	"github.com/stormos/installer/installer/modules"
	"github.com/stormos/installer/installer/partition"
	"github.com/stormos/installer/installer/settings"
	"github.com/stormos/installer/lib/format"
	"github.com/stormos/installer/lib/fsutil"
	"github.com/stormos/installer/lib/json"
	proto "github.com/stormos/installer/proto/installer"
)

// runState holds the state of a single installation.
type runState struct {
	*Installer
	request     proto.InstallRequest
	stagingRoot string
	result      proto.InstallResult
	events      func(proto.StageEvent)
	device      proto.BlockDevice
	plan        proto.PartitionPlan
	mounts      []proto.MountPoint
	modules     []modules.Module
	runner      *modules.Runner
	exclusions  []string
	copyStats   copier.Stats
	releasers   []func()
}

func newInstaller(config Config) *Installer {
	registerMetrics()
	return &Installer{
		config:      config,
		busyDevices: make(map[string]struct{}),
	}
}

func (i *Installer) claimDevice(device string) bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if _, ok := i.busyDevices[device]; ok {
		return false
	}
	i.busyDevices[device] = struct{}{}
	return true
}

func (i *Installer) releaseDevice(device string) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	delete(i.busyDevices, device)
}

func (i *Installer) run(ctx context.Context, request proto.InstallRequest,
	events func(proto.StageEvent)) *proto.InstallResult {
	recordRunStart()
	stagingRoot := request.StagingRoot
	if stagingRoot == "" {
		stagingRoot = DefaultStagingRoot
	}
	state := &runState{
		Installer:   i,
		request:     request,
		stagingRoot: filepath.Clean(stagingRoot),
		events:      events,
		result: proto.InstallResult{
			RunId:     uuid.NewString(),
			Device:    request.Device,
			StartTime: time.Now(),
		},
	}
	i.config.Logger.Printf("starting installation: %s onto: %s\n",
		state.result.RunId, request.Device)
	err := state.install(ctx)
	state.finish(err)
	recordResult(&state.result)
	result := state.result
	return &result
}

func (i *Installer) start(ctx context.Context,
	request proto.InstallRequest) *Handle {
	eventChannel := make(chan proto.StageEvent, len(instrumentedStages))
	handle := &Handle{Events: eventChannel, done: make(chan struct{})}
	go func() {
		handle.result = i.run(ctx, request, func(event proto.StageEvent) {
			eventChannel <- event
		})
		close(eventChannel)
		close(handle.done)
	}()
	return handle
}

func (s *runState) cleanup() {
	logger := s.config.Logger
	addOutput := func(format string, v ...interface{}) {
		message := fmt.Sprintf(format, v...)
		logger.Println(message)
		s.result.Output = append(s.result.Output, message)
	}
	if len(s.mounts) > 0 && !s.config.DryRun {
		logdir := filepath.Join(s.stagingRoot, "var", "log", "installer")
		if err := os.MkdirAll(logdir, fsutil.DirPerms); err != nil {
			addOutput("error creating log directory: %s", err)
		} else {
			if err := s.copyLog(logdir); err != nil {
				addOutput("error copying logs: %s", err)
			}
			err := json.WriteToFile(filepath.Join(logdir, "result.json"),
				fsutil.PublicFilePerms, "    ", s.result)
			if err != nil {
				addOutput("error writing result: %s", err)
			}
		}
	}
	if s.result.Stage >= proto.StageSystemFinalizer {
		err := finalize.ReleaseBindMounts(s.config.Host, s.stagingRoot, logger)
		if err != nil {
			addOutput("error releasing bind mounts: %s", err)
		}
	}
	if s.request.Unmount && len(s.mounts) > 0 {
		if err := fsstage.Unmount(s.config.Host, s.mounts, logger); err != nil {
			addOutput("%s", err)
		}
	}
}

func (s *runState) copyLog(logdir string) error {
	if s.config.LogFilename == "" {
		return nil
	}
	if s.config.LogFlusher != nil {
		s.config.LogFlusher.Flush()
	}
	return fsutil.CopyFile(filepath.Join(logdir, "log"), s.config.LogFilename,
		fsutil.PublicFilePerms)
}

func (s *runState) finish(err error) {
	logger := s.config.Logger
	s.result.Success = err == nil
	if err != nil {
		s.result.Message = err.Error()
		var partitionError *partition.Error
		if errors.As(err, &partitionError) {
			s.result.Indeterminate = partitionError.Indeterminate
		}
		logger.Printf("installation failed at stage: %s: %s\n",
			s.result.Stage, err)
	} else {
		s.result.Message = "installation completed"
	}
	s.result.Duration = time.Since(s.result.StartTime)
	s.cleanup()
	for index := len(s.releasers) - 1; index >= 0; index-- {
		s.releasers[index]()
	}
	if err == nil {
		logger.Printf("installation completed in %s\n",
			format.Duration(s.result.Duration))
	}
}

func (s *runState) install(ctx context.Context) error {
	err := s.runStage(proto.StageDeviceInventory, s.selectDevice)
	if err != nil {
		return err
	}
	if !s.request.Confirmed {
		return ErrNotConfirmed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("installation cancelled: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}
	if !s.claimDevice(s.device.Path) {
		return ErrDeviceBusy
	}
	devicePath := s.device.Path
	s.releasers = append(s.releasers,
		func() { s.releaseDevice(devicePath) })
	unlock, err := s.lockStagingRoot()
	if err != nil {
		return err
	}
	s.releasers = append(s.releasers, unlock)
	// Past this point cancellation is ignored.
	stages := []struct {
		stage proto.Stage
		fn    func() error
	}{
		{proto.StagePartitionExecutor, s.partition},
		{proto.StageFilesystem, s.formatAndMount},
		{proto.StageTreeCopier, s.copyTree},
		{proto.StageSystemFinalizer, s.finalize},
		{proto.StageModuleRunner, s.runModules},
	}
	for _, stage := range stages {
		if err := s.runStage(stage.stage, stage.fn); err != nil {
			return err
		}
	}
	return nil
}

// prepare loads the settings and scans the modules so that problems with
// them are reported before the device is changed.
func (s *runState) prepare() error {
	if err := s.loadExclusions(); err != nil {
		return err
	}
	if filename := s.request.SettingsFile; filename != "" {
		loaded, err := settings.Load(filename)
		if err != nil {
			return fmt.Errorf("error loading settings: %s", err)
		}
		s.result.Settings = loaded
		s.config.Logger.Printf("desktop: %s, theme: %s\n",
			loaded.Desktop, loaded.Theme)
	}
	if dir := s.request.ModuleDirectory; dir != "" {
		scanned, err := modules.Scan(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("error scanning modules: %s", err)
			}
			s.config.Logger.Printf("no module directory: %s\n", dir)
		}
		s.modules = scanned
	}
	s.runner = &modules.Runner{
		Host:            s.config.Host,
		Logger:          s.config.Logger,
		ContinueOnError: s.request.ContinueOnModuleError,
	}
	s.runner.Merge(s.modules)
	if merged := s.runner.Settings(); len(merged) > 0 {
		s.result.ModuleSettings = make(map[string]map[string]string,
			len(merged))
		for name, section := range merged {
			s.result.ModuleSettings[name] = section
		}
		s.config.Logger.Debugf(0, "module settings: %v\n", merged)
	}
	return nil
}

func (s *runState) loadExclusions() error {
	exclusions := s.config.Exclusions
	if exclusions == nil {
		exclusions = copier.DefaultExclusions
	}
	if filename := s.config.ExclusionsFile; filename != "" {
		lines, err := fsutil.LoadLines(filename)
		if err != nil {
			return fmt.Errorf("error loading exclusions: %s", err)
		}
		exclusions = append(append([]string(nil), exclusions...), lines...)
	}
	if _, err := copier.NewExclusions(exclusions); err != nil {
		return err
	}
	s.exclusions = exclusions
	return nil
}

func (s *runState) runStage(stage proto.Stage, fn func() error) error {
	s.result.Stage = stage
	startTime := time.Now()
	s.config.Logger.Debugf(0, "starting stage: %s\n", stage)
	err := fn()
	duration := time.Since(startTime)
	recordStageTime(stage, duration)
	event := proto.StageEvent{Stage: stage, Success: err == nil, Time: time.Now()}
	if err != nil {
		event.Message = err.Error()
	} else {
		event.Message = "completed in " + format.Duration(duration)
		s.config.Logger.Printf("%s %s\n", stage, event.Message)
	}
	s.result.Events = append(s.result.Events, event)
	if s.events != nil {
		s.events(event)
	}
	return err
}

func (s *runState) selectDevice() error {
	devices, err := inventory.List(s.config.Host, s.config.Logger)
	if err != nil {
		return err
	}
	device, ok := inventory.Find(devices, s.request.Device)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, s.request.Device)
	}
	s.device = device
	s.result.Device = device.Path
	s.config.Logger.Printf("selected: %s (%s %s)\n",
		device.Path, device.HumanSize, device.Model)
	return nil
}

func (s *runState) partition() error {
	s.plan = partition.Plan(s.device.Path)
	s.config.Logger.Debugf(0, "%s", s.plan)
	token := partition.Confirm(s.device.Path, s.request.Confirmed)
	return partition.Apply(s.config.Host, s.device.Path, s.plan, token,
		s.config.Logger)
}

func (s *runState) formatAndMount() error {
	mounts, err := fsstage.FormatAndMount(s.config.Host, s.plan,
		s.stagingRoot, s.config.Logger)
	s.mounts = mounts
	return err
}

func (s *runState) copyTree() error {
	c := &copier.Copier{
		SourceRoot: s.config.SourceRoot,
		DryRun:     s.config.DryRun,
		Logger:     s.config.Logger,
	}
	stats, err := c.CopyLiveTree(s.exclusions, s.stagingRoot)
	s.copyStats = stats
	recordCopyStats(stats)
	if err != nil {
		return err
	}
	s.config.Logger.Printf(
		"copied %d files, %d symlinks, %d directories (%d unchanged, %d skipped)\n",
		stats.Files, stats.Symlinks, stats.Directories, stats.Unchanged,
		stats.Specials)
	return nil
}

func (s *runState) finalize() error {
	f := &finalize.Finalizer{
		Host:     s.config.Host,
		Logger:   s.config.Logger,
		DryRun:   s.config.DryRun,
		Hostname: s.request.Hostname,
	}
	return f.Finalize(s.stagingRoot, s.mounts)
}

func (s *runState) runModules() error {
	results, err := s.runner.Run(s.modules, s.stagingRoot)
	s.result.Modules = results
	return err
}
