package installer

import (
	"time"
)

const (
	FileSystemTypeExt4 FileSystemType = iota
	FileSystemTypeVfat
)

const (
	StageNone Stage = iota
	StageDeviceInventory
	StagePartitionExecutor
	StageFilesystem
	StageTreeCopier
	StageSystemFinalizer
	StageModuleRunner
)

const (
	ModuleKindDeclarative ModuleKind = iota
	ModuleKindExecutable
)

type FileSystemType uint

// Stage identifies a step of the installation pipeline.
type Stage uint

type ModuleKind uint

// BlockDevice is a snapshot of a candidate target disk at enumeration time.
type BlockDevice struct {
	Name       string
	Path       string
	Size       uint64 // Bytes.
	HumanSize  string
	Model      string    `json:",omitempty"`
	Transport  string    `json:",omitempty"`
	Removable  bool      `json:",omitempty"`
	Enumerated time.Time `json:"-"`
}

type PartitionSpec struct {
	Index          uint
	SizeBytes      uint64 `json:",omitempty"` // Zero: remaining space.
	FileSystemType FileSystemType
	Label          string
	MountPoint     string
	TypeCode       string // GPT partition type code, e.g. "ef00".
}

type PartitionPlan struct {
	Device     string
	Partitions []PartitionSpec
}

type MountPoint struct {
	Device         string
	Target         string
	FileSystemType FileSystemType
}

type StageEvent struct {
	Stage   Stage
	Success bool
	Message string
	Time    time.Time
}

type InstallRequest struct {
	Device                string
	Confirmed             bool
	ContinueOnModuleError bool   `json:",omitempty"`
	Hostname              string `json:",omitempty"`
	ModuleDirectory       string `json:",omitempty"`
	SettingsFile          string `json:",omitempty"`
	StagingRoot           string `json:",omitempty"`
	Unmount               bool   `json:",omitempty"`
}

type ModuleResult struct {
	Name       string
	Kind       ModuleKind
	Ran        bool   `json:",omitempty"`
	Skipped    bool   `json:",omitempty"`
	ExitStatus int    `json:",omitempty"`
	Output     string `json:",omitempty"`
	Error      string `json:",omitempty"`
}

// Settings are the installation preferences read from the settings file.
type Settings struct {
	Desktop           string
	AutoMirror        bool `gcfg:"auto-mirror"`
	EnableFirewall    bool `gcfg:"enable-firewall"`
	InstallRecommends bool `gcfg:"install-recommends"`
	NoCheck           bool `gcfg:"no-check"`
	Theme             string
}

type InstallResult struct {
	RunId         string
	Device        string
	Stage         Stage // Last stage reached.
	Success       bool
	Message       string
	Indeterminate bool     `json:",omitempty"`
	Output        []string `json:",omitempty"`
	Events        []StageEvent
	Settings      *Settings      `json:",omitempty"`
	Modules       []ModuleResult `json:",omitempty"`
	// Merged settings of the declarative modules, by section.
	ModuleSettings map[string]map[string]string `json:",omitempty"`
	StartTime      time.Time
	Duration       time.Duration
}
