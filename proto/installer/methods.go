package installer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

const (
	fileSystemTypeUnknown = "UNKNOWN FileSystemType"
)

var (
	fileSystemTypeToText = map[FileSystemType]string{
		FileSystemTypeExt4: "ext4",
		FileSystemTypeVfat: "vfat",
	}
	textToFileSystemType map[string]FileSystemType

	stageToText = map[Stage]string{
		StageNone:              "None",
		StageDeviceInventory:   "DeviceInventory",
		StagePartitionExecutor: "PartitionExecutor",
		StageFilesystem:        "FilesystemStage",
		StageTreeCopier:        "TreeCopier",
		StageSystemFinalizer:   "SystemFinalizer",
		StageModuleRunner:      "ModuleRunner",
	}

	moduleKindToText = map[ModuleKind]string{
		ModuleKindDeclarative: "declarative",
		ModuleKindExecutable:  "executable",
	}
)

func init() {
	textToFileSystemType = make(map[string]FileSystemType,
		len(fileSystemTypeToText))
	for fileSystemType, text := range fileSystemTypeToText {
		textToFileSystemType[text] = fileSystemType
	}
}

func (fileSystemType FileSystemType) MarshalText() ([]byte, error) {
	if text := fileSystemType.String(); text == fileSystemTypeUnknown {
		return nil, errors.New(text)
	} else {
		return []byte(text), nil
	}
}

func (fileSystemType *FileSystemType) Set(value string) error {
	if val, ok := textToFileSystemType[value]; !ok {
		return errors.New(fileSystemTypeUnknown)
	} else {
		*fileSystemType = val
		return nil
	}
}

func (fileSystemType FileSystemType) String() string {
	if str, ok := fileSystemTypeToText[fileSystemType]; !ok {
		return fileSystemTypeUnknown
	} else {
		return str
	}
}

func (fileSystemType *FileSystemType) UnmarshalText(text []byte) error {
	return fileSystemType.Set(string(text))
}

func (kind ModuleKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

func (kind *ModuleKind) UnmarshalText(text []byte) error {
	for val, str := range moduleKindToText {
		if str == string(text) {
			*kind = val
			return nil
		}
	}
	return errors.New("unknown module kind: " + string(text))
}

func (kind ModuleKind) String() string {
	if str, ok := moduleKindToText[kind]; ok {
		return str
	}
	return "UNKNOWN ModuleKind " + strconv.FormatUint(uint64(kind), 10)
}

func (stage Stage) MarshalText() ([]byte, error) {
	return []byte(stage.String()), nil
}

func (stage *Stage) UnmarshalText(text []byte) error {
	for val, str := range stageToText {
		if str == string(text) {
			*stage = val
			return nil
		}
	}
	return errors.New("unknown stage: " + string(text))
}

func (stage Stage) String() string {
	if str, ok := stageToText[stage]; ok {
		return str
	}
	return "UNKNOWN Stage " + strconv.FormatUint(uint64(stage), 10)
}

// PartitionDevice returns the device node name of partition number index on
// disk. The name is derived purely from the disk name: a "p" separator is
// used when the disk name ends in a digit (e.g. nvme0n1p1, mmcblk0p1).
func PartitionDevice(disk string, index uint) string {
	number := strconv.FormatUint(uint64(index), 10)
	if base := filepath.Base(disk); base != "" {
		if last := base[len(base)-1]; last >= '0' && last <= '9' {
			return disk + "p" + number
		}
	}
	return disk + number
}

// PartitionDevice returns the device node name for the partition spec.
func (plan PartitionPlan) PartitionDevice(spec PartitionSpec) string {
	return PartitionDevice(plan.Device, spec.Index)
}

// String renders a human-readable description of the plan.
func (plan PartitionPlan) String() string {
	out := fmt.Sprintf("Partition plan for %s:\n", plan.Device)
	for _, part := range plan.Partitions {
		size := "rest"
		if part.SizeBytes > 0 {
			size = fmt.Sprintf("%d MiB", part.SizeBytes>>20)
		}
		out += fmt.Sprintf("  %-16s %-8s %-5s %-8s %s\n",
			plan.PartitionDevice(part), size, part.FileSystemType,
			part.Label, part.MountPoint)
	}
	return out
}

func (event StageEvent) String() string {
	status := "ok"
	if !event.Success {
		status = "FAILED"
	}
	if event.Message == "" {
		return fmt.Sprintf("%s: %s", event.Stage, status)
	}
	return fmt.Sprintf("%s: %s: %s", event.Stage, status, event.Message)
}

// Validate checks that the plan has exactly one EFI partition of exactly
// 512 MiB, followed by exactly one root partition using the remaining space.
func (plan PartitionPlan) Validate() error {
	if len(plan.Partitions) != 2 {
		return fmt.Errorf("plan has %d partitions, expected 2",
			len(plan.Partitions))
	}
	efi := plan.Partitions[0]
	if efi.Index != 1 || efi.FileSystemType != FileSystemTypeVfat ||
		efi.SizeBytes != 512<<20 || efi.MountPoint != "/boot" {
		return fmt.Errorf("first partition is not a 512 MiB EFI partition: %+v",
			efi)
	}
	root := plan.Partitions[1]
	if root.Index != 2 || root.FileSystemType != FileSystemTypeExt4 ||
		root.SizeBytes != 0 || root.MountPoint != "/" {
		return fmt.Errorf("second partition is not a root partition using the remaining space: %+v",
			root)
	}
	return nil
}
