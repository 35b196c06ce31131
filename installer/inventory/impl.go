package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stormos/installer/installer/host"
	"github.com/stormos/installer/lib/log"
	proto "github.com/stormos/installer/proto/installer"
)

var lsblkArgs = []string{
	"--json", "--bytes", "--nodeps",
	"--output", "NAME,PATH,SIZE,MODEL,TYPE,RO,RM,TRAN",
}

// Older versions of lsblk encode every column as a string.
type flexBool bool
type flexUint uint64

type lsblkDevice struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Size      flexUint `json:"size"`
	Model     *string  `json:"model"`
	Type      string   `json:"type"`
	ReadOnly  flexBool `json:"ro"`
	Removable flexBool `json:"rm"`
	Transport *string  `json:"tran"`
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

func find(devices []proto.BlockDevice, path string) (proto.BlockDevice, bool) {
	path = filepath.Clean(path)
	for _, device := range devices {
		if device.Path == path {
			return device, true
		}
	}
	return proto.BlockDevice{}, false
}

func list(runner host.Runner, logger log.DebugLogger) (
	[]proto.BlockDevice, error) {
	output, err := runner.Run(host.Command{
		Name:  "lsblk",
		Args:  lsblkArgs,
		Query: true,
	})
	if err != nil {
		return nil, &QueryError{err}
	}
	devices, err := parse(output, time.Now(), logger)
	if err != nil {
		return nil, &QueryError{err}
	}
	return devices, nil
}

func parse(data []byte, now time.Time, logger log.DebugLogger) (
	[]proto.BlockDevice, error) {
	if len(bytes.TrimSpace(data)) < 1 {
		return nil, errors.New("no output from lsblk")
	}
	var output lsblkOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("error decoding lsblk output: %s", err)
	}
	devices := make([]proto.BlockDevice, 0, len(output.BlockDevices))
	for _, entry := range output.BlockDevices {
		if entry.Type != "disk" {
			logger.Debugf(2, "skipping %s: %s\n", entry.Type, entry.Name)
			continue
		}
		if entry.ReadOnly {
			logger.Debugf(2, "skipping read-only device: %s\n", entry.Name)
			continue
		}
		path := entry.Path
		if path == "" {
			path = filepath.Join("/dev", entry.Name)
		}
		device := proto.BlockDevice{
			Name:       entry.Name,
			Path:       path,
			Size:       uint64(entry.Size),
			HumanSize:  humanize.IBytes(uint64(entry.Size)),
			Removable:  bool(entry.Removable),
			Enumerated: now,
		}
		if entry.Model != nil {
			device.Model = *entry.Model
		}
		if entry.Transport != nil {
			device.Transport = *entry.Transport
		}
		logger.Debugf(1, "found: %s %s %s\n",
			device.Path, device.HumanSize, device.Model)
		devices = append(devices, device)
	}
	return devices, nil
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"1"`, "1":
		*b = true
	case "false", `"0"`, "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean: %s", data)
	}
	return nil
}

func (u *flexUint) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		*u = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size: %s", data)
	}
	*u = flexUint(value)
	return nil
}
