// Package fakehost implements the host capabilities in memory. Every call is
// recorded and failures may be injected, so that stages can be tested without
// block devices or privileges.
package fakehost

import (
	"strconv"
	"sync"
	"time"

	"github.com/stormos/installer/installer/host"
	proto "github.com/stormos/installer/proto/installer"
)

// ExitError is returned by Run for injected command failures.
type ExitError struct {
	Status int
}

type failure struct {
	prefix string
	err    error
}

type Host struct {
	mutex     sync.Mutex
	calls     []string
	failures  []failure
	formatted map[string]proto.FileSystemType
	mounted   map[string]string // Key: target, value: source.
	outputs   map[string][]byte
	uuids     map[string]string
}

func New() *Host {
	return &Host{
		formatted: make(map[string]proto.FileSystemType),
		mounted:   make(map[string]string),
		outputs:   make(map[string][]byte),
		uuids:     make(map[string]string),
	}
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Status)
}

func (e *ExitError) ExitCode() int {
	return e.Status
}

// Calls returns the recorded calls, in order.
func (h *Host) Calls() []string {
	return h.getCalls()
}

// Fail causes every later call whose record begins with prefix to fail with
// err. Injected failures are not recorded as calls.
func (h *Host) Fail(prefix string, err error) {
	h.fail(prefix, err)
}

// Mounted returns the mount targets which are currently mounted.
func (h *Host) Mounted() []string {
	return h.getMounted()
}

// SetOutput sets the output returned when running the named programme.
func (h *Host) SetOutput(name string, output []byte) {
	h.setOutput(name, output)
}

// SetUUID overrides the UUID reported for device.
func (h *Host) SetUUID(device, uuid string) {
	h.setUUID(device, uuid)
}

func (h *Host) Run(cmd host.Command) ([]byte, error) {
	return h.run(cmd)
}

func (h *Host) Zap(device string) error {
	return h.record("zap " + device)
}

func (h *Host) CreatePartition(device string,
	partition proto.PartitionSpec) error {
	return h.createPartition(device, partition)
}

func (h *Host) Reread(device string) error {
	return h.record("reread " + device)
}

func (h *Host) WaitForDevice(device string, timeout time.Duration) error {
	return h.record("wait " + device)
}

func (h *Host) Format(device string, fsType proto.FileSystemType,
	label string) error {
	return h.format(device, fsType, label)
}

func (h *Host) UUID(device string) (string, error) {
	return h.uuid(device)
}

func (h *Host) Mount(device, target string,
	fsType proto.FileSystemType) error {
	return h.mount(device, target, fsType)
}

func (h *Host) BindMount(source, target string) error {
	return h.bindMount(source, target)
}

func (h *Host) Detach(target string) error {
	return h.detach(target)
}

func (h *Host) Unmount(target string) error {
	return h.unmount(target)
}

func (h *Host) IsMounted(path string) (bool, error) {
	return h.isMounted(path)
}
