// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package iax

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// NodeUnknown is the NUMA locality the kernel reports when it cannot
// place a device. Virtualized guests and machines booted with NUMA
// disabled both report -1.
const NodeUnknown = -1

// Device is one analytics accelerator as the idxd driver exposes it.
type Device struct {
	// ID is the numeric suffix of the sysfs name (iax1 has ID 1).
	ID int
	// Node is the NUMA node the device is attached to, or NodeUnknown.
	Node int
	// State is the device state attribute, normally "enabled" or
	// "disabled".
	State string
	// WorkQueues lists the device's work queues ordered by index.
	WorkQueues []WorkQueue
}

// WorkQueue is one submission queue of a device.
type WorkQueue struct {
	DeviceID int
	Index    int
	// Mode is "dedicated" or "shared".
	Mode string
	// Size is the queue depth in descriptors.
	Size  int
	State string
}

// DevicePath returns the character device through which descriptors
// are submitted to this queue.
func (w WorkQueue) DevicePath() string {
	return fmt.Sprintf("/dev/iax/wq%d.%d", w.DeviceID, w.Index)
}

// EnabledWorkQueues returns the device's queues whose state is
// "enabled", in index order.
func (d Device) EnabledWorkQueues() []WorkQueue {
	var enabled []WorkQueue
	for _, queue := range d.WorkQueues {
		if queue.State == "enabled" {
			enabled = append(enabled, queue)
		}
	}
	return enabled
}

// Enumerator holds a point-in-time snapshot of the accelerator devices
// on the dsa bus. Construct with NewEnumerator; the snapshot does not
// refresh.
type Enumerator struct {
	devices []Device

	// getcpu reports the CPU and NUMA node the calling thread is
	// running on. Wired to getcpu(2) by NewEnumerator; replaced in
	// tests.
	getcpu func() (cpu, node int, err error)
}

// newEnumeratorFrom snapshots the dsa bus under a custom sysfs root.
// A missing or unreadable bus directory yields an empty snapshot, not
// an error: machines without the idxd driver simply have no devices.
func newEnumeratorFrom(sysRoot string) *Enumerator {
	base := filepath.Join(sysRoot, "bus/dsa/devices")
	entries, err := os.ReadDir(base)
	if err != nil {
		return &Enumerator{}
	}

	byID := make(map[int]*Device)
	var ids []int
	for _, entry := range entries {
		id, ok := parseDeviceName(entry.Name())
		if !ok {
			continue
		}
		devicePath := filepath.Join(base, entry.Name())
		byID[id] = &Device{
			ID:    id,
			Node:  readNUMANode(devicePath),
			State: readSysfsString(filepath.Join(devicePath, "state")),
		}
		ids = append(ids, id)
	}

	// Work queues appear as separate bus devices (wq<dev>.<index>)
	// alongside their parent. Queues of non-analytics devices (dsa<N>)
	// have no matching entry in byID and are skipped.
	for _, entry := range entries {
		deviceID, index, ok := parseQueueName(entry.Name())
		if !ok {
			continue
		}
		device, ok := byID[deviceID]
		if !ok {
			continue
		}
		queuePath := filepath.Join(base, entry.Name())
		device.WorkQueues = append(device.WorkQueues, WorkQueue{
			DeviceID: deviceID,
			Index:    index,
			Mode:     readSysfsString(filepath.Join(queuePath, "mode")),
			Size:     readSysfsInt(filepath.Join(queuePath, "size")),
			State:    readSysfsString(filepath.Join(queuePath, "state")),
		})
	}

	sort.Ints(ids)
	devices := make([]Device, 0, len(ids))
	for _, id := range ids {
		device := byID[id]
		sort.Slice(device.WorkQueues, func(i, j int) bool {
			return device.WorkQueues[i].Index < device.WorkQueues[j].Index
		})
		devices = append(devices, *device)
	}
	return &Enumerator{devices: devices}
}

// Devices returns the snapshotted devices, ordered by ID.
func (e *Enumerator) Devices() []Device {
	return e.devices
}

// Count returns the number of devices in the snapshot.
func (e *Enumerator) Count() int {
	return len(e.devices)
}

// CountNode returns the number of devices local to the given NUMA
// node. A device whose locality is NodeUnknown counts toward every
// node: excluding such devices would make locality-filtered runs find
// no hardware at all on machines where the kernel cannot report
// placement.
func (e *Enumerator) CountNode(node int) int {
	count := 0
	for _, device := range e.devices {
		if device.Node == node || device.Node == NodeUnknown {
			count++
		}
	}
	return count
}

// CurrentNode returns the NUMA node of the CPU the calling goroutine
// happens to be running on. The result is a point-in-time read via
// getcpu(2): the scheduler may migrate the thread immediately after,
// so the value is advisory unless the caller has pinned affinity
// first (see PinToNode).
func (e *Enumerator) CurrentNode() (int, error) {
	if e.getcpu == nil {
		return NodeUnknown, errors.New("getcpu is not available on this platform")
	}
	_, node, err := e.getcpu()
	if err != nil {
		return NodeUnknown, fmt.Errorf("getcpu: %w", err)
	}
	return node, nil
}

// CountCurrentNode counts the devices local to the node the calling
// goroutine is currently running on. Subject to the same migration
// caveat as CurrentNode.
func (e *Enumerator) CountCurrentNode() (int, error) {
	node, err := e.CurrentNode()
	if err != nil {
		return 0, err
	}
	return e.CountNode(node), nil
}

// parseDeviceName extracts the numeric ID from an analytics device
// name (iax1, iax3, ...). Other bus entries (dsa0, engine1.0, wq1.0)
// do not match.
func parseDeviceName(name string) (id int, ok bool) {
	suffix, found := strings.CutPrefix(name, "iax")
	if !found || !allDigits(suffix) {
		return 0, false
	}
	id, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseQueueName extracts the device ID and queue index from a work
// queue name (wq1.0, wq1.4, ...).
func parseQueueName(name string) (deviceID, index int, ok bool) {
	suffix, found := strings.CutPrefix(name, "wq")
	if !found {
		return 0, 0, false
	}
	devicePart, indexPart, found := strings.Cut(suffix, ".")
	if !found || !allDigits(devicePart) || !allDigits(indexPart) {
		return 0, 0, false
	}
	deviceID, err := strconv.Atoi(devicePart)
	if err != nil {
		return 0, 0, false
	}
	index, err = strconv.Atoi(indexPart)
	if err != nil {
		return 0, 0, false
	}
	return deviceID, index, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, character := range s {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// readNUMANode reads the device's numa_node attribute. A missing or
// unparseable attribute reads as NodeUnknown, the same value the
// kernel writes when locality is not known.
func readNUMANode(devicePath string) int {
	value := readSysfsString(filepath.Join(devicePath, "numa_node"))
	if value == "" {
		return NodeUnknown
	}
	node, err := strconv.Atoi(value)
	if err != nil {
		return NodeUnknown
	}
	return node
}

// parseCPUList parses the kernel's cpulist format ("0-3,8,10-11") into
// the individual CPU numbers.
func parseCPUList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, errors.New("empty cpu list")
	}
	var cpus []int
	for _, part := range strings.Split(list, ",") {
		first, last, isRange := strings.Cut(part, "-")
		lo, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("cpu list entry %q: %w", part, err)
		}
		hi := lo
		if isRange {
			hi, err = strconv.Atoi(last)
			if err != nil {
				return nil, fmt.Errorf("cpu list entry %q: %w", part, err)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("cpu list entry %q: range is reversed", part)
		}
		for cpu := lo; cpu <= hi; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// readSysfsString reads a single-line sysfs file and returns its
// trimmed content. Returns "" on any error.
func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readSysfsInt reads an integer from a sysfs file. Returns 0 on error.
func readSysfsInt(path string) int {
	value := readSysfsString(path)
	if value == "" {
		return 0
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}
