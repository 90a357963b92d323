// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/klauspost/cpuid/v2"
)

// clustersPerSocket is the fixed cluster count the cores-per-cluster
// figure is derived from. Sapphire Rapids packages four compute
// clusters per socket; the value is carried from that generation as
// an approximation, not discovered from the hardware.
const clustersPerSocket = 4

// Info returns the host snapshot, building it on first call. The
// build runs at most once: concurrent first callers block until one
// of them finishes, and every caller afterward gets the same pointer.
// The only fatal condition is an unreadable /proc/cpuinfo; every
// other source degrades to zero-valued fields.
func (p *Probe) Info() (*SystemInfo, error) {
	p.once.Do(func() {
		p.builds++
		p.info, p.err = p.build()
	})
	return p.info, p.err
}

func (p *Probe) build() (*SystemInfo, error) {
	info := &SystemInfo{}
	info.Hostname, _ = os.Hostname()
	info.KernelRelease = readKernelRelease()

	if err := p.scanCPUInfo(&info.CPU); err != nil {
		return nil, err
	}
	info.CPU.PhysicalCores = info.CPU.CoresPerSocket * info.CPU.Sockets
	info.CPU.CoresPerCluster = info.CPU.CoresPerSocket / clustersPerSocket

	cpuBase := filepath.Join(p.sysRoot, "devices/system/cpu")
	info.CPU.L2CacheKB = readCacheSize(filepath.Join(cpuBase, "cpu0/cache/index2/size"))
	info.CPU.L3CacheKB = readCacheSize(filepath.Join(cpuBase, "cpu0/cache/index3/size"))
	info.CPU.Features = submissionFeatures()

	info.MemoryTotalMB, info.SwapTotalMB = probeMemory()
	info.NUMANodes = countNUMANodes(p.sysRoot)

	// The original topology convention treats the socket index as
	// the NUMA node when counting devices. Unknown-locality devices
	// therefore show up under every socket.
	if p.counter != nil {
		for socket := 0; socket < info.CPU.Sockets; socket++ {
			count := p.counter.CountNode(socket)
			info.Accelerators.PerSocket = append(info.Accelerators.PerSocket, count)
			info.Accelerators.TotalDevices += count
		}
	}

	return info, nil
}

// scanCPUInfo streams /proc/cpuinfo and accumulates topology fields.
// Each line is either blank, "key : value", or ignored. "processor"
// increments the logical core count; "physical id" tracks the highest
// socket index; "cpu cores" takes the first non-zero value; the
// identity fields take their first occurrence and ignore later
// duplicates.
func (p *Probe) scanCPUInfo(cpu *CPUInfo) error {
	path := filepath.Join(p.procRoot, "cpuinfo")
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening cpu topology source: %w", err)
	}
	defer file.Close()

	var seenModelName, seenModel, seenMicrocode, seenStepping bool

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "processor":
			cpu.LogicalCores++
		case "physical id":
			if id, err := strconv.Atoi(value); err == nil && id+1 > cpu.Sockets {
				cpu.Sockets = id + 1
			}
		case "cpu cores":
			if cpu.CoresPerSocket == 0 {
				if cores, err := strconv.Atoi(value); err == nil {
					cpu.CoresPerSocket = cores
				}
			}
		case "model name":
			if !seenModelName {
				seenModelName = true
				cpu.ModelName = value
			}
		case "model":
			if !seenModel {
				seenModel = true
				if model, err := strconv.Atoi(value); err == nil {
					cpu.Model = model
				}
			}
		case "microcode":
			if !seenMicrocode {
				seenMicrocode = true
				if revision, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 64); err == nil {
					cpu.Microcode = revision
				}
			}
		case "stepping":
			if !seenStepping {
				seenStepping = true
				if stepping, err := strconv.Atoi(value); err == nil {
					cpu.Stepping = stepping
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading cpu topology source: %w", err)
	}
	return nil
}

// submissionFeatures reports the detected ISA extensions that matter
// for this workload: MOVDIR64B fills dedicated work queues, ENQCMD
// shared ones, and the AVX-512 families gate the optimized software
// fallback kernels.
func submissionFeatures() []string {
	var features []string
	for _, feature := range []cpuid.FeatureID{
		cpuid.MOVDIR64B,
		cpuid.ENQCMD,
		cpuid.AVX512F,
		cpuid.AVX512VL,
		cpuid.AVX512BW,
		cpuid.AVX512DQ,
	} {
		if cpuid.CPU.Supports(feature) {
			features = append(features, feature.String())
		}
	}
	return features
}

// readKernelRelease returns the kernel release string from uname(2).
func readKernelRelease() string {
	var utsname syscall.Utsname
	if err := syscall.Uname(&utsname); err != nil {
		return ""
	}
	return utsNameToString(utsname.Release)
}

// utsNameToString converts a syscall.Utsname field to a Go string,
// stopping at the first null byte. The element type varies by
// architecture (int8 on amd64, uint8 on arm64).
func utsNameToString[E int8 | uint8](field [65]E) string {
	var buffer []byte
	for _, value := range field {
		if value == 0 {
			break
		}
		buffer = append(buffer, byte(value))
	}
	return string(buffer)
}

// probeMemory returns total RAM and swap in megabytes from sysinfo(2).
func probeMemory() (memoryTotalMB, swapTotalMB int) {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		return 0, 0
	}
	unit := uint64(info.Unit)
	memoryTotalMB = int(uint64(info.Totalram) * unit / (1024 * 1024))
	swapTotalMB = int(uint64(info.Totalswap) * unit / (1024 * 1024))
	return memoryTotalMB, swapTotalMB
}

// countNUMANodes counts /sys/devices/system/node/node* directories.
func countNUMANodes(sysRoot string) int {
	nodeBase := filepath.Join(sysRoot, "devices/system/node")
	entries, err := os.ReadDir(nodeBase)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "node") {
			suffix := entry.Name()[4:]
			if len(suffix) > 0 && suffix[0] >= '0' && suffix[0] <= '9' {
				count++
			}
		}
	}
	return count
}

// readCacheSize parses a sysfs cache size file (e.g. "49152K") and
// returns the value in kilobytes.
func readCacheSize(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	value := strings.TrimSuffix(strings.TrimSpace(string(data)), "K")
	kilobytes, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return kilobytes
}
