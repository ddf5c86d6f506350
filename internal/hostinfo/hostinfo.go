// Package hostinfo describes the machine a search runs on.
package hostinfo

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

type Info struct {
	Hostname     string
	Cores        int
	ModelName    string
	CpuMHz       float64
	MemAvailable uint64
	// AESFlag is set when the CPU advertises AES instructions.
	AESFlag bool
}

// Collect queries the host. Missing CPU details are tolerated; only a failed
// core count is an error, since it sizes the worker pool.
func Collect() (Info, error) {
	info := Info{}

	cores, err := cpu.Counts(true)
	if err != nil {
		return info, fmt.Errorf("counting cores: %w", err)
	}
	info.Cores = cores
	if info.Cores < 1 {
		info.Cores = runtime.NumCPU()
	}

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.ModelName = cpus[0].ModelName
		info.CpuMHz = cpus[0].Mhz
		info.AESFlag = slices.Contains(cpus[0].Flags, "aes")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemAvailable = vm.Available
	}

	return info, nil
}

// LogAttrs returns the info as slog key/value pairs.
func (i Info) LogAttrs() []any {
	return []any{
		"hostname", i.Hostname,
		"cores", i.Cores,
		"cpuModel", i.ModelName,
		"cpuMHz", i.CpuMHz,
		"memAvailable", i.MemAvailable,
		"cpuAESFlag", i.AESFlag,
	}
}
