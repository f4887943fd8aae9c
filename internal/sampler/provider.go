package sampler

import (
	"context"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// Provider is the system-information source the collectors map from.
// HostProvider is the gopsutil implementation; tests substitute fakes.
type Provider interface {
	CPUInfo(ctx context.Context) (CPUInfo, error)
	CPULoad(ctx context.Context) (CPULoad, error)
	Memory(ctx context.Context) (MemoryStat, error)
	Filesystems(ctx context.Context) ([]Filesystem, error)
	NetCounters(ctx context.Context) ([]NetCounter, error)
	Host(ctx context.Context) (HostInfo, error)
	Processes(ctx context.Context) ([]ProcessInfo, error)
}

// ContainerSource is the best-effort container runtime query. A non-nil
// error alongside a non-nil slice reports a partial result.
type ContainerSource interface {
	Containers(ctx context.Context) ([]model.Container, error)
}

// CPUInfo is CPU identity.
type CPUInfo struct {
	Manufacturer  string
	Brand         string
	SpeedGHz      float64
	Cores         int
	PhysicalCores int
}

// CPULoad is instantaneous utilisation in percent.
type CPULoad struct {
	Total   float64
	PerCore []float64
}

// MemoryStat is raw RAM usage in bytes.
type MemoryStat struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// Filesystem is one mounted filesystem as reported by the OS.
type Filesystem struct {
	Device      string
	Type        string
	Mount       string
	Size        uint64
	Used        uint64
	Available   uint64
	UsedPercent float64
}

// NetCounter is the cumulative byte count of one interface.
type NetCounter struct {
	Iface   string
	RxBytes uint64
	TxBytes uint64
}

// HostInfo is uptime plus OS identity.
type HostInfo struct {
	Uptime   uint64
	Hostname string
	Platform string
	Distro   string
	Release  string
}

// ProcessInfo is one row of the process table. Status is the raw OS value.
type ProcessInfo struct {
	PID        int32
	Name       string
	CPU        float64
	MemPercent float64
	MemBytes   uint64
	Status     string
	User       string
	Command    string
}
