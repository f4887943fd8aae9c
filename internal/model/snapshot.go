package model

import "time"

// CPU aggregates CPU identity and instantaneous load.
type CPU struct {
	Manufacturer  string    `json:"manufacturer"`
	Brand         string    `json:"brand"`
	Speed         float64   `json:"speed"` // GHz
	Cores         int       `json:"cores"`
	PhysicalCores int       `json:"physicalCores"`
	CurrentLoad   float64   `json:"currentLoad"` // percent 0-100, one decimal
	CoreLoads     []float64 `json:"coreLoads"`   // index = core id, len == Cores
}

// Memory captures RAM usage in bytes for precision.
type Memory struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// Disk is one mounted filesystem with a non-zero size.
type Disk struct {
	FS          string  `json:"fs"`
	Type        string  `json:"type"`
	Mount       string  `json:"mount"`
	Size        uint64  `json:"size"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"usedPercent"`
}

// NetworkInterface holds derived throughput and the raw cumulative counters.
type NetworkInterface struct {
	Iface         string `json:"iface"`
	RxBytesPerSec uint64 `json:"rxBytesPerSec"`
	TxBytesPerSec uint64 `json:"txBytesPerSec"`
	RxTotal       uint64 `json:"rxTotal"`
	TxTotal       uint64 `json:"txTotal"`
}

// Uptime carries host identity alongside uptime.
type Uptime struct {
	Uptime          uint64 `json:"uptime"` // seconds
	FormattedUptime string `json:"formattedUptime"`
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
	Distro          string `json:"distro"`
	Release         string `json:"release"`
}

// Process statuses.
const (
	StatusRunning  = "running"
	StatusSleeping = "sleeping"
	StatusStopped  = "stopped"
	StatusIdle     = "idle"
	StatusZombie   = "zombie"
	StatusWaiting  = "waiting"
	StatusBlocked  = "blocked"
	StatusUnknown  = "unknown"
)

// Process is a lightweight top entry.
type Process struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPU        float64 `json:"cpu"`
	MemPercent float64 `json:"memPercent"`
	MemBytes   uint64  `json:"memBytes"`
	Status     string  `json:"status"`
	User       string  `json:"user"`
	Command    string  `json:"command"`
}

// Container states. Anything the runtime reports outside this set maps to StateOther.
const (
	StateRunning = "running"
	StateExited  = "exited"
	StatePaused  = "paused"
	StateCreated = "created"
	StateDead    = "dead"
	StateOther   = "other"
)

// Container joins runtime metadata with live resource usage.
// NetRx/NetTx are cumulative bytes, not rates.
type Container struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	Status     string  `json:"status"`
	State      string  `json:"state"`
	CPUPercent float64 `json:"cpuPercent"`
	MemUsed    uint64  `json:"memUsed"`
	MemLimit   uint64  `json:"memLimit"`
	MemPercent float64 `json:"memPercent"`
	NetRx      uint64  `json:"netRx"`
	NetTx      uint64  `json:"netTx"`
	PIDs       int     `json:"pids"`
}

// Snapshot is the full point-in-time view exchanged between sampler, UI, and HTTP API.
// It is never mutated after Collect returns it.
type Snapshot struct {
	CPU        CPU                `json:"cpu"`
	Memory     Memory             `json:"mem"`
	Disks      []Disk             `json:"disk"`
	Network    []NetworkInterface `json:"network"`
	Uptime     Uptime             `json:"uptime"`
	Processes  []Process          `json:"processes"`
	Containers []Container        `json:"docker"`
	Timestamp  int64              `json:"timestamp"` // epoch milliseconds
}

// Time returns the capture time.
func (s Snapshot) Time() time.Time { return time.UnixMilli(s.Timestamp) }

// Zero returns an empty snapshot for initialization.
func Zero() Snapshot { return Snapshot{Timestamp: time.Now().UnixMilli()} }
