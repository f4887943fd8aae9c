package sampler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

type fakeProvider struct {
	cpuInfo  CPUInfo
	cpuLoad  CPULoad
	memory   MemoryStat
	fss      []Filesystem
	counters []NetCounter
	host     HostInfo
	procs    []ProcessInfo
	errs     map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		cpuInfo: CPUInfo{Manufacturer: "Intel", Brand: "Core i7-8700", SpeedGHz: 3.2, Cores: 4, PhysicalCores: 2},
		cpuLoad: CPULoad{Total: 12.345, PerCore: []float64{10.04, 20.06, 30.04, 0}},
		memory:  MemoryStat{Total: 16000000000, Used: 8000000000, Free: 6000000000},
		fss: []Filesystem{
			{Device: "/dev/sda1", Type: "ext4", Mount: "/", Size: 1000, Used: 456, Available: 544, UsedPercent: 45.6789},
			{Device: "proc", Type: "proc", Mount: "/proc"},
		},
		counters: []NetCounter{{Iface: "eth0", RxBytes: 1000, TxBytes: 2000}},
		host:     HostInfo{Uptime: 90061, Hostname: "box", Platform: "linux", Distro: "ubuntu", Release: "24.04"},
		procs: []ProcessInfo{
			{PID: 1, Name: "init", CPU: 0.04, Status: "sleep", User: "root", Command: "/sbin/init"},
			{PID: 2, Name: "burn", CPU: 97.66, MemPercent: 1.25, MemBytes: 4096, Status: "running"},
		},
		errs: map[string]error{},
	}
}

func (f *fakeProvider) CPUInfo(context.Context) (CPUInfo, error) { return f.cpuInfo, f.errs["cpuinfo"] }
func (f *fakeProvider) CPULoad(context.Context) (CPULoad, error) { return f.cpuLoad, f.errs["cpuload"] }
func (f *fakeProvider) Memory(context.Context) (MemoryStat, error) {
	return f.memory, f.errs["memory"]
}
func (f *fakeProvider) Filesystems(context.Context) ([]Filesystem, error) {
	return f.fss, f.errs["disk"]
}
func (f *fakeProvider) NetCounters(context.Context) ([]NetCounter, error) {
	return f.counters, f.errs["network"]
}
func (f *fakeProvider) Host(context.Context) (HostInfo, error) { return f.host, f.errs["host"] }
func (f *fakeProvider) Processes(context.Context) ([]ProcessInfo, error) {
	out := make([]ProcessInfo, len(f.procs))
	copy(out, f.procs)
	return out, f.errs["processes"]
}

type fakeContainers struct {
	list []model.Container
	err  error
}

func (f fakeContainers) Containers(context.Context) ([]model.Container, error) { return f.list, f.err }

type recordingHooks struct {
	mu        sync.Mutex
	collected int
	failed    []error
	degraded  []string
}

func (r *recordingHooks) Collected(model.Snapshot, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collected++
}

func (r *recordingHooks) Failed(err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recordingHooks) Degraded(source string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = append(r.degraded, source)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}
