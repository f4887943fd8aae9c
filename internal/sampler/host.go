package sampler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sync/errgroup"
)

// DefaultCPUWindow is how long CPULoad watches CPU times.
const DefaultCPUWindow = 200 * time.Millisecond

// percentFunc matches cpu.PercentWithContext.
type percentFunc func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)

// HostProvider reads the local machine through gopsutil. It keeps no state
// between calls.
type HostProvider struct {
	// Window is the CPU sampling window of each CPULoad call.
	Window time.Duration

	percent percentFunc
}

func NewHostProvider() *HostProvider {
	return &HostProvider{Window: DefaultCPUWindow, percent: cpu.PercentWithContext}
}

var vendors = map[string]string{
	"GenuineIntel": "Intel",
	"AuthenticAMD": "AMD",
	"ARM":          "ARM",
	"Apple":        "Apple",
}

func (h *HostProvider) CPUInfo(ctx context.Context) (CPUInfo, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return CPUInfo{}, fmt.Errorf("cpu info: %w", err)
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return CPUInfo{}, fmt.Errorf("cpu count: %w", err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil || physical == 0 {
		physical = logical
	}

	out := CPUInfo{Cores: logical, PhysicalCores: physical}
	if len(infos) > 0 {
		first := infos[0]
		out.Manufacturer = first.VendorID
		if v, ok := vendors[first.VendorID]; ok {
			out.Manufacturer = v
		}
		out.Brand = cleanBrand(first.ModelName, out.Manufacturer)
		out.SpeedGHz = math.Round(first.Mhz/10) / 100
	}
	return out, nil
}

func cleanBrand(modelName, manufacturer string) string {
	b := strings.NewReplacer("(R)", "", "(TM)", "", "(tm)", "", "CPU ", "").Replace(modelName)
	b = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(b), manufacturer))
	return strings.Join(strings.Fields(b), " ")
}

// CPULoad measures utilisation over its own Window, so concurrent or
// back-to-back callers never shorten each other's measurement.
func (h *HostProvider) CPULoad(ctx context.Context) (CPULoad, error) {
	window := h.Window
	if window <= 0 {
		window = DefaultCPUWindow
	}
	percent := h.percent
	if percent == nil {
		percent = cpu.PercentWithContext
	}

	var total, perCore []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = percent(gctx, window, false)
		if err != nil {
			return fmt.Errorf("cpu percent: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		perCore, err = percent(gctx, window, true)
		if err != nil {
			return fmt.Errorf("per-cpu percent: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return CPULoad{}, err
	}

	var load CPULoad
	if len(total) > 0 {
		load.Total = clampPercent(total[0])
	}
	load.PerCore = make([]float64, len(perCore))
	for i, v := range perCore {
		load.PerCore[i] = clampPercent(v)
	}
	return load, nil
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func (h *HostProvider) Memory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryStat{Total: vm.Total, Used: vm.Used, Free: vm.Free}, nil
}

// Filesystems lists every mount. Mounts whose usage cannot be read are skipped.
func (h *HostProvider) Filesystems(ctx context.Context) ([]Filesystem, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}
	out := make([]Filesystem, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		out = append(out, Filesystem{
			Device:      p.Device,
			Type:        p.Fstype,
			Mount:       p.Mountpoint,
			Size:        u.Total,
			Used:        u.Used,
			Available:   u.Free,
			UsedPercent: u.UsedPercent,
		})
	}
	return out, nil
}

func (h *HostProvider) NetCounters(ctx context.Context) ([]NetCounter, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("net counters: %w", err)
	}
	out := make([]NetCounter, len(counters))
	for i, c := range counters {
		out[i] = NetCounter{Iface: c.Name, RxBytes: c.BytesRecv, TxBytes: c.BytesSent}
	}
	return out, nil
}

func (h *HostProvider) Host(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, fmt.Errorf("host info: %w", err)
	}
	return HostInfo{
		Uptime:   info.Uptime,
		Hostname: info.Hostname,
		Platform: info.OS,
		Distro:   info.Platform,
		Release:  info.PlatformVersion,
	}, nil
}

// Processes reads the full process table. Processes that exit mid-read are
// skipped; per-field failures leave that field empty.
func (h *HostProvider) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process table: %w", err)
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		user, _ := p.UsernameWithContext(ctx)
		cmd, _ := p.CmdlineWithContext(ctx)

		info := ProcessInfo{
			PID:        p.Pid,
			Name:       name,
			CPU:        cpuPct,
			MemPercent: float64(memPct),
			User:       user,
			Command:    cmd,
		}
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			info.MemBytes = mi.RSS
		}
		if st, err := p.StatusWithContext(ctx); err == nil && len(st) > 0 {
			info.Status = st[0]
		}
		out = append(out, info)
	}
	return out, nil
}
