package sampler

import (
	"context"
	"sort"
	"strings"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// DefaultProcessLimit is how many processes a snapshot keeps.
const DefaultProcessLimit = 50

func (s *Sampler) collectCPU(ctx context.Context) (model.CPU, error) {
	info, err := s.provider.CPUInfo(ctx)
	if err != nil {
		return model.CPU{}, err
	}
	load, err := s.provider.CPULoad(ctx)
	if err != nil {
		return model.CPU{}, err
	}

	cores := info.Cores
	coreLoads := make([]float64, len(load.PerCore))
	for i, l := range load.PerCore {
		coreLoads[i] = model.Round1(l)
	}
	if len(coreLoads) > 0 {
		cores = len(coreLoads)
	} else if cores > 0 {
		coreLoads = make([]float64, cores)
	}

	return model.CPU{
		Manufacturer:  info.Manufacturer,
		Brand:         info.Brand,
		Speed:         info.SpeedGHz,
		Cores:         cores,
		PhysicalCores: info.PhysicalCores,
		CurrentLoad:   model.Round1(load.Total),
		CoreLoads:     coreLoads,
	}, nil
}

func (s *Sampler) collectMemory(ctx context.Context) (model.Memory, error) {
	m, err := s.provider.Memory(ctx)
	if err != nil {
		return model.Memory{}, err
	}
	return model.Memory{
		Total:       m.Total,
		Used:        m.Used,
		Free:        m.Free,
		UsedPercent: model.Percent(m.Used, m.Total),
	}, nil
}

// collectDisks drops zero-sized (pseudo) filesystems.
func (s *Sampler) collectDisks(ctx context.Context) ([]model.Disk, error) {
	fss, err := s.provider.Filesystems(ctx)
	if err != nil {
		return nil, err
	}
	disks := make([]model.Disk, 0, len(fss))
	for _, fs := range fss {
		if fs.Size == 0 {
			continue
		}
		disks = append(disks, model.Disk{
			FS:          fs.Device,
			Type:        fs.Type,
			Mount:       fs.Mount,
			Size:        fs.Size,
			Used:        fs.Used,
			Available:   fs.Available,
			UsedPercent: model.Round1(fs.UsedPercent),
		})
	}
	return disks, nil
}

func (s *Sampler) collectNetwork(ctx context.Context) ([]model.NetworkInterface, error) {
	counters, err := s.provider.NetCounters(ctx)
	if err != nil {
		return nil, err
	}
	return s.rates.Observe(counters, s.now()), nil
}

func (s *Sampler) collectUptime(ctx context.Context) (model.Uptime, error) {
	h, err := s.provider.Host(ctx)
	if err != nil {
		return model.Uptime{}, err
	}
	return model.Uptime{
		Uptime:          h.Uptime,
		FormattedUptime: model.FormatUptime(h.Uptime),
		Hostname:        h.Hostname,
		Platform:        h.Platform,
		Distro:          h.Distro,
		Release:         h.Release,
	}, nil
}

// collectProcesses keeps the busiest ProcessLimit processes by CPU.
func (s *Sampler) collectProcesses(ctx context.Context) ([]model.Process, error) {
	procs, err := s.provider.Processes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].CPU > procs[j].CPU })
	if limit := s.processLimit(); len(procs) > limit {
		procs = procs[:limit]
	}

	top := make([]model.Process, len(procs))
	for i, p := range procs {
		cmd := p.Command
		if cmd == "" {
			cmd = p.Name
		}
		top[i] = model.Process{
			PID:        p.PID,
			Name:       p.Name,
			CPU:        model.Round1(p.CPU),
			MemPercent: model.Round1(p.MemPercent),
			MemBytes:   p.MemBytes,
			Status:     normalizeStatus(p.Status),
			User:       p.User,
			Command:    cmd,
		}
	}
	return top, nil
}

func (s *Sampler) processLimit() int {
	if s.ProcessLimit <= 0 {
		return DefaultProcessLimit
	}
	return s.ProcessLimit
}

// normalizeStatus accepts gopsutil names and single-letter ps codes.
func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running", "r":
		return model.StatusRunning
	case "sleep", "sleeping", "s":
		return model.StatusSleeping
	case "stop", "stopped", "t":
		return model.StatusStopped
	case "idle", "i":
		return model.StatusIdle
	case "zombie", "z":
		return model.StatusZombie
	case "wait", "waiting", "w":
		return model.StatusWaiting
	case "lock", "blocked", "disk-sleep", "d", "l":
		return model.StatusBlocked
	default:
		return model.StatusUnknown
	}
}
