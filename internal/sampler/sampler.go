// Package sampler collects host metrics into model.Snapshot values.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

// ErrSourceUnavailable is matched by every SourceError.
var ErrSourceUnavailable = errors.New("metric source unavailable")

// SourceError names the required source that failed a collection.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("collect %s: %v", e.Source, e.Err) }

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }

// Hooks observes collection outcomes. All methods must be safe for concurrent use.
type Hooks interface {
	Collected(snap model.Snapshot, took time.Duration)
	Failed(err error, took time.Duration)
	Degraded(source string, err error)
}

type noopHooks struct{}

func (noopHooks) Collected(model.Snapshot, time.Duration) {}
func (noopHooks) Failed(error, time.Duration)             {}
func (noopHooks) Degraded(string, error)                  {}

const (
	// DefaultInterval is the Stream period when Interval is unset.
	DefaultInterval = 3 * time.Second

	// DefaultCycleTimeout bounds one Stream collection when CycleTimeout is unset.
	DefaultCycleTimeout = 15 * time.Second
)

// policy decides what a source failure does to the whole collection.
type policy int

const (
	// required sources fail the collection.
	required policy = iota
	// bestEffort sources log, report Degraded and keep whatever they produced.
	bestEffort
)

type source struct {
	name   string
	policy policy
	run    func(ctx context.Context, snap *model.Snapshot) error
}

// Sampler builds Snapshots from a Provider and an optional ContainerSource.
// The only state carried between collections is the network RateTracker.
type Sampler struct {
	Interval     time.Duration
	CycleTimeout time.Duration
	ProcessLimit int
	Hooks        Hooks

	provider   Provider
	containers ContainerSource
	rates      *RateTracker
	logger     *slog.Logger
	now        func() time.Time
}

// New returns a Sampler. containers may be nil to disable container reporting.
func New(interval time.Duration, provider Provider, containers ContainerSource, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		Interval:     interval,
		CycleTimeout: DefaultCycleTimeout,
		ProcessLimit: DefaultProcessLimit,
		Hooks:        noopHooks{},
		provider:     provider,
		containers:   containers,
		rates:        NewRateTracker(),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Sampler) sources() []source {
	srcs := []source{
		{"cpu", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.CPU, err = s.collectCPU(ctx)
			return err
		}},
		{"memory", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Memory, err = s.collectMemory(ctx)
			return err
		}},
		{"disk", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Disks, err = s.collectDisks(ctx)
			return err
		}},
		{"network", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Network, err = s.collectNetwork(ctx)
			return err
		}},
		{"uptime", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Uptime, err = s.collectUptime(ctx)
			return err
		}},
		{"processes", required, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Processes, err = s.collectProcesses(ctx)
			return err
		}},
	}
	if s.containers != nil {
		srcs = append(srcs, source{"containers", bestEffort, func(ctx context.Context, snap *model.Snapshot) (err error) {
			snap.Containers, err = s.containers.Containers(ctx)
			return err
		}})
	}
	return srcs
}

// Collect runs every source concurrently and returns one Snapshot stamped
// at completion. Any required source failing fails the call with a
// *SourceError; best-effort sources only degrade their part of the snapshot.
func (s *Sampler) Collect(ctx context.Context) (model.Snapshot, error) {
	start := s.now()
	var snap model.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range s.sources() {
		src := src
		g.Go(func() error {
			err := src.run(gctx, &snap)
			if err == nil {
				return nil
			}
			if src.policy == bestEffort {
				if gctx.Err() != nil {
					return nil
				}
				s.logger.Warn("source degraded", "source", src.name, "error", err)
				s.hooks().Degraded(src.name, err)
				return nil
			}
			return &SourceError{Source: src.name, Err: err}
		})
	}
	if err := g.Wait(); err != nil {
		s.hooks().Failed(err, s.now().Sub(start))
		return model.Snapshot{}, err
	}

	if snap.Disks == nil {
		snap.Disks = []model.Disk{}
	}
	if snap.Network == nil {
		snap.Network = []model.NetworkInterface{}
	}
	if snap.Processes == nil {
		snap.Processes = []model.Process{}
	}
	if snap.Containers == nil {
		snap.Containers = []model.Container{}
	}

	end := s.now()
	snap.Timestamp = end.UnixMilli()
	s.hooks().Collected(snap, end.Sub(start))
	return snap, nil
}

func (s *Sampler) hooks() Hooks {
	if s.Hooks == nil {
		return noopHooks{}
	}
	return s.Hooks
}

// Stream collects once immediately and then on every Interval tick, sending
// successful snapshots until ctx is done. Each cycle is bounded by
// CycleTimeout. Failed cycles are logged and skipped; the next tick retries.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	go func() {
		defer close(ch)
		interval := s.Interval
		if interval <= 0 {
			interval = DefaultInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			snap, err := s.collectCycle(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("collect failed", "error", err)
			} else {
				select {
				case ch <- snap:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Sampler) collectCycle(ctx context.Context) (model.Snapshot, error) {
	timeout := s.CycleTimeout
	if timeout <= 0 {
		timeout = DefaultCycleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Collect(ctx)
}
