// Package docker queries a container runtime through its CLI and turns the
// line-oriented output into model.Container records.
package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/resource_monitor/internal/model"
)

var (
	// ErrRuntimeUnavailable reports that containers could not be listed at all.
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	// ErrStatsUnavailable reports that live usage could not be fetched; the
	// listing is still valid with zeroed usage.
	ErrStatsUnavailable = errors.New("container stats unavailable")
)

// DefaultTimeout bounds each CLI call.
const DefaultTimeout = 5 * time.Second

// Client lists containers and their usage via the docker CLI.
type Client struct {
	binary  string
	timeout time.Duration
	runner  CommandRunner
	logger  *slog.Logger
}

func NewClient(binary string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithRunner(binary, timeout, ExecRunner{}, logger)
}

// NewClientWithRunner creates a Client with a custom CommandRunner for testing.
func NewClientWithRunner(binary string, timeout time.Duration, runner CommandRunner, logger *slog.Logger) *Client {
	if binary == "" {
		binary = "docker"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{binary: binary, timeout: timeout, runner: runner, logger: logger}
}

// Containers lists every container, running or not, joined with live usage.
//
// A listing failure returns ErrRuntimeUnavailable and no containers. A stats
// failure returns the full listing with zeroed usage together with
// ErrStatsUnavailable, so callers can tell a partial result from a complete one.
func (c *Client) Containers(ctx context.Context) ([]model.Container, error) {
	containers, err := c.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	if !anyRunning(containers) {
		return containers, nil
	}

	stats, err := c.stats(ctx)
	if err != nil {
		return Join(containers, nil), fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}
	return Join(containers, stats), nil
}

func (c *Client) list(ctx context.Context) ([]model.Container, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.runner.Run(ctx, c.binary, "ps", "-a", "--no-trunc", "--format", listFormat)
	if err != nil {
		return nil, err
	}
	return ParseList(string(out)), nil
}

func (c *Client) stats(ctx context.Context) (map[string]Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.runner.Run(ctx, c.binary, "stats", "--no-stream", "--format", statsFormat)
	if err != nil {
		return nil, err
	}
	stats, perr := ParseStats(string(out))
	if perr != nil {
		c.logger.Debug("container stats parse", "error", perr)
	}
	return stats, nil
}

func anyRunning(containers []model.Container) bool {
	for _, ct := range containers {
		if ct.State == model.StateRunning {
			return true
		}
	}
	return false
}
