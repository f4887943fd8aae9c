// resmon samples host CPU, memory, disk, network, process and container
// statistics and serves them to a browser dashboard or a terminal UI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/resource_monitor/internal/api"
	"github.com/Dicklesworthstone/resource_monitor/internal/auth"
	"github.com/Dicklesworthstone/resource_monitor/internal/config"
	"github.com/Dicklesworthstone/resource_monitor/internal/docker"
	"github.com/Dicklesworthstone/resource_monitor/internal/sampler"
	"github.com/Dicklesworthstone/resource_monitor/internal/telemetry"
	"github.com/Dicklesworthstone/resource_monitor/internal/ui"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	bound := config.Default()
	var cfg config.Config

	root := &cobra.Command{
		Use:          "resmon",
		Short:        "Real-time host resource monitor",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.Resolve(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = resolved
			return nil
		},
	}
	bound.BindFlags(root.PersistentFlags())

	// bare invocation: --json/--json-stream print snapshots, otherwise the TUI
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if cfg.JSON || cfg.JSONStream {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return snapshot(ctx, cfg, stdout)
		}
		logger := buildLogger(cfg, io.Discard)
		s, _ := buildSampler(cfg, logger)
		return ui.Run(s, cfg.History)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the metrics API and live stream over HTTP",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return serve(ctx, cfg)
			},
		},
		&cobra.Command{
			Use:   "top",
			Short: "Show the live terminal dashboard",
			RunE: func(cmd *cobra.Command, args []string) error {
				logger := buildLogger(cfg, io.Discard)
				s, _ := buildSampler(cfg, logger)
				return ui.Run(s, cfg.History)
			},
		},
		&cobra.Command{
			Use:   "snapshot",
			Short: "Print snapshots as JSON (one-shot, or NDJSON with --json-stream)",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return snapshot(ctx, cfg, stdout)
			},
		},
		&cobra.Command{
			Use:   "hash-password [password]",
			Short: "Print a bcrypt hash for --password-hash",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hash, err := auth.HashPassword(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, hash)
				return err
			},
		},
	)
	return root
}

func buildLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}

// buildSampler wires the gopsutil provider and, when enabled, the docker
// client. The client is returned separately for the standalone endpoint.
func buildSampler(cfg config.Config, logger *slog.Logger) (*sampler.Sampler, *docker.Client) {
	var dc *docker.Client
	var containers sampler.ContainerSource
	if cfg.Containers {
		dc = docker.NewClient(cfg.DockerBinary, cfg.ContainerTimeout, logger)
		containers = dc
	}
	s := sampler.New(cfg.Interval, sampler.NewHostProvider(), containers, logger)
	s.ProcessLimit = cfg.ProcessLimit
	return s, dc
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := buildLogger(cfg, os.Stderr)
	s, dc := buildSampler(cfg, logger)
	recorder := telemetry.NewRecorder()
	s.Hooks = recorder

	hub := api.NewHub(s, cfg.Interval, logger)
	deps := api.Deps{
		Collector: s,
		Sessions: auth.New(auth.Options{
			Username:     cfg.Username,
			Password:     cfg.Password,
			PasswordHash: cfg.PasswordHash,
			Secret:       cfg.JWTSecret,
			TTL:          cfg.SessionTTL,
			CookieSecure: cfg.CookieSecure,
		}, logger),
		Hub:     hub,
		Metrics: recorder.Handler(),
		Logger:  logger,
	}
	if dc != nil {
		deps.Containers = dc
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Listen, "interval", cfg.Interval, "containers", cfg.Containers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func snapshot(ctx context.Context, cfg config.Config, w io.Writer) error {
	logger := buildLogger(cfg, os.Stderr)
	s, _ := buildSampler(cfg, logger)
	enc := json.NewEncoder(w)

	if !cfg.JSONStream {
		snap, err := s.Collect(ctx)
		if err != nil {
			return err
		}
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	for snap := range s.Stream(ctx) {
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}
	return nil
}
