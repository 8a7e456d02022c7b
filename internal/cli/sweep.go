package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/agora/internal/layout"
	"github.com/roach88/agora/internal/session"
	"github.com/roach88/agora/internal/store"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Every       bool
	Interval    time.Duration
	MetricsAddr string
}

type sweepResult struct {
	Store   string `json:"store"`
	Removed int    `json:"removed"`
}

func (r sweepResult) String() string {
	return fmt.Sprintf("%d expired sessions removed from %s", r.Removed, r.Store)
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions",
		Long: `Delete every session whose expiry time has passed.

With --every the sweep repeats on the configured session.sweep_interval (or
--interval) until interrupted. --metrics-addr serves Prometheus metrics for
the sweeper while it runs.

Example:
  agora sweep
  agora sweep --every --interval 1h --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Every, "every", false, "keep sweeping on an interval until interrupted")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "sweep interval (overrides config)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve /metrics on this address while sweeping")

	return cmd
}

// sessionStore returns the name of the first store declaring the sessions
// table.
func sessionStore(l *layout.Layout) (string, bool) {
	for _, s := range l.Stores {
		if _, ok := s.Table(session.Table); ok {
			return s.Name, true
		}
	}
	return "", false
}

func runSweep(cmd *cobra.Command, opts *SweepOptions) error {
	f := newFormatter(cmd, opts.RootOptions)

	l, err := loadLayoutOrFail(f, opts.RootOptions)
	if err != nil {
		return err
	}
	name, ok := sessionStore(l)
	if !ok {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "layout declares no sessions table", nil)
	}

	reg := prometheus.NewRegistry()
	storeMetrics := store.NewMetrics(reg)
	sessionMetrics := session.NewMetrics(reg)

	path, _ := l.Path(opts.Config.DataDir, name)
	if _, err := os.Stat(path); err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("store %q has no file at %s (run agora init)", name, path), err)
	}
	storeOpts := append(opts.Config.StoreOptions(), store.WithName(name), store.WithMetrics(storeMetrics))
	s, err := store.Open(path, storeOpts...)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeOpen, fmt.Sprintf("failed to open store %q", name), err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	cfg := opts.Config.Sessions()
	if opts.Interval > 0 {
		cfg.SweepInterval = opts.Interval
	}
	sessions := session.New(s, cfg, session.WithMetrics(sessionMetrics))

	if !opts.Every {
		removed, err := sessions.Sweep(cmd.Context())
		if err != nil {
			return failStore(f, "sweep failed", err)
		}
		return f.Success(sweepResult{Store: name, Removed: removed})
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
				cancel()
			}
		}()
		defer srv.Close()
		slog.Info("serving metrics", "addr", opts.MetricsAddr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sweeping %s every %s. Press Ctrl-C to stop.\n", name, cfg.SweepInterval)
	sessions.Sweeper().Run(ctx)
	return nil
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
