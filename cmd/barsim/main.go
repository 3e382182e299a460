// Command barsim runs one bar scheduling simulation and writes its
// statistics report.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/azargarov/barsched"
	"github.com/azargarov/barsched/internal/config"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		lg.FromContext(ctx).Error("simulation failed", lg.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := lg.FromContext(ctx)
	opts := cfg.ServerOptions()

	metrics := &barsched.AtomicMetrics{}
	opts.Metrics = metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		pm, err := barsched.NewPromMetrics(reg, opts.Policy)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts.Metrics = barsched.TeeMetrics(metrics, pm)
		shutdown := serveMetrics(ctx, cfg.MetricsAddr, reg)
		defer shutdown()
	}

	menu := barsched.NewMenu(cfg.Seed)
	barrier := barsched.NewStartBarrier(cfg.Patrons + 2) // patrons, barman, driver

	bar, err := barsched.NewServer(ctx, opts, barrier)
	if err != nil {
		return err
	}
	bar.Start()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Patrons; i++ {
		p := cfg.Patron(i)
		rng := menu.ForPatron(i)
		g.Go(func() error {
			return p.Run(gctx, bar, barrier, menu, rng)
		})
	}

	logger.Info("Bar opening",
		lg.Int("patrons", cfg.Patrons),
		lg.String("policy", opts.Policy.String()),
		lg.String("switch", opts.SwitchDelay.String()),
		lg.String("quantum", opts.Quantum.String()),
		lg.Any("seed", menu.Seed()),
	)
	if err := barrier.Await(ctx); err != nil {
		logger.Warn("start interrupted", lg.Any("reason", err))
	}

	// all patrons must be done before the report is taken
	patronErr := g.Wait()

	logger.Info("Waiting for Barman")
	bar.RequestStop()
	if err := bar.AwaitStopped(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	rep, err := bar.Report()
	if err != nil {
		return err
	}

	path := cfg.OutputPath()
	if err := barsched.WriteReportFile(context.WithoutCancel(ctx), path, rep, *barsched.GetDefaultRP()); err != nil {
		logger.Error("could not write report; printing it instead", lg.Any("error", err))
		if err := rep.WriteCSV(os.Stdout); err != nil {
			logger.Error("could not print report", lg.Any("error", err))
		}
	}

	logger.Info("Bar closed",
		lg.String("report", path),
		lg.Int("completed", rep.Completed),
		lg.Int("interrupts", rep.Interrupts),
		lg.Any("cpu_utilization", rep.CPUUtilization()),
		lg.Any("throughput", rep.Throughput()),
		lg.Any("submitted", metrics.Submitted()),
	)

	if patronErr != nil && !errors.Is(patronErr, context.Canceled) {
		return patronErr
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) func() {
	logger := lg.FromContext(ctx).With(lg.String("addr", addr))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server failed", lg.Any("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
