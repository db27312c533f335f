package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/salon-booking-board/internal/backend"
	appconfig "github.com/wolfman30/salon-booking-board/internal/config"
	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/internal/session"
	"github.com/wolfman30/salon-booking-board/internal/viewer"
	"github.com/wolfman30/salon-booking-board/internal/web"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon booking board",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend_configured", cfg.BackendConfigured(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Error("failed to listen", "port", cfg.Port, "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger, ln); err != nil {
		logger.Error("board exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// setupMetrics builds a private registry with runtime collectors and the
// board metrics, and the handler that exposes it.
func setupMetrics() (http.Handler, *metrics.BoardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBoardMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// run wires the per-browser boards and serves on ln until ctx ends.
func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, ln net.Listener) error {
	loc, err := cfg.Location()
	if err != nil {
		_ = ln.Close()
		return err
	}

	metricsHandler, boardMetrics := setupMetrics()

	client := backend.NewClient(cfg.BackendURL, logger,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithMetrics(boardMetrics),
	)
	if !client.Configured() {
		logger.Warn("BACKEND_URL not set; the board will show the unconfigured hint")
	}

	g, gctx := errgroup.WithContext(ctx)

	sched := viewer.NewTickerScheduler(gctx)
	sessions := session.NewManager(gctx, session.Config{
		Backend: client,
		Options: viewer.Options{
			Location:        loc,
			ClockInterval:   cfg.ClockInterval,
			RefreshInterval: cfg.RefreshInterval,
			Defaults: viewer.Defaults{
				ShopName:     cfg.DefaultShopName,
				ContactPhone: cfg.DefaultContactPhone,
				ContactLine:  cfg.DefaultContactLine,
			},
		},
		Scheduler:   sched,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	}, logger, boardMetrics)

	handler, err := web.NewHandler(sessions, client.Configured(), logger, boardMetrics)
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler: web.NewRouter(&web.Config{
			Logger:         logger,
			Handler:        handler,
			MetricsHandler: metricsHandler,
			ActionRPS:      cfg.RateLimitRPS,
			ActionBurst:    cfg.RateLimitBurst,
		}),
		// no read/write timeouts: live connections stay open for the page's lifetime
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sessions.Run(gctx, cfg.SessionSweepInterval)
		sched.Wait()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
