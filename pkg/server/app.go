package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "OpsRecon/internal/domain/repository"
	"OpsRecon/internal/livechan"
	"OpsRecon/internal/scheduler"
	"OpsRecon/internal/usecase"
	pkgch "OpsRecon/pkg/clickhouse"
	"OpsRecon/pkg/config"
	xhttp "OpsRecon/pkg/http"
	applogger "OpsRecon/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	svc        *usecase.ReconService
	live       *livechan.Manager
	sched      *scheduler.Scheduler
	handler    xhttp.Handler
	httpServer *xhttp.Server
	chClient   *pkgch.Client   // nil when archiving is disabled
	bus        drepo.EventBus  // nil when the event bus is disabled
}

// New creates a new App instance with all dependencies. chClient and bus
// may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	svc *usecase.ReconService,
	live *livechan.Manager,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	bus drepo.EventBus,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		svc:      svc,
		live:     live,
		sched:    sched,
		handler:  handler,
		chClient: chClient,
		bus:      bus,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the live channel: websocket first, polling on failure.
	a.live.Start(ctx)
	a.log.Info("live channel started", applogger.String("stream_url", a.cfg.Live.StreamURL))

	// Register refresh jobs and start the scheduler.
	a.sched.Add("feed_refresh", a.cfg.Refresh.FeedInterval, a.svc.RefreshFeed)
	a.sched.Add("heatmap_refresh", a.cfg.Refresh.HeatmapInterval, a.svc.RefreshHeatmap)
	a.sched.Start(ctx)
	a.log.Info("scheduler started",
		applogger.Duration("feed_interval", a.cfg.Refresh.FeedInterval),
		applogger.Duration("heatmap_interval", a.cfg.Refresh.HeatmapInterval),
	)

	// Setup Echo HTTP server using pkg/http and register routes via handler
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// Stop producing refresh results before tearing anything down.
	a.sched.Stop()
	a.svc.Shutdown()
	a.live.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.log.Warn("event bus close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
