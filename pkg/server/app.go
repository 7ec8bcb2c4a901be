package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/pkg/config"
	xhttp "GeoSentry/pkg/http"
	pkgkafka "GeoSentry/pkg/kafka"
	applogger "GeoSentry/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	processor  *aggregator.Processor
	consumer   *pkgkafka.Consumer
	incidents  pkgkafka.MessageHandler
	sink       repository.AlertSink
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	processor *aggregator.Processor,
	consumer *pkgkafka.Consumer,
	incidents pkgkafka.MessageHandler,
	sink repository.AlertSink,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		processor: processor,
		consumer:  consumer,
		incidents: incidents,
		sink:      sink,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.processor.Start()
	a.log.Info("aggregator started",
		applogger.Duration("interval", a.cfg.Aggregator.Interval),
		applogger.Duration("window", a.cfg.Aggregator.Window))

	if a.consumer != nil && a.incidents != nil {
		a.consumer.RegisterHandler(a.incidents)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.incidents.Topic()))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.processor.Stop()

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("alert sink close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
