package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradePlan/internal/domain/repository"
	pkgch "TradePlan/pkg/clickhouse"
	"TradePlan/pkg/config"
	xhttp "TradePlan/pkg/http"
	pkgkafka "TradePlan/pkg/kafka"
	applogger "TradePlan/pkg/logger"
)

// quoteRunner is implemented by quote sources that need a streaming
// goroutine beyond the QuoteSource interface.
type quoteRunner interface {
	Run(ctx context.Context)
}

// App encapsulates the application lifecycle: HTTP API, the optional
// Kafka ingest consumer and the optional quote stream.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	quotes     repository.QuoteSource
	levelStore repository.LevelStore
	pub        repository.PlanPublisher
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	quotes repository.QuoteSource,
	levelStore repository.LevelStore,
	pub repository.PlanPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		handler:    handler,
		consumer:   consumer,
		quotes:     quotes,
		levelStore: levelStore,
		pub:        pub,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if a.quotes != nil {
		go a.runQuotes(ctx)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.IngestTopic))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// runQuotes connects the quote stream and keeps it running.
func (a *App) runQuotes(ctx context.Context) {
	if err := a.quotes.Connect(ctx); err != nil {
		a.log.Warn("quote stream connect error", applogger.Error(err))
		if err := a.quotes.Reconnect(ctx); err != nil {
			a.log.Error("quote stream unavailable", applogger.Error(err))
			return
		}
	}
	if err := a.quotes.Subscribe(ctx); err != nil {
		a.log.Warn("quote stream subscribe error", applogger.Error(err))
	}
	a.log.Info("quote stream started", applogger.Strings("symbols", a.cfg.Quotes.Symbols))

	if runner, ok := a.quotes.(quoteRunner); ok {
		runner.Run(ctx)
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.quotes != nil {
		if err := a.quotes.Close(); err != nil {
			a.log.Warn("quote stream close error", applogger.Error(err))
		}
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("plan publisher close error", applogger.Error(err))
		}
	}

	if a.levelStore != nil {
		if err := a.levelStore.Close(); err != nil {
			a.log.Warn("level store close error", applogger.Error(err))
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
