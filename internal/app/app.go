package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/hydrostats/hydrofreq/internal/controllers/collector"
	"github.com/hydrostats/hydrofreq/internal/controllers/restserver"
	"github.com/hydrostats/hydrofreq/internal/log"
	"github.com/hydrostats/hydrofreq/internal/observability"
	"github.com/hydrostats/hydrofreq/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics := observability.NewMetrics()

	controllerConfigs, err := a.configProvider.GetControllers()
	if err != nil {
		return fmt.Errorf("error loading controller configurations: %v", err)
	}

	started := 0
	for _, cc := range controllerConfigs {
		switch cc.Type {
		case "rest":
			if cc.RESTServer == nil {
				return fmt.Errorf("rest controller configured without a rest section")
			}
			rest, err := restserver.NewController(ctx, &wg, a.configProvider, *cc.RESTServer, metrics, a.logger)
			if err != nil {
				return err
			}
			if err := rest.StartController(); err != nil {
				return err
			}
			started++

		case "collector":
			if cc.Collector == nil {
				return fmt.Errorf("collector controller configured without a collector section")
			}
			col, err := collector.NewCollectorController(ctx, &wg, a.configProvider, *cc.Collector, metrics, a.logger)
			if err != nil {
				return err
			}
			if err := col.StartController(); err != nil {
				return err
			}
			started++

		default:
			return fmt.Errorf("unknown controller type: %v", cc.Type)
		}
	}

	if started == 0 {
		return fmt.Errorf("no controllers configured; nothing to do")
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
