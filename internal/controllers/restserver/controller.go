package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hydrostats/hydrofreq/internal/cache"
	"github.com/hydrostats/hydrofreq/internal/database"
	"github.com/hydrostats/hydrofreq/internal/frequency"
	"github.com/hydrostats/hydrofreq/internal/log"
	"github.com/hydrostats/hydrofreq/internal/observability"
	"github.com/hydrostats/hydrofreq/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	DB             *database.Client
	DBEnabled      bool
	Cache          *cache.ResultCache
	CacheEnabled   bool
	Analyzer       *frequency.Analyzer
	AnalysisConfig config.AnalysisData
	Metrics        *observability.Metrics
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RESTServerData, metrics *observability.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		restConfig:     rc,
		Metrics:        metrics,
		logger:         logger,
	}

	// Load configuration
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	ctrl.AnalysisConfig = cfgData.Analysis
	ctrl.Analyzer = frequency.NewAnalyzer(logger)

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}
	ctrl.restConfig = rc

	// If a TimescaleDB database was configured, set up a client so that the
	// handlers can retrieve station data
	if cfgData.Storage.TimescaleDB != nil && cfgData.Storage.TimescaleDB.ConnectionString != "" {
		ctrl.DB = database.NewClient(cfgData.Storage.TimescaleDB.ConnectionString, logger)
		if err := ctrl.DB.Connect(); err != nil {
			return nil, fmt.Errorf("REST server could not connect to database: %v", err)
		}
		ctrl.DBEnabled = true
	}

	// If Redis was configured, set up the result cache
	if cfgData.Storage.Redis != nil && cfgData.Storage.Redis.Addr != "" {
		rd := cfgData.Storage.Redis
		ttl := time.Duration(rd.TTLMinutes) * time.Minute
		ctrl.Cache, err = cache.New(rd.Addr, rd.Password, rd.DB, ttl)
		if err != nil {
			return nil, fmt.Errorf("REST server could not connect to redis: %v", err)
		}
		ctrl.CacheEnabled = true
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
		if c.CacheEnabled {
			c.Cache.Close()
		}
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Station registry
	api.HandleFunc("/stations", c.handlers.ListStations).Methods(http.MethodGet)
	api.HandleFunc("/stations", c.handlers.CreateStation).Methods(http.MethodPost)
	api.HandleFunc("/stations/{id}", c.handlers.GetStation).Methods(http.MethodGet)
	api.HandleFunc("/stations/{id}", c.handlers.DeleteStation).Methods(http.MethodDelete)
	api.HandleFunc("/stations/{id}/samples", c.handlers.AddSamples).Methods(http.MethodPost)

	// Analysis
	api.HandleFunc("/analysis", c.handlers.RunInlineAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/stations/{id}/analysis", c.handlers.GetStationAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/stations/{id}/frequency/{family}", c.handlers.GetFrequencyCurve).Methods(http.MethodGet)

	var origins []string
	if len(c.restConfig.CORSOrigins) > 0 {
		origins = c.restConfig.CORSOrigins
	} else {
		origins = []string{"*"}
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return cors(handlers.CombinedLoggingHandler(log.Writer(), router))
}
