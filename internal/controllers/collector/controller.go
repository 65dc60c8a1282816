// Package collector polls an external hydromet API for station observations
// and stores them as raw samples.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hydrostats/hydrofreq/internal/controllers"
	"github.com/hydrostats/hydrofreq/internal/database"
	"github.com/hydrostats/hydrofreq/internal/log"
	"github.com/hydrostats/hydrofreq/internal/observability"
	"github.com/hydrostats/hydrofreq/pkg/config"
)

// CollectorController polls the configured endpoint on an interval and
// appends new observations for every configured station
type CollectorController struct {
	ctx             context.Context
	wg              *sync.WaitGroup
	configProvider  config.ConfigProvider
	collectorConfig config.CollectorData
	metrics         *observability.Metrics
	logger          *zap.SugaredLogger
	DB              *database.Client
}

// ObservationsResponse is the wire shape of the hydromet API reply
type ObservationsResponse struct {
	Success      bool          `json:"success"`
	Error        string        `json:"error"`
	Observations []Observation `json:"observations"`
}

// Observation is one timestamped measurement from the hydromet API
type Observation struct {
	ObservedAt time.Time `json:"observed_at"`
	Value      float64   `json:"value"`
}

func NewCollectorController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, cc config.CollectorData, metrics *observability.Metrics, logger *zap.SugaredLogger) (*CollectorController, error) {
	c := CollectorController{
		ctx:             ctx,
		wg:              wg,
		configProvider:  configProvider,
		collectorConfig: cc,
		metrics:         metrics,
		logger:          logger,
	}

	if err := controllers.ValidateRequiredFields(map[string]string{
		"collector endpoint": cc.Endpoint,
	}); err != nil {
		return &CollectorController{}, err
	}

	if err := controllers.ValidateTimescaleDBConfig(configProvider, "collector"); err != nil {
		return &CollectorController{}, err
	}

	db, err := controllers.SetupDatabaseConnection(configProvider, logger)
	if err != nil {
		return &CollectorController{}, err
	}
	c.DB = db

	if err := c.DB.Migrate(); err != nil {
		return &CollectorController{}, fmt.Errorf("error migrating database tables: %v", err)
	}

	return &c, nil
}

func (c *CollectorController) StartController() error {
	log.Info("Starting collector controller...")

	stations, err := c.configProvider.GetStations()
	if err != nil {
		return fmt.Errorf("error getting stations: %v", err)
	}

	if len(stations) == 0 {
		log.Info("No stations configured - collector will start but remain idle")
		return nil
	}

	log.Infof("Found %d configured station(s)", len(stations))

	for _, station := range stations {
		row, err := c.ensureStation(station)
		if err != nil {
			return fmt.Errorf("error registering station %s: %v", station.Code, err)
		}

		stationCopy := station
		go c.pollPeriodically(stationCopy, row.ID)
	}

	return nil
}

// ensureStation makes sure a configured station has a database row,
// creating one on first sight
func (c *CollectorController) ensureStation(sd config.StationData) (database.Station, error) {
	existing, err := c.DB.GetStationByCode(sd.Code)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return database.Station{}, err
	}

	station := database.Station{
		Code:      sd.Code,
		Name:      sd.Name,
		Parameter: sd.Parameter,
		Latitude:  sd.Latitude,
		Longitude: sd.Longitude,
	}
	if err := c.DB.CreateStation(&station); err != nil {
		return database.Station{}, err
	}
	log.Infof("Registered new station %s (%s)", station.Code, station.Name)
	return station, nil
}

// pollPeriodically fetches observations for one station on the configured
// interval. The first fetch happens immediately since tickers only begin
// to fire after the interval has elapsed.
func (c *CollectorController) pollPeriodically(station config.StationData, stationID string) {
	c.wg.Add(1)
	defer c.wg.Done()

	interval := time.Duration(c.collectorConfig.IntervalMinutes) * time.Minute
	if interval == 0 {
		interval = 60 * time.Minute
	}

	log.Infof("Starting observation fetcher for station %s: every %v minutes", station.Code, interval.Minutes())

	if err := c.fetchAndStoreObservations(station, stationID); err != nil {
		c.metrics.CollectorErrors.Inc()
		log.Errorf("error fetching observations for station %s: %v", station.Code, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debugf("Updating observations for station %s...", station.Code)
			if err := c.fetchAndStoreObservations(station, stationID); err != nil {
				c.metrics.CollectorErrors.Inc()
				log.Errorf("error fetching observations for station %s: %v", station.Code, err)
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// fetchAndStoreObservations pulls the latest observations for one station
// from the hydromet API and appends any that are newer than what is stored
func (c *CollectorController) fetchAndStoreObservations(station config.StationData, stationID string) error {
	v := url.Values{}
	v.Set("station", station.Code)
	if c.collectorConfig.APIKey != "" {
		v.Set("api_key", c.collectorConfig.APIKey)
	}

	client := controllers.NewHTTPClient(10 * time.Second)

	obsURL := fmt.Sprintf("%s/observations?%s", c.collectorConfig.Endpoint, v.Encode())
	req, err := http.NewRequest("GET", obsURL, nil)
	if err != nil {
		return fmt.Errorf("error creating hydromet API HTTP request: %v", err)
	}

	log.Debugf("Making request to hydromet API: %v", obsURL)
	req = req.WithContext(c.ctx)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to hydromet API: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	response := &ObservationsResponse{}
	if err := json.Unmarshal(bodyBytes, response); err != nil {
		return fmt.Errorf("unable to decode hydromet API response: %v", err)
	}

	if !response.Success {
		return fmt.Errorf("bad response from hydromet server: %v", response.Error)
	}

	cutoff := c.latestObservedAt(stationID)

	rows := make([]database.Sample, 0, len(response.Observations))
	for _, obs := range response.Observations {
		if !obs.ObservedAt.After(cutoff) {
			continue
		}
		rows = append(rows, database.Sample{
			StationID:  stationID,
			ObservedAt: obs.ObservedAt,
			Value:      obs.Value,
		})
	}

	if len(rows) == 0 {
		log.Debugf("No new observations for station %s", station.Code)
		return nil
	}

	if err := c.DB.InsertSamples(rows); err != nil {
		return err
	}
	c.metrics.SamplesCollected.Add(float64(len(rows)))
	log.Infof("Stored %d new observation(s) for station %s", len(rows), station.Code)
	return nil
}

// latestObservedAt returns the newest stored observation time for a
// station, or the zero time when none are stored
func (c *CollectorController) latestObservedAt(stationID string) time.Time {
	var row database.Sample
	err := c.DB.DB.Where("station_id = ?", stationID).Order("observed_at DESC").First(&row).Error
	if err != nil {
		return time.Time{}
	}
	return row.ObservedAt
}
