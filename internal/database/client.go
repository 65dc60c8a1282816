package database

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/google/uuid"
	"github.com/hydrostats/hydrofreq/internal/frequency"
	"github.com/hydrostats/hydrofreq/internal/log"
	"github.com/jackc/pgtype"
	"go.uber.org/zap"
)

// Client holds the connection to a TimescaleDB database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect() error {
	var err error
	c.DB, err = CreateConnection(c.connectionString)
	return err
}

// Migrate creates or updates the schema for all models
func (c *Client) Migrate() error {
	return c.DB.AutoMigrate(&Station{}, &Sample{}, &AnalysisRecord{})
}

// CreateStation inserts a new station, assigning an ID when none is set
func (c *Client) CreateStation(s *Station) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if err := c.DB.Create(s).Error; err != nil {
		return fmt.Errorf("error creating station %v: %w", s.Code, err)
	}
	return nil
}

// GetStation fetches a station by ID
func (c *Client) GetStation(id string) (Station, error) {
	var s Station
	if err := c.DB.Where("id = ?", id).First(&s).Error; err != nil {
		return Station{}, err
	}
	return s, nil
}

// GetStationByCode fetches a station by its short code
func (c *Client) GetStationByCode(code string) (Station, error) {
	var s Station
	if err := c.DB.Where("code = ?", code).First(&s).Error; err != nil {
		return Station{}, err
	}
	return s, nil
}

// ListStations returns all registered stations ordered by code
func (c *Client) ListStations() ([]Station, error) {
	var stations []Station
	if err := c.DB.Order("code").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("error listing stations: %w", err)
	}
	return stations, nil
}

// DeleteStation removes a station and its samples
func (c *Client) DeleteStation(id string) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("station_id = ?", id).Delete(&Sample{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Station{}).Error
	})
}

// InsertSamples stores a batch of observations for a station
func (c *Client) InsertSamples(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if err := c.DB.CreateInBatches(samples, 500).Error; err != nil {
		return fmt.Errorf("error inserting samples: %w", err)
	}
	return nil
}

// GetSamples retrieves all observations for a station ordered by time
// and converts them to analysis samples
func (c *Client) GetSamples(stationID string) ([]frequency.Sample, error) {
	var rows []Sample
	if err := c.DB.Where("station_id = ?", stationID).Order("observed_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying samples for station %v: %w", stationID, err)
	}
	out := make([]frequency.Sample, 0, len(rows))
	for _, r := range rows {
		out = append(out, frequency.Sample{
			Timestamp: r.ObservedAt,
			Value:     r.Value,
			SeriesID:  stationID,
		})
	}
	return out, nil
}

// ArchiveAnalysis stores a completed analysis result as JSONB
func (c *Client) ArchiveAnalysis(stationID, cacheKey string, result *frequency.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("error encoding analysis result: %w", err)
	}

	var jb pgtype.JSONB
	if err := jb.Set(payload); err != nil {
		return fmt.Errorf("error preparing JSONB payload: %w", err)
	}

	rec := AnalysisRecord{
		StationID:     stationID,
		CacheKey:      cacheKey,
		Aggregation:   string(result.Aggregation),
		SampleCount:   result.SampleCount,
		BestFitFamily: result.BestFitFamily,
		Result:        jb,
	}
	if err := c.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("error archiving analysis for station %v: %w", stationID, err)
	}
	return nil
}

// GetLatestAnalysis fetches the most recent archived analysis for a station
func (c *Client) GetLatestAnalysis(stationID string) (AnalysisRecord, error) {
	var rec AnalysisRecord
	if err := c.DB.Where("station_id = ?", stationID).Order("created_at DESC").First(&rec).Error; err != nil {
		return AnalysisRecord{}, err
	}
	return rec, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
