package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hydrostats/hydrofreq/internal/database"
	"github.com/hydrostats/hydrofreq/pkg/config"
	"go.uber.org/zap"
)

// NewHTTPClient creates a standardized HTTP client with timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// ValidateTimescaleDBConfig validates TimescaleDB configuration exists
func ValidateTimescaleDBConfig(configProvider config.ConfigProvider, controllerName string) error {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %v", err)
	}

	if cfgData.Storage.TimescaleDB == nil || cfgData.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("TimescaleDB storage must be configured for the %s controller to function", controllerName)
	}

	return nil
}

// SetupDatabaseConnection creates and connects to TimescaleDB database
func SetupDatabaseConnection(configProvider config.ConfigProvider, logger *zap.SugaredLogger) (*database.Client, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}
	if cfgData.Storage.TimescaleDB == nil {
		return nil, fmt.Errorf("TimescaleDB storage is not configured")
	}

	db := database.NewClient(cfgData.Storage.TimescaleDB.ConnectionString, logger)
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("could not connect to TimescaleDB: %v", err)
	}

	return db, nil
}

// ValidateRequiredFields checks that required configuration fields are set
func ValidateRequiredFields(fields map[string]string) error {
	for fieldName, fieldValue := range fields {
		if fieldValue == "" {
			return fmt.Errorf("%s must be set", fieldName)
		}
	}
	return nil
}
