package config

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	stations, err := s.GetStations()
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	config.Stations = stations

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	analysis, err := s.getAnalysisDefaults()
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis defaults: %w", err)
	}
	config.Analysis = *analysis

	return config, nil
}

// GetStations returns station configurations from the database
func (s *SQLiteProvider) GetStations() ([]StationData, error) {
	query := `
		SELECT code, name, parameter, latitude, longitude
		FROM stations
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY code
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []StationData
	for rows.Next() {
		var station StationData
		var parameter sql.NullString
		var lat, lon sql.NullFloat64

		err := rows.Scan(&station.Code, &station.Name, &parameter, &lat, &lon)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}

		if parameter.Valid {
			station.Parameter = parameter.String
		}
		if lat.Valid {
			station.Latitude = lat.Float64
		}
		if lon.Valid {
			station.Longitude = lon.Float64
		}

		stations = append(stations, station)
	}

	return stations, rows.Err()
}

// GetStorageConfig returns the storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	storage := &StorageData{}

	query := `
		SELECT backend, connection_string, addr, password, db, ttl_minutes
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var connString, addr, password sql.NullString
		var db, ttlMinutes sql.NullInt64

		err := rows.Scan(&backend, &connString, &addr, &password, &db, &ttlMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storage row: %w", err)
		}

		switch backend {
		case "timescaledb":
			if connString.Valid {
				storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString.String}
			}
		case "redis":
			redis := &RedisData{}
			if addr.Valid {
				redis.Addr = addr.String
			}
			if password.Valid {
				redis.Password = password.String
			}
			if db.Valid {
				redis.DB = int(db.Int64)
			}
			if ttlMinutes.Valid {
				redis.TTLMinutes = int(ttlMinutes.Int64)
			}
			storage.Redis = redis
		}
	}

	return storage, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT type, listen_addr, port, tls_cert_path, tls_key_path,
		       endpoint, api_key, interval_minutes
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY type
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controller ControllerData
		var listenAddr, certPath, keyPath, endpoint, apiKey sql.NullString
		var port, intervalMinutes sql.NullInt64

		err := rows.Scan(&controller.Type, &listenAddr, &port, &certPath,
			&keyPath, &endpoint, &apiKey, &intervalMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		switch controller.Type {
		case "rest":
			rest := &RESTServerData{}
			if listenAddr.Valid {
				rest.ListenAddr = listenAddr.String
			}
			if port.Valid {
				rest.Port = int(port.Int64)
			}
			if certPath.Valid {
				rest.TLSCertPath = certPath.String
			}
			if keyPath.Valid {
				rest.TLSKeyPath = keyPath.String
			}
			controller.RESTServer = rest
		case "collector":
			collector := &CollectorData{}
			if endpoint.Valid {
				collector.Endpoint = endpoint.String
			}
			if apiKey.Valid {
				collector.APIKey = apiKey.String
			}
			if intervalMinutes.Valid {
				collector.IntervalMinutes = int(intervalMinutes.Int64)
			}
			controller.Collector = collector
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// getAnalysisDefaults returns the frequency-analysis defaults from the database
func (s *SQLiteProvider) getAnalysisDefaults() (*AnalysisData, error) {
	query := `
		SELECT min_periods, outlier_z_threshold, return_periods, distributions
		FROM analysis_defaults
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	analysis := &AnalysisData{}

	var minPeriods sql.NullInt64
	var zThreshold sql.NullFloat64
	var returnPeriodsJSON, distributionsJSON sql.NullString

	err := s.db.QueryRow(query).Scan(&minPeriods, &zThreshold, &returnPeriodsJSON, &distributionsJSON)
	if err == sql.ErrNoRows {
		return analysis, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis defaults: %w", err)
	}

	if minPeriods.Valid {
		analysis.MinPeriods = int(minPeriods.Int64)
	}
	if zThreshold.Valid {
		analysis.OutlierZThreshold = zThreshold.Float64
	}
	// Slice-valued defaults are stored as JSON arrays in a text column
	if returnPeriodsJSON.Valid && returnPeriodsJSON.String != "" {
		if err := json.Unmarshal([]byte(returnPeriodsJSON.String), &analysis.ReturnPeriods); err != nil {
			return nil, fmt.Errorf("failed to parse return_periods: %w", err)
		}
	}
	if distributionsJSON.Valid && distributionsJSON.String != "" {
		if err := json.Unmarshal([]byte(distributionsJSON.String), &analysis.Distributions); err != nil {
			return nil, fmt.Errorf("failed to parse distributions: %w", err)
		}
	}

	return analysis, nil
}

// SaveConfig writes a complete configuration into the database under the
// 'default' config name, replacing anything already stored there
func (s *SQLiteProvider) SaveConfig(data *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO configs (name) VALUES ('default')`); err != nil {
		return fmt.Errorf("failed to create default config: %w", err)
	}

	var configID int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&configID); err != nil {
		return fmt.Errorf("failed to look up default config: %w", err)
	}

	for _, table := range []string{"stations", "storage_configs", "controller_configs", "analysis_defaults"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE config_id = ?", table), configID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, station := range data.Stations {
		_, err := tx.Exec(`
			INSERT INTO stations (config_id, code, name, parameter, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?)`,
			configID, station.Code, station.Name, station.Parameter, station.Latitude, station.Longitude)
		if err != nil {
			return fmt.Errorf("failed to insert station %s: %w", station.Code, err)
		}
	}

	if data.Storage.TimescaleDB != nil {
		_, err := tx.Exec(`
			INSERT INTO storage_configs (config_id, backend, connection_string)
			VALUES (?, 'timescaledb', ?)`,
			configID, data.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return fmt.Errorf("failed to insert timescaledb storage config: %w", err)
		}
	}
	if data.Storage.Redis != nil {
		_, err := tx.Exec(`
			INSERT INTO storage_configs (config_id, backend, addr, password, db, ttl_minutes)
			VALUES (?, 'redis', ?, ?, ?, ?)`,
			configID, data.Storage.Redis.Addr, data.Storage.Redis.Password,
			data.Storage.Redis.DB, data.Storage.Redis.TTLMinutes)
		if err != nil {
			return fmt.Errorf("failed to insert redis storage config: %w", err)
		}
	}

	for _, controller := range data.Controllers {
		switch controller.Type {
		case "rest":
			rest := controller.RESTServer
			if rest == nil {
				rest = &RESTServerData{}
			}
			_, err := tx.Exec(`
				INSERT INTO controller_configs (config_id, type, listen_addr, port, tls_cert_path, tls_key_path)
				VALUES (?, 'rest', ?, ?, ?, ?)`,
				configID, rest.ListenAddr, rest.Port, rest.TLSCertPath, rest.TLSKeyPath)
			if err != nil {
				return fmt.Errorf("failed to insert rest controller config: %w", err)
			}
		case "collector":
			collector := controller.Collector
			if collector == nil {
				collector = &CollectorData{}
			}
			_, err := tx.Exec(`
				INSERT INTO controller_configs (config_id, type, endpoint, api_key, interval_minutes)
				VALUES (?, 'collector', ?, ?, ?)`,
				configID, collector.Endpoint, collector.APIKey, collector.IntervalMinutes)
			if err != nil {
				return fmt.Errorf("failed to insert collector controller config: %w", err)
			}
		default:
			return fmt.Errorf("unknown controller type: %s", controller.Type)
		}
	}

	returnPeriodsJSON, err := json.Marshal(data.Analysis.ReturnPeriods)
	if err != nil {
		return fmt.Errorf("failed to encode return periods: %w", err)
	}
	distributionsJSON, err := json.Marshal(data.Analysis.Distributions)
	if err != nil {
		return fmt.Errorf("failed to encode distributions: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO analysis_defaults (config_id, min_periods, outlier_z_threshold, return_periods, distributions)
		VALUES (?, ?, ?, ?, ?)`,
		configID, data.Analysis.MinPeriods, data.Analysis.OutlierZThreshold,
		string(returnPeriodsJSON), string(distributionsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert analysis defaults: %w", err)
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
