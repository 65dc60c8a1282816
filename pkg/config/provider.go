package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStations() ([]StationData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Stations    []StationData    `json:"stations"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
	Analysis    AnalysisData     `json:"analysis,omitempty"`
}

// StationData holds configuration for a monitored hydrological station
type StationData struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Parameter string  `json:"parameter,omitempty"` // depth, discharge, or rainfall
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// StorageData holds the configuration for storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	Redis       *RedisData       `json:"redis,omitempty"`
}

// TimescaleDBData holds TimescaleDB/Postgres connection configuration
type TimescaleDBData struct {
	ConnectionString string `json:"connection-string"`
}

// RedisData holds the analysis result cache configuration
type RedisData struct {
	Addr       string `json:"addr"`
	Password   string `json:"password,omitempty"`
	DB         int    `json:"db,omitempty"`
	TTLMinutes int    `json:"ttl-minutes,omitempty"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
	Collector  *CollectorData  `json:"collector,omitempty"`
}

// RESTServerData holds configuration for the REST API server
type RESTServerData struct {
	ListenAddr  string   `json:"listen-addr,omitempty"`
	Port        int      `json:"port,omitempty"`
	TLSCertPath string   `json:"cert,omitempty"`
	TLSKeyPath  string   `json:"key,omitempty"`
	CORSOrigins []string `json:"cors-origins,omitempty"`
}

// CollectorData holds configuration for the external hydromet API poller
type CollectorData struct {
	Endpoint        string `json:"endpoint"`
	APIKey          string `json:"api-key,omitempty"`
	IntervalMinutes int    `json:"interval-minutes,omitempty"`
}

// AnalysisData holds frequency-analysis defaults
type AnalysisData struct {
	MinPeriods        int       `json:"min-periods,omitempty"`
	OutlierZThreshold float64   `json:"outlier-z-threshold,omitempty"`
	ReturnPeriods     []float64 `json:"return-periods,omitempty"`
	Distributions     []string  `json:"distributions,omitempty"`
}
