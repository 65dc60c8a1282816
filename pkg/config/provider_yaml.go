package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// yamlConfig mirrors ConfigData with YAML tags
type yamlConfig struct {
	Stations    []yamlStation    `yaml:"stations"`
	Storage     yamlStorage      `yaml:"storage,omitempty"`
	Controllers []yamlController `yaml:"controllers,omitempty"`
	Analysis    yamlAnalysis     `yaml:"analysis,omitempty"`
}

type yamlStation struct {
	Code      string  `yaml:"code"`
	Name      string  `yaml:"name"`
	Parameter string  `yaml:"parameter,omitempty"`
	Latitude  float64 `yaml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty"`
}

type yamlStorage struct {
	TimescaleDB *yamlTimescaleDB `yaml:"timescaledb,omitempty"`
	Redis       *yamlRedis       `yaml:"redis,omitempty"`
}

type yamlTimescaleDB struct {
	ConnectionString string `yaml:"connection-string"`
}

type yamlRedis struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	TTLMinutes int    `yaml:"ttl-minutes,omitempty"`
}

type yamlController struct {
	Type       string          `yaml:"type"`
	RESTServer *yamlRESTServer `yaml:"rest,omitempty"`
	Collector  *yamlCollector  `yaml:"collector,omitempty"`
}

type yamlRESTServer struct {
	ListenAddr  string   `yaml:"listen-addr,omitempty"`
	Port        int      `yaml:"port,omitempty"`
	TLSCertPath string   `yaml:"cert,omitempty"`
	TLSKeyPath  string   `yaml:"key,omitempty"`
	CORSOrigins []string `yaml:"cors-origins,omitempty"`
}

type yamlCollector struct {
	Endpoint        string `yaml:"endpoint"`
	APIKey          string `yaml:"api-key,omitempty"`
	IntervalMinutes int    `yaml:"interval-minutes,omitempty"`
}

type yamlAnalysis struct {
	MinPeriods        int       `yaml:"min-periods,omitempty"`
	OutlierZThreshold float64   `yaml:"outlier-z-threshold,omitempty"`
	ReturnPeriods     []float64 `yaml:"return-periods,omitempty"`
	Distributions     []string  `yaml:"distributions,omitempty"`
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from a YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yc yamlConfig
	err = yaml.Unmarshal(cfgFile, &yc)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Stations:    make([]StationData, len(yc.Stations)),
		Controllers: make([]ControllerData, len(yc.Controllers)),
	}

	for i, station := range yc.Stations {
		config.Stations[i] = StationData{
			Code:      station.Code,
			Name:      station.Name,
			Parameter: station.Parameter,
			Latitude:  station.Latitude,
			Longitude: station.Longitude,
		}
	}

	config.Storage = StorageData{}
	if yc.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yc.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yc.Storage.Redis != nil {
		config.Storage.Redis = &RedisData{
			Addr:       yc.Storage.Redis.Addr,
			Password:   yc.Storage.Redis.Password,
			DB:         yc.Storage.Redis.DB,
			TTLMinutes: yc.Storage.Redis.TTLMinutes,
		}
	}

	for i, controller := range yc.Controllers {
		cd := ControllerData{Type: controller.Type}
		if controller.RESTServer != nil {
			cd.RESTServer = &RESTServerData{
				ListenAddr:  controller.RESTServer.ListenAddr,
				Port:        controller.RESTServer.Port,
				TLSCertPath: controller.RESTServer.TLSCertPath,
				TLSKeyPath:  controller.RESTServer.TLSKeyPath,
				CORSOrigins: controller.RESTServer.CORSOrigins,
			}
		}
		if controller.Collector != nil {
			cd.Collector = &CollectorData{
				Endpoint:        controller.Collector.Endpoint,
				APIKey:          controller.Collector.APIKey,
				IntervalMinutes: controller.Collector.IntervalMinutes,
			}
		}
		config.Controllers[i] = cd
	}

	config.Analysis = AnalysisData{
		MinPeriods:        yc.Analysis.MinPeriods,
		OutlierZThreshold: yc.Analysis.OutlierZThreshold,
		ReturnPeriods:     yc.Analysis.ReturnPeriods,
		Distributions:     yc.Analysis.Distributions,
	}

	y.config = config
	return config, nil
}

// GetStations returns station configurations
func (y *YAMLProvider) GetStations() ([]StationData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Stations, nil
}

// GetStorageConfig returns the storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
