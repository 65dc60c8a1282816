package database

import (
	"time"

	"github.com/jackc/pgtype"
)

// Station represents a monitored gauging or observation site
type Station struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Code      string    `gorm:"column:code;not null;unique"`
	Name      string    `gorm:"column:name;not null"`
	Parameter string    `gorm:"column:parameter;not null"`
	Latitude  float64   `gorm:"column:latitude"`
	Longitude float64   `gorm:"column:longitude"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for Station
func (Station) TableName() string {
	return "stations"
}

// Sample represents a single raw observation for a station
type Sample struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	StationID  string    `gorm:"column:station_id;not null;index:idx_samples_station_time"`
	ObservedAt time.Time `gorm:"column:observed_at;not null;index:idx_samples_station_time"`
	Value      float64   `gorm:"column:value;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for Sample
func (Sample) TableName() string {
	return "samples"
}

// AnalysisRecord archives a completed frequency analysis for a station.
// The full result is stored as JSONB so past analyses can be inspected
// without recomputation.
type AnalysisRecord struct {
	ID            int64        `gorm:"primaryKey;autoIncrement;column:id"`
	StationID     string       `gorm:"column:station_id;not null;index"`
	CacheKey      string       `gorm:"column:cache_key;not null;index"`
	Aggregation   string       `gorm:"column:aggregation;not null"`
	SampleCount   int          `gorm:"column:sample_count;not null"`
	BestFitFamily string       `gorm:"column:best_fit_family"`
	Result        pgtype.JSONB `gorm:"column:result;type:jsonb"`
	CreatedAt     time.Time    `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for AnalysisRecord
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
