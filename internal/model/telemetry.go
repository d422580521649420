package model

import (
	"time"

	"gorm.io/datatypes"
)

// TelemetryPoint is a single metric sample reported by a robot. Metadata
// values are scalars (string, number, bool or null).
type TelemetryPoint struct {
	ID          int64             `gorm:"primaryKey" json:"id,string"`
	RobotID     int64             `gorm:"not null;index:idx_telemetry_robot_ts,priority:1" json:"robotId,string"`
	Timestamp   time.Time         `gorm:"not null;index:idx_telemetry_robot_ts,priority:2;index:idx_telemetry_metric_ts,priority:2" json:"timestamp"`
	MetricName  string            `gorm:"size:100;not null;index:idx_telemetry_metric_ts,priority:1" json:"metricName"`
	MetricValue float64           `gorm:"not null" json:"metricValue"`
	Metadata    datatypes.JSONMap `json:"metadata"`

	// Associations
	Robot *Robot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
