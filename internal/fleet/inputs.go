package fleet

import (
	"time"

	"github.com/shopspring/decimal"

	"robot-fleet-backend/internal/model"
)

// Create inputs carry every writable field. Update inputs use pointers: a nil
// field is left unchanged.

type CreateRobotInput struct {
	Serial          string            `json:"serial" validate:"notblank,max=100"`
	Model           string            `json:"model" validate:"notblank,max=100"`
	Capabilities    []string          `json:"capabilities" validate:"omitempty,dive,notblank"`
	Status          model.RobotStatus `json:"status" validate:"omitempty,robot_status"`
	Location        string            `json:"location" validate:"max=255"`
	LastSeen        *time.Time        `json:"lastSeen"`
	FirmwareVersion string            `json:"firmwareVersion" validate:"max=100"`
}

// RobotTemplate describes one robot of a templated batch.
type RobotTemplate = CreateRobotInput

type UpdateRobotInput struct {
	Serial          *string            `json:"serial" validate:"omitempty,notblank,max=100"`
	Model           *string            `json:"model" validate:"omitempty,notblank,max=100"`
	Capabilities    *[]string          `json:"capabilities" validate:"omitempty,dive,notblank"`
	Status          *model.RobotStatus `json:"status" validate:"omitempty,robot_status"`
	Location        *string            `json:"location" validate:"omitempty,max=255"`
	LastSeen        *time.Time         `json:"lastSeen"`
	FirmwareVersion *string            `json:"firmwareVersion" validate:"omitempty,max=100"`
}

type CreateTaskInput struct {
	RequiredCapabilities []string         `json:"requiredCapabilities" validate:"omitempty,dive,notblank"`
	Status               model.TaskStatus `json:"status" validate:"omitempty,task_status"`
	Priority             int              `json:"priority"`
	Deadline             *time.Time       `json:"deadline"`
	AssignedRobotID      *int64           `json:"assignedRobotId,string"`
}

type UpdateTaskInput struct {
	RequiredCapabilities *[]string         `json:"requiredCapabilities" validate:"omitempty,dive,notblank"`
	Status               *model.TaskStatus `json:"status" validate:"omitempty,task_status"`
	Priority             *int              `json:"priority"`
	Deadline             *time.Time        `json:"deadline"`
	ClearDeadline        bool              `json:"clearDeadline"`
	AssignedRobotID      *int64            `json:"assignedRobotId,string"`
	UnassignRobot        bool              `json:"unassignRobot"`
}

type CreateTelemetryInput struct {
	RobotID     int64          `json:"robotId,string" validate:"required"`
	Timestamp   *time.Time     `json:"timestamp"`
	MetricName  string         `json:"metricName" validate:"notblank,max=100"`
	MetricValue *float64       `json:"metricValue" validate:"required"`
	Metadata    map[string]any `json:"metadata" validate:"omitempty,scalar_map"`
}

type UpdateTelemetryInput struct {
	RobotID     *int64          `json:"robotId,string"`
	Timestamp   *time.Time      `json:"timestamp"`
	MetricName  *string         `json:"metricName" validate:"omitempty,notblank,max=100"`
	MetricValue *float64        `json:"metricValue"`
	Metadata    *map[string]any `json:"metadata" validate:"omitempty,scalar_map"`
}

type CreateMaintenanceInput struct {
	RobotID   int64                 `json:"robotId,string" validate:"required"`
	Type      model.MaintenanceType `json:"type" validate:"maintenance_type"`
	Timestamp *time.Time            `json:"timestamp"`
	Notes     string                `json:"notes"`
	Cost      *decimal.Decimal      `json:"cost"`
}

type UpdateMaintenanceInput struct {
	RobotID   *int64                 `json:"robotId,string"`
	Type      *model.MaintenanceType `json:"type" validate:"omitempty,maintenance_type"`
	Timestamp *time.Time             `json:"timestamp"`
	Notes     *string                `json:"notes"`
	Cost      *decimal.Decimal       `json:"cost"`
	ClearCost bool                   `json:"clearCost"`
}

type CreatePredictionInput struct {
	RobotID        int64                `json:"robotId,string" validate:"required"`
	PredictionType model.PredictionType `json:"predictionType" validate:"prediction_type"`
	Value          *float64             `json:"value" validate:"required"`
	ModelVersion   string               `json:"modelVersion" validate:"notblank,max=50"`
	Timestamp      *time.Time           `json:"timestamp"`
}

type UpdatePredictionInput struct {
	RobotID        *int64                `json:"robotId,string"`
	PredictionType *model.PredictionType `json:"predictionType" validate:"omitempty,prediction_type"`
	Value          *float64              `json:"value"`
	ModelVersion   *string               `json:"modelVersion" validate:"omitempty,notblank,max=50"`
	Timestamp      *time.Time            `json:"timestamp"`
}

// TelemetryStatsQuery narrows TelemetryStatistics. Every field is optional.
type TelemetryStatsQuery struct {
	RobotID    *int64
	MetricName *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// AnomalyQuery narrows TelemetryAnomalies. A nil multiplier uses the default.
type AnomalyQuery struct {
	RobotID             *int64
	MetricName          *string
	ThresholdMultiplier *float64
}
