package store

import (
	"time"

	"robot-fleet-backend/internal/model"
)

// RobotDetails is a robot together with everything that references it.
type RobotDetails struct {
	model.Robot
	Tasks             []model.Task             `json:"tasks"`
	Telemetry         []model.TelemetryPoint   `json:"telemetry"`
	MaintenanceEvents []model.MaintenanceEvent `json:"maintenanceEvents"`
	Predictions       []model.Prediction       `json:"predictions"`
}

// TelemetryAggregate holds SQL aggregates over a filtered telemetry set.
// Average, Min and Max are nil when Count is zero.
type TelemetryAggregate struct {
	Count           int64
	Average         *float64
	Min             *float64
	Max             *float64
	LatestTimestamp *time.Time
}

// statusCount is a single row of a GROUP BY status query.
type statusCount struct {
	Status string
	Total  int64
}

// robotLoad is a single row of a GROUP BY assigned_robot_id query.
type robotLoad struct {
	RobotID int64
	Total   int64
}

// telemetryAggregateRow receives the aggregate columns; pointers scan NULL.
type telemetryAggregateRow struct {
	PointCount int64
	AvgValue   *float64
	MinValue   *float64
	MaxValue   *float64
}
