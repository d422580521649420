package model

import "time"

// Prediction is a model output about a robot, such as an anomaly score or
// the remaining useful life.
type Prediction struct {
	ID             int64          `gorm:"primaryKey" json:"id,string"`
	RobotID        int64          `gorm:"not null;index" json:"robotId,string"`
	PredictionType PredictionType `gorm:"size:20;not null;index" json:"predictionType"`
	Value          float64        `gorm:"not null" json:"value"`
	ModelVersion   string         `gorm:"size:50;not null" json:"modelVersion"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`

	// Associations
	Robot *Robot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
