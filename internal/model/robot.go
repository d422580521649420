package model

import (
	"time"

	"gorm.io/datatypes"
)

// Robot is a physical unit in the fleet.
type Robot struct {
	ID              int64                       `gorm:"primaryKey" json:"id,string"`
	Serial          string                      `gorm:"size:100;not null;uniqueIndex" json:"serial"`
	Model           string                      `gorm:"size:100;not null" json:"model"`
	Capabilities    datatypes.JSONSlice[string] `gorm:"not null" json:"capabilities"`
	Status          RobotStatus                 `gorm:"size:20;not null;index" json:"status"`
	Location        string                      `gorm:"size:255" json:"location"`
	LastSeen        *time.Time                  `gorm:"index" json:"lastSeen"`
	FirmwareVersion string                      `gorm:"size:100" json:"firmwareVersion"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// HasCapability reports whether tag is one of the robot's capability tags.
// Matching is exact and case-sensitive.
func (r *Robot) HasCapability(tag string) bool {
	for _, c := range r.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// HasCapabilities reports whether the robot's capabilities are a superset of
// required.
func (r *Robot) HasCapabilities(required []string) bool {
	for _, tag := range required {
		if !r.HasCapability(tag) {
			return false
		}
	}
	return true
}
