package model

import (
	"time"

	"gorm.io/datatypes"
)

// Task is a unit of work that may be assigned to a robot.
type Task struct {
	ID                   int64                       `gorm:"primaryKey" json:"id,string"`
	RequiredCapabilities datatypes.JSONSlice[string] `gorm:"not null" json:"requiredCapabilities"`
	Status               TaskStatus                  `gorm:"size:20;not null;index" json:"status"`
	Priority             int                         `gorm:"not null;index" json:"priority"`
	Deadline             *time.Time                  `gorm:"index" json:"deadline"`
	AssignedRobotID      *int64                      `gorm:"index" json:"assignedRobotId,string"`
	CreatedAt            time.Time                   `json:"createdAt"`

	// Associations
	AssignedRobot *Robot `gorm:"constraint:OnDelete:SET NULL" json:"assignedRobot,omitempty"`
}
