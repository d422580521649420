package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceEvent records service work performed on a robot.
type MaintenanceEvent struct {
	ID        int64               `gorm:"primaryKey" json:"id,string"`
	RobotID   int64               `gorm:"not null;index" json:"robotId,string"`
	Type      MaintenanceType     `gorm:"size:20;not null;index" json:"type"`
	Timestamp time.Time           `gorm:"not null;index" json:"timestamp"`
	Notes     string              `gorm:"type:text" json:"notes"`
	Cost      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"cost"`

	// Associations
	Robot *Robot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
