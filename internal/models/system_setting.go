package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemSetting is a key/value row for operator-tunable configuration, such
// as the admission-filter snapshot read at the top of each poll cycle.
type SystemSetting struct {
	Key       string         `gorm:"type:varchar(64);primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
