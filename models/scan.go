package models

import (
	"database/sql/driver"
	"time"
)

// ScanSource tells whether a scan result came from the classifier or the local fallback.
type ScanSource string

const (
	ScanSourceAI       ScanSource = "ai"
	ScanSourceFallback ScanSource = "fallback"
)

func (s ScanSource) Value() (driver.Value, error) { return string(s), nil }

// ScanRecord is one entry of a user's scan history.
type ScanRecord struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:128;index;not null" json:"user_id"`
	ObjectName     string     `json:"object_name"`
	Category       string     `gorm:"size:64" json:"category"`
	Material       string     `json:"material,omitempty"`
	Condition      string     `gorm:"size:32" json:"condition"`
	EstimatedCoins int64      `json:"estimated_coins"`
	CO2Savings     float64    `gorm:"column:co2_savings" json:"co2_savings"`
	Recyclable     bool       `json:"recyclable"`
	Source         ScanSource `gorm:"type:varchar(16);not null" json:"source"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
