package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile holds a user's progression and lifetime stats (denormalized for leaderboards).
type UserProfile struct {
	ID     string `gorm:"primaryKey;size:128" json:"id"` // external user id from the auth provider
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Campus string `gorm:"index" json:"campus,omitempty"`

	// Core progression
	XP    int64 `json:"xp" gorm:"not null;default:0;index"`
	Level int   `json:"level" gorm:"not null;default:1"` // always CalculateLevel(XP), rewritten with every xp change
	Coins int64 `json:"coins" gorm:"not null;default:0"`

	// Lifetime stats
	ItemsTraded  int64   `json:"items_traded" gorm:"not null;default:0"`
	ItemsSold    int64   `json:"items_sold" gorm:"not null;default:0"`
	CO2Saved     float64 `json:"co2_saved" gorm:"column:co2_saved;not null;default:0"`
	MessagesSent int64   `json:"messages_sent" gorm:"not null;default:0"`
	ItemsScanned int64   `json:"items_scanned" gorm:"not null;default:0"`

	Timestamps
}

// Seed values for a fresh account.
const (
	StartingCoins = 100
	StartingLevel = 1
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// StatsSnapshot is the view of a profile that badge rules are evaluated against.
type StatsSnapshot struct {
	ItemsTraded  int64   `json:"items_traded"`
	ItemsSold    int64   `json:"items_sold"`
	CO2Saved     float64 `json:"co2_saved"`
	MessagesSent int64   `json:"messages_sent"`
	ItemsScanned int64   `json:"items_scanned"`
	Level        int     `json:"level"`
}
