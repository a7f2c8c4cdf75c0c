package models

import (
	"time"
)

// MissionDifficulty is a display tag on the mission catalog.
type MissionDifficulty string

const (
	DifficultyEasy   MissionDifficulty = "Easy"
	DifficultyMedium MissionDifficulty = "Medium"
	DifficultyHard   MissionDifficulty = "Hard"
)

// Mission ids reported by other components.
const (
	MissionDailyLogin    = "daily_login"
	MissionScanItems     = "scan_items"
	MissionSendMessage   = "send_message"
	MissionListItem      = "list_item"
	MissionCompleteTrade = "complete_trade"
	MissionShareStory    = "share_story"
)

// MissionDefinition: static daily mission catalog entry
type MissionDefinition struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Icon        string            `json:"icon"`
	Description string            `json:"description"`
	Target      int64             `json:"target"`
	XPReward    int64             `json:"xp_reward"`
	CoinReward  int64             `json:"coin_reward"`
	Difficulty  MissionDifficulty `json:"difficulty"`

	// SelfReported missions may be advanced by the client; the rest only by the
	// scanner and trade flows.
	SelfReported bool `json:"self_reported"`
}

// DailyMission is one user's progress on one mission for one UTC calendar day.
// Yesterday's rows are simply never read again, so missions reset without a job.
type DailyMission struct {
	UserID    string     `gorm:"primaryKey;size:128" json:"user_id"`
	Date      string     `gorm:"primaryKey;size:10;index" json:"date"` // YYYY-MM-DD
	MissionID string     `gorm:"primaryKey;size:64" json:"mission_id"`
	Progress  int64      `gorm:"not null;default:0" json:"progress"`
	Claimed   bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DailyMissions is the fixed mission catalog, in display order.
var DailyMissions = []MissionDefinition{
	{
		ID:           MissionDailyLogin,
		Title:        "Daily Check-in",
		Icon:         "login",
		Description:  "Log in today",
		Target:       1,
		XPReward:     20,
		CoinReward:   10,
		Difficulty:   DifficultyEasy,
		SelfReported: true,
	},
	{
		ID:          MissionScanItems,
		Title:       "Snap 3 items today",
		Icon:        "photo_camera",
		Description: "Scan items to identify them",
		Target:      3,
		XPReward:    50,
		CoinReward:  25,
		Difficulty:  DifficultyEasy,
	},
	{
		ID:           MissionSendMessage,
		Title:        "Message a trader",
		Icon:         "chat",
		Description:  "Chat with another user",
		Target:       1,
		XPReward:     30,
		CoinReward:   15,
		Difficulty:   DifficultyEasy,
		SelfReported: true,
	},
	{
		ID:           MissionListItem,
		Title:        "List a recyclable item",
		Icon:         "recycling",
		Description:  "Create a new listing",
		Target:       1,
		XPReward:     75,
		CoinReward:   35,
		Difficulty:   DifficultyMedium,
		SelfReported: true,
	},
	{
		ID:          MissionCompleteTrade,
		Title:       "Complete a trade",
		Icon:        "sync_alt",
		Description: "Finish a trade with another user",
		Target:      1,
		XPReward:    150,
		CoinReward:  75,
		Difficulty:  DifficultyMedium,
	},
	{
		ID:           MissionShareStory,
		Title:        "Share your impact story",
		Icon:         "campaign",
		Description:  "Share your eco story",
		Target:       1,
		XPReward:     100,
		CoinReward:   50,
		Difficulty:   DifficultyHard,
		SelfReported: true,
	},
}

// FindMission looks up a catalog entry by id.
func FindMission(id string) (MissionDefinition, bool) {
	for _, m := range DailyMissions {
		if m.ID == id {
			return m, true
		}
	}
	return MissionDefinition{}, false
}
