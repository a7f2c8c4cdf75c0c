package models

import (
	"time"
)

// BadgeStat names a lifetime stat a badge rule can look at.
type BadgeStat string

const (
	StatItemsTraded  BadgeStat = "items_traded"
	StatItemsSold    BadgeStat = "items_sold"
	StatCO2Saved     BadgeStat = "co2_saved"
	StatMessagesSent BadgeStat = "messages_sent"
	StatItemsScanned BadgeStat = "items_scanned"
	StatLevel        BadgeStat = "level"
)

// BadgeRule: serializable unlock predicate, e.g. {"stat":"items_sold","operator":">=","threshold":10}
type BadgeRule struct {
	Stat      BadgeStat `json:"stat"`
	Operator  string    `json:"operator"` // ">=", ">", "==", "<=", "<"
	Threshold float64   `json:"threshold"`
}

// BadgeDefinition: static catalog entry
type BadgeDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Rule        BadgeRule `json:"rule"`
	XPReward    int64     `json:"xp_reward"`
}

// UserBadge: awarded instance. A row existing means the badge is unlocked.
type UserBadge struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:128;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID    string    `gorm:"size:64;not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}

// Badges is the unlock catalog, in evaluation order.
// Level badges carry no XP so that unlocking one can never trigger another level-up.
var Badges = []BadgeDefinition{
	{
		ID:          "first_trade",
		Name:        "First Trade",
		Icon:        "🎉",
		Description: "Complete your first trade",
		Rule:        BadgeRule{Stat: StatItemsTraded, Operator: ">=", Threshold: 1},
		XPReward:    50,
	},
	{
		ID:          "eco_warrior",
		Name:        "Eco Warrior",
		Icon:        "🌱",
		Description: "Save 10kg of CO2",
		Rule:        BadgeRule{Stat: StatCO2Saved, Operator: ">=", Threshold: 10},
		XPReward:    100,
	},
	{
		ID:          "power_seller",
		Name:        "Power Seller",
		Icon:        "💰",
		Description: "Sell 10 items",
		Rule:        BadgeRule{Stat: StatItemsSold, Operator: ">=", Threshold: 10},
		XPReward:    150,
	},
	{
		ID:          "social_butterfly",
		Name:        "Social Butterfly",
		Icon:        "🦋",
		Description: "Send 50 messages",
		Rule:        BadgeRule{Stat: StatMessagesSent, Operator: ">=", Threshold: 50},
		XPReward:    75,
	},
	{
		ID:          "scanner_pro",
		Name:        "Scanner Pro",
		Icon:        "📸",
		Description: "Scan 25 items",
		Rule:        BadgeRule{Stat: StatItemsScanned, Operator: ">=", Threshold: 25},
		XPReward:    100,
	},
	{
		ID:          "level_5",
		Name:        "Rising Star",
		Icon:        "⭐",
		Description: "Reach Level 5",
		Rule:        BadgeRule{Stat: StatLevel, Operator: ">=", Threshold: 5},
		XPReward:    0,
	},
	{
		ID:          "level_10",
		Name:        "Eco Champion",
		Icon:        "🏆",
		Description: "Reach Level 10",
		Rule:        BadgeRule{Stat: StatLevel, Operator: ">=", Threshold: 10},
		XPReward:    0,
	},
	{
		ID:          "five_trades",
		Name:        "Trade Master",
		Icon:        "🤝",
		Description: "Complete 5 trades",
		Rule:        BadgeRule{Stat: StatItemsTraded, Operator: ">=", Threshold: 5},
		XPReward:    100,
	},
}

// Matches reports whether the snapshot satisfies the rule. Unknown stats or operators never match.
func (r BadgeRule) Matches(s StatsSnapshot) bool {
	var v float64
	switch r.Stat {
	case StatItemsTraded:
		v = float64(s.ItemsTraded)
	case StatItemsSold:
		v = float64(s.ItemsSold)
	case StatCO2Saved:
		v = s.CO2Saved
	case StatMessagesSent:
		v = float64(s.MessagesSent)
	case StatItemsScanned:
		v = float64(s.ItemsScanned)
	case StatLevel:
		v = float64(s.Level)
	default:
		return false
	}
	switch r.Operator {
	case ">=":
		return v >= r.Threshold
	case ">":
		return v > r.Threshold
	case "==":
		return v == r.Threshold
	case "<=":
		return v <= r.Threshold
	case "<":
		return v < r.Threshold
	}
	return false
}

// FindBadge looks up a catalog entry by id.
func FindBadge(id string) (BadgeDefinition, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}
