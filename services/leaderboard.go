package services

import (
	"context"
	"fmt"
	"strings"

	"reloop/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// leaderboardColumns whitelists the numeric profile fields a leaderboard can sort by.
// Both the client's camelCase names and the column names are accepted.
var leaderboardColumns = map[string]string{
	"xp":            "xp",
	"coins":         "coins",
	"co2saved":      "co2_saved",
	"co2_saved":     "co2_saved",
	"itemstraded":   "items_traded",
	"items_traded":  "items_traded",
	"itemssold":     "items_sold",
	"items_sold":    "items_sold",
	"itemsscanned":  "items_scanned",
	"items_scanned": "items_scanned",
}

// SortColumn resolves a requested sort field; empty means xp.
func SortColumn(sortBy string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(sortBy))
	if key == "" {
		return "xp", nil
	}
	col, ok := leaderboardColumns[key]
	if !ok {
		return "", ErrInvalidSortField
	}
	return col, nil
}

func profileValue(p *models.UserProfile, col string) float64 {
	switch col {
	case "coins":
		return float64(p.Coins)
	case "co2_saved":
		return p.CO2Saved
	case "items_traded":
		return float64(p.ItemsTraded)
	case "items_sold":
		return float64(p.ItemsSold)
	case "items_scanned":
		return float64(p.ItemsScanned)
	default:
		return float64(p.XP)
	}
}

type LeaderboardService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewLeaderboardService(db *gorm.DB, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{DB: db, Log: logger}
}

// LeaderboardEntry is the public view of a ranked profile. Contact details and
// bookkeeping timestamps stay off the board.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Campus       string  `json:"campus,omitempty"`
	XP           int64   `json:"xp"`
	Coins        int64   `json:"coins"`
	Level        int     `json:"level"`
	Title        string  `json:"title"`
	ItemsTraded  int64   `json:"items_traded"`
	ItemsSold    int64   `json:"items_sold"`
	CO2Saved     float64 `json:"co2_saved"`
	ItemsScanned int64   `json:"items_scanned"`
}

func newLeaderboardEntry(rank int, p models.UserProfile) LeaderboardEntry {
	level := CalculateLevel(p.XP)
	return LeaderboardEntry{
		Rank:         rank,
		ID:           p.ID,
		Name:         p.Name,
		Campus:       p.Campus,
		XP:           p.XP,
		Coins:        p.Coins,
		Level:        level,
		Title:        GetLevelTitle(level),
		ItemsTraded:  p.ItemsTraded,
		ItemsSold:    p.ItemsSold,
		CO2Saved:     p.CO2Saved,
		ItemsScanned: p.ItemsScanned,
	}
}

// GetLeaderboard returns the top profiles by sortBy, descending. Rank is the 1-based position.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, sortBy string, limit int) ([]LeaderboardEntry, error) {
	col, err := SortColumn(sortBy)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var profiles []models.UserProfile
	err = s.DB.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: true}).
		Order("id").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		s.Log.Error("load leaderboard failed", zap.String("sort", col), zap.Error(err))
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = newLeaderboardEntry(i+1, p)
	}
	return entries, nil
}

// UserRank is a user's competition rank on one field.
type UserRank struct {
	Rank  int64   `json:"rank"`
	Value float64 `json:"value"`
	Level int     `json:"level"`
}

// GetUserRank counts the profiles strictly ahead of the user, so ties share a rank.
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID, sortBy string) (*UserRank, error) {
	col, err := SortColumn(sortBy)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	prof, err := loadProfile(db, userID)
	if err != nil {
		return nil, err
	}
	value := profileValue(prof, col)

	var ahead int64
	err = db.Model(&models.UserProfile{}).
		Where(clause.Gt{Column: clause.Column{Name: col}, Value: value}).
		Count(&ahead).Error
	if err != nil {
		s.Log.Error("count user rank failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("count user rank: %w", err)
	}
	return &UserRank{Rank: ahead + 1, Value: value, Level: CalculateLevel(prof.XP)}, nil
}
