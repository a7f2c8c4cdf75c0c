package services

import (
	"context"
	"math"

	"reloop/models"

	"go.uber.org/zap"
)

// Rough yearly absorption figures used to make co2 totals tangible.
const (
	co2PerTreeKg = 21
	co2PerFishKg = 7
)

// WrappedStats is the year-in-review card.
type WrappedStats struct {
	Name         string                  `json:"name"`
	Level        int                     `json:"level"`
	Title        string                  `json:"title"`
	XP           int64                   `json:"xp"`
	Coins        int64                   `json:"coins"`
	CO2Saved     float64                 `json:"co2Saved"`
	TreesSaved   int64                   `json:"treesSaved"`
	FishSaved    int64                   `json:"fishSaved"`
	ItemsTraded  int64                   `json:"itemsTraded"`
	ItemsScanned int64                   `json:"itemsScanned"`
	BadgesEarned int                     `json:"badgesEarned"`
	TopBadge     *models.BadgeDefinition `json:"topBadge"`
	Rank         int64                   `json:"rank"`
}

type WrappedService struct {
	Progression *ProgressionService
	Badges      *BadgeService
	Leaderboard *LeaderboardService
	Log         *zap.Logger
}

func NewWrappedService(progression *ProgressionService, badges *BadgeService, leaderboard *LeaderboardService, logger *zap.Logger) *WrappedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WrappedService{Progression: progression, Badges: badges, Leaderboard: leaderboard, Log: logger}
}

func (s *WrappedService) GetWrappedStats(ctx context.Context, userID string) (*WrappedStats, error) {
	prof, err := s.Progression.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.Badges.GetBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	rank, err := s.Leaderboard.GetUserRank(ctx, userID, "xp")
	if err != nil {
		return nil, err
	}

	level := CalculateLevel(prof.XP)
	out := &WrappedStats{
		Name:         prof.Name,
		Level:        level,
		Title:        GetLevelTitle(level),
		XP:           prof.XP,
		Coins:        prof.Coins,
		CO2Saved:     prof.CO2Saved,
		TreesSaved:   int64(math.Floor(prof.CO2Saved / co2PerTreeKg)),
		FishSaved:    int64(math.Floor(prof.CO2Saved / co2PerFishKg)),
		ItemsTraded:  prof.ItemsTraded,
		ItemsScanned: prof.ItemsScanned,
		Rank:         rank.Rank,
	}
	if out.Name == "" {
		out.Name = "Eco Hero"
	}

	var top *BadgeStatus
	for i := range badges {
		b := &badges[i]
		if !b.Unlocked {
			continue
		}
		out.BadgesEarned++
		if top == nil || !b.UnlockedAt.Before(*top.UnlockedAt) {
			top = b
		}
	}
	if top != nil {
		def := top.BadgeDefinition
		out.TopBadge = &def
	}
	return out, nil
}
