package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"reloop/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalculateLevel returns the highest level whose threshold xp has reached, in [1, MaxLevel].
func CalculateLevel(xp int64) int {
	for i := len(models.LevelThresholds) - 1; i >= 0; i-- {
		if xp >= models.LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// LevelProgress is the progress-bar view of an xp total.
type LevelProgress struct {
	Level       int   `json:"level"`
	CurrentXP   int64 `json:"current_xp"`
	LevelXP     int64 `json:"level_xp"`    // xp earned since reaching Level
	RequiredXP  int64 `json:"required_xp"` // xp span of Level; 0 at max level
	Percentage  int   `json:"percentage"`  // 0..100
	NextLevelXP int64 `json:"next_level_xp"`
}

func GetLevelProgress(xp int64) LevelProgress {
	level := CalculateLevel(xp)
	current := models.LevelThresholds[level-1]
	next := models.LevelThresholds[len(models.LevelThresholds)-1]
	if level < models.MaxLevel {
		next = models.LevelThresholds[level]
	}

	p := LevelProgress{
		Level:       level,
		CurrentXP:   xp,
		LevelXP:     xp - current,
		RequiredXP:  next - current,
		NextLevelXP: next,
	}
	if p.RequiredXP <= 0 {
		p.Percentage = 100
		return p
	}
	pct := int(math.Round(float64(p.LevelXP) / float64(p.RequiredXP) * 100))
	p.Percentage = min(100, max(0, pct))
	return p
}

// GetLevelTitle returns the title of the highest titled tier at or below level.
func GetLevelTitle(level int) string {
	title := models.LevelTitles[1]
	best := 1
	for lvl, t := range models.LevelTitles {
		if lvl <= level && lvl >= best {
			best, title = lvl, t
		}
	}
	return title
}

// LevelUp is the result of comparing levels before and after an xp change.
type LevelUp struct {
	LeveledUp bool   `json:"leveled_up"`
	OldLevel  int    `json:"old_level,omitempty"`
	NewLevel  int    `json:"new_level,omitempty"`
	NewXP     int64  `json:"new_xp,omitempty"`
	Title     string `json:"title,omitempty"`
}

// CheckLevelUp must be called by whoever increased xp; nothing fires it automatically.
func CheckLevelUp(oldXP, newXP int64) LevelUp {
	oldLevel := CalculateLevel(oldXP)
	newLevel := CalculateLevel(newXP)
	if newLevel <= oldLevel {
		return LevelUp{}
	}
	return LevelUp{
		LeveledUp: true,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		NewXP:     newXP,
		Title:     GetLevelTitle(newLevel),
	}
}

// StatsDelta is an increment to a profile's lifetime stats.
type StatsDelta struct {
	ItemsTraded  int64
	ItemsSold    int64
	CO2Saved     float64
	MessagesSent int64
	ItemsScanned int64
}

func (d StatsDelta) updates() map[string]interface{} {
	u := map[string]interface{}{}
	if d.ItemsTraded != 0 {
		u["items_traded"] = gorm.Expr("items_traded + ?", d.ItemsTraded)
	}
	if d.ItemsSold != 0 {
		u["items_sold"] = gorm.Expr("items_sold + ?", d.ItemsSold)
	}
	if d.CO2Saved != 0 {
		u["co2_saved"] = gorm.Expr("co2_saved + ?", d.CO2Saved)
	}
	if d.MessagesSent != 0 {
		u["messages_sent"] = gorm.Expr("messages_sent + ?", d.MessagesSent)
	}
	if d.ItemsScanned != 0 {
		u["items_scanned"] = gorm.Expr("items_scanned + ?", d.ItemsScanned)
	}
	return u
}

type ProgressionService struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clockwork.Clock
}

func NewProgressionService(db *gorm.DB, logger *zap.Logger) *ProgressionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{DB: db, Log: logger, Clock: clockwork.NewRealClock()}
}

// ProfileInput carries the identity fields of a new profile.
type ProfileInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Campus string `json:"campus"`
}

// EnsureProfile creates the profile with sign-up seed values if it doesn't exist yet (idempotent).
func (s *ProgressionService) EnsureProfile(ctx context.Context, userID string, in ProfileInput) (*models.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrProfileNotFound
	}
	prof := models.UserProfile{
		ID:     userID,
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.TrimSpace(in.Email),
		Campus: strings.TrimSpace(in.Campus),
		XP:     0,
		Level:  models.StartingLevel,
		Coins:  models.StartingCoins,
	}
	if prof.Name == "" {
		prof.Name = "Eco Hero"
	}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&prof).Error
	if err != nil {
		s.Log.Error("create profile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *ProgressionService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return loadProfile(s.DB.WithContext(ctx), userID)
}

// AwardResult is returned by every operation that grants xp.
type AwardResult struct {
	XPAwarded    int64   `json:"xp_awarded"`
	CoinsAwarded int64   `json:"coins_awarded"`
	OldXP        int64   `json:"old_xp"`
	NewXP        int64   `json:"new_xp"`
	LevelUp      LevelUp `json:"level_up"`
}

// AwardXP atomically grants xp, recomputes the level and reports a level-up.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, xp int64, reason string) (*AwardResult, error) {
	if xp <= 0 {
		return nil, ErrInvalidIncrement
	}
	var oldXP, newXP int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		oldXP, newXP, err = applyReward(tx, userID, xp, 0)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.Log.Error("award xp failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	levelUp := CheckLevelUp(oldXP, newXP)
	recordLevelUp(levelUp)
	s.Log.Info("xp awarded",
		zap.String("user_id", userID),
		zap.Int64("xp", xp),
		zap.Int64("total_xp", newXP),
		zap.Int("level", CalculateLevel(newXP)),
		zap.String("reason", reason),
	)
	return &AwardResult{XPAwarded: xp, OldXP: oldXP, NewXP: newXP, LevelUp: levelUp}, nil
}

// IncrementStats adds delta to the user's lifetime stats.
func (s *ProgressionService) IncrementStats(ctx context.Context, userID string, delta StatsDelta) error {
	return applyStats(s.DB.WithContext(ctx), userID, delta)
}

func loadProfile(db *gorm.DB, userID string) (*models.UserProfile, error) {
	var prof models.UserProfile
	if err := db.Where("id = ?", userID).First(&prof).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}
	return &prof, nil
}

// applyReward increments xp and coins, rewrites the derived level and returns xp before and after.
// Callers run it inside a transaction so the level can't desync from xp.
func applyReward(tx *gorm.DB, userID string, xp, coins int64) (oldXP, newXP int64, err error) {
	updates := map[string]interface{}{}
	if xp != 0 {
		updates["xp"] = gorm.Expr("xp + ?", xp)
	}
	if coins != 0 {
		updates["coins"] = gorm.Expr("coins + ?", coins)
	}
	if len(updates) > 0 {
		res := tx.Model(&models.UserProfile{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return 0, 0, fmt.Errorf("increment rewards: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, 0, ErrProfileNotFound
		}
	}

	prof, err := loadProfile(tx, userID)
	if err != nil {
		return 0, 0, err
	}
	newXP = prof.XP
	oldXP = newXP - xp
	if level := CalculateLevel(newXP); level != prof.Level {
		if err := tx.Model(&models.UserProfile{}).Where("id = ?", userID).Update("level", level).Error; err != nil {
			return 0, 0, fmt.Errorf("update level: %w", err)
		}
	}
	return oldXP, newXP, nil
}

func applyStats(db *gorm.DB, userID string, delta StatsDelta) error {
	updates := delta.updates()
	if len(updates) == 0 {
		return nil
	}
	res := db.Model(&models.UserProfile{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("increment stats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
