package services

import (
	"context"
	"fmt"
	"time"

	"reloop/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clockwork.Clock
}

func NewBadgeService(db *gorm.DB, logger *zap.Logger) *BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{DB: db, Log: logger, Clock: clockwork.NewRealClock()}
}

// BadgeStatus is a catalog badge together with the user's unlock state.
type BadgeStatus struct {
	models.BadgeDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Snapshot builds the stats view badge rules are evaluated against.
func Snapshot(p *models.UserProfile) models.StatsSnapshot {
	return models.StatsSnapshot{
		ItemsTraded:  p.ItemsTraded,
		ItemsSold:    p.ItemsSold,
		CO2Saved:     p.CO2Saved,
		MessagesSent: p.MessagesSent,
		ItemsScanned: p.ItemsScanned,
		Level:        CalculateLevel(p.XP),
	}
}

// BadgeEvaluation is the outcome of one evaluation pass.
type BadgeEvaluation struct {
	NewBadges []models.BadgeDefinition `json:"new_badges"`
	XPAwarded int64                    `json:"xp_awarded"`
	OldXP     int64                    `json:"old_xp"`
	NewXP     int64                    `json:"new_xp"`
	LevelUp   LevelUp                  `json:"level_up"`
}

// EvaluateBadges unlocks every locked badge whose rule the user's current stats satisfy
// and pays their xp. Callers run it after stat-changing operations.
//
// Stats are read once per pass: xp granted by one badge is not visible to the level
// badges evaluated after it. Level badges pay no xp, so the next pass catches up.
// The level-up covers all badge xp of the pass. On error the badges awarded so far
// are still returned.
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID string) (*BadgeEvaluation, error) {
	db := s.DB.WithContext(ctx)

	prof, err := loadProfile(db, userID)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(prof)

	unlocked, err := s.unlockedIDs(db, userID)
	if err != nil {
		s.Log.Error("load unlocked badges failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	eval := &BadgeEvaluation{NewBadges: []models.BadgeDefinition{}, OldXP: prof.XP, NewXP: prof.XP}
	defer func() {
		eval.LevelUp = CheckLevelUp(eval.OldXP, eval.NewXP)
		recordLevelUp(eval.LevelUp)
	}()
	for _, badge := range models.Badges {
		if _, ok := unlocked[badge.ID]; ok || !badge.Rule.Matches(snap) {
			continue
		}

		awarded := false
		var oldXP, newXP int64
		err := db.Transaction(func(tx *gorm.DB) error {
			row := models.UserBadge{
				ID:         uuid.NewString(),
				UserID:     userID,
				BadgeID:    badge.ID,
				UnlockedAt: s.Clock.Now(),
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
				DoNothing: true,
			}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("insert badge %s: %w", badge.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return nil // unlocked concurrently
			}
			awarded = true
			if badge.XPReward > 0 {
				var err error
				oldXP, newXP, err = applyReward(tx, userID, badge.XPReward, 0)
				return err
			}
			return nil
		})
		if err != nil {
			s.Log.Error("award badge failed",
				zap.String("user_id", userID), zap.String("badge", badge.ID), zap.Error(err))
			return eval, err
		}
		if !awarded {
			continue
		}

		reloopBadgesUnlockedTotal.WithLabelValues(badge.ID).Inc()
		s.Log.Info("badge awarded",
			zap.String("user_id", userID), zap.String("badge", badge.ID), zap.Int64("xp", badge.XPReward))
		if badge.XPReward > 0 {
			if eval.XPAwarded == 0 {
				eval.OldXP = oldXP
			}
			eval.NewXP = newXP
		}
		eval.XPAwarded += badge.XPReward
		eval.NewBadges = append(eval.NewBadges, badge)
	}
	return eval, nil
}

// GetBadges lists the whole catalog with the user's unlock state.
func (s *BadgeService) GetBadges(ctx context.Context, userID string) ([]BadgeStatus, error) {
	var rows []models.UserBadge
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		s.Log.Error("load badges failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load badges: %w", err)
	}
	byID := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		byID[r.BadgeID] = r.UnlockedAt
	}

	out := make([]BadgeStatus, 0, len(models.Badges))
	for _, b := range models.Badges {
		st := BadgeStatus{BadgeDefinition: b}
		if at, ok := byID[b.ID]; ok {
			at := at
			st.Unlocked = true
			st.UnlockedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *BadgeService) unlockedIDs(db *gorm.DB, userID string) (map[string]struct{}, error) {
	var ids []string
	if err := db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
