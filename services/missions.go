package services

import (
	"context"
	"errors"
	"fmt"

	"reloop/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MissionDateLayout keys daily mission rows; the day boundary is UTC midnight.
const MissionDateLayout = "2006-01-02"

type MissionService struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clockwork.Clock
	Progression *ProgressionService
}

func NewMissionService(db *gorm.DB, progression *ProgressionService, logger *zap.Logger) *MissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissionService{DB: db, Log: logger, Clock: clockwork.NewRealClock(), Progression: progression}
}

// MissionStatus is a catalog mission with today's progress.
type MissionStatus struct {
	models.MissionDefinition
	Progress  int64 `json:"progress"`
	Claimed   bool  `json:"claimed"`
	Completed bool  `json:"completed"`
}

// MissionProgress is the outcome of a progress update.
type MissionProgress struct {
	MissionID string `json:"mission_id"`
	Progress  int64  `json:"progress"`
	Target    int64  `json:"target"`
	Completed bool   `json:"completed"`
}

// Today returns the mission date key for the current moment.
func (s *MissionService) Today() string {
	return s.Clock.Now().UTC().Format(MissionDateLayout)
}

// GetDailyMissions returns the whole catalog with the user's progress for today.
func (s *MissionService) GetDailyMissions(ctx context.Context, userID string) ([]MissionStatus, error) {
	var rows []models.DailyMission
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, s.Today()).
		Find(&rows).Error
	if err != nil {
		s.Log.Error("load daily missions failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load daily missions: %w", err)
	}
	byID := make(map[string]models.DailyMission, len(rows))
	for _, r := range rows {
		byID[r.MissionID] = r
	}

	out := make([]MissionStatus, 0, len(models.DailyMissions))
	for _, m := range models.DailyMissions {
		r := byID[m.ID]
		out = append(out, MissionStatus{
			MissionDefinition: m,
			Progress:          r.Progress,
			Claimed:           r.Claimed,
			Completed:         r.Progress >= m.Target,
		})
	}
	return out, nil
}

// UpdateMissionProgress adds increment to today's progress for missionID.
// Progress is not capped at the target.
func (s *MissionService) UpdateMissionProgress(ctx context.Context, userID, missionID string, increment int64) (*MissionProgress, error) {
	def, ok := models.FindMission(missionID)
	if !ok {
		return nil, ErrMissionNotFound
	}
	if increment <= 0 {
		return nil, ErrInvalidIncrement
	}
	if userID == "" {
		return nil, ErrProfileNotFound
	}

	key := models.DailyMission{UserID: userID, Date: s.Today(), MissionID: missionID}
	now := s.Clock.Now()
	var row models.DailyMission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&key).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = key
			row.Progress = increment
			row.UpdatedAt = now
			return tx.Create(&row).Error
		case err != nil:
			return err
		}

		err = tx.Model(&models.DailyMission{}).
			Where("user_id = ? AND date = ? AND mission_id = ?", key.UserID, key.Date, key.MissionID).
			Updates(map[string]interface{}{
				"progress":   gorm.Expr("progress + ?", increment),
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}
		return tx.Where(&key).First(&row).Error
	})
	if err != nil {
		s.Log.Error("update mission progress failed",
			zap.String("user_id", userID), zap.String("mission", missionID), zap.Error(err))
		return nil, fmt.Errorf("update mission progress: %w", err)
	}

	return &MissionProgress{
		MissionID: missionID,
		Progress:  row.Progress,
		Target:    def.Target,
		Completed: row.Progress >= def.Target,
	}, nil
}

// ClaimMissionReward pays out a completed mission exactly once per day.
// The claim flag, xp, coins and level change in one transaction; the flag flips with a
// conditional update so a second concurrent claim matches no row.
func (s *MissionService) ClaimMissionReward(ctx context.Context, userID, missionID string) (*AwardResult, error) {
	def, ok := models.FindMission(missionID)
	if !ok {
		return nil, ErrMissionNotFound
	}

	date := s.Today()
	now := s.Clock.Now()
	var oldXP, newXP int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProfile(tx, userID); err != nil {
			return err
		}

		var row models.DailyMission
		err := tx.Where("user_id = ? AND date = ? AND mission_id = ?", userID, date, missionID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMissionNotCompleted
		}
		if err != nil {
			return err
		}
		if row.Progress < def.Target {
			return ErrMissionNotCompleted
		}
		if row.Claimed {
			return ErrRewardClaimed
		}

		res := tx.Model(&models.DailyMission{}).
			Where("user_id = ? AND date = ? AND mission_id = ? AND claimed = ? AND progress >= ?",
				userID, date, missionID, false, def.Target).
			Updates(map[string]interface{}{"claimed": true, "claimed_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRewardClaimed
		}

		oldXP, newXP, err = applyReward(tx, userID, def.XPReward, def.CoinReward)
		return err
	})
	if err != nil {
		reloopMissionClaimsTotal.WithLabelValues(missionID, "rejected").Inc()
		if !isDomainError(err) {
			s.Log.Error("claim mission reward failed",
				zap.String("user_id", userID), zap.String("mission", missionID), zap.Error(err))
			return nil, fmt.Errorf("claim mission reward: %w", err)
		}
		return nil, err
	}

	levelUp := CheckLevelUp(oldXP, newXP)
	recordLevelUp(levelUp)
	reloopMissionClaimsTotal.WithLabelValues(missionID, "claimed").Inc()
	s.Log.Info("mission reward claimed",
		zap.String("user_id", userID),
		zap.String("mission", missionID),
		zap.Int64("xp", def.XPReward),
		zap.Int64("coins", def.CoinReward),
		zap.Bool("leveled_up", levelUp.LeveledUp),
	)
	return &AwardResult{
		XPAwarded:    def.XPReward,
		CoinsAwarded: def.CoinReward,
		OldXP:        oldXP,
		NewXP:        newXP,
		LevelUp:      levelUp,
	}, nil
}

// ReportMissionProgress is UpdateMissionProgress for progress a client reports itself.
// Missions driven by scans and trades are rejected.
func (s *MissionService) ReportMissionProgress(ctx context.Context, userID, missionID string, increment int64) (*MissionProgress, error) {
	def, ok := models.FindMission(missionID)
	if !ok {
		return nil, ErrMissionNotFound
	}
	if !def.SelfReported {
		s.Log.Warn("client reported auto-tracked mission",
			zap.String("user_id", userID), zap.String("mission", missionID))
		return nil, ErrMissionAutoTracked
	}
	return s.UpdateMissionProgress(ctx, userID, missionID, increment)
}

// TrackDailyLogin counts today's check-in.
func (s *MissionService) TrackDailyLogin(ctx context.Context, userID string) (*MissionProgress, error) {
	return s.UpdateMissionProgress(ctx, userID, models.MissionDailyLogin, 1)
}

// Activity kinds reported by the marketplace pages.
const (
	ActivityMessage = "message"
	ActivityListing = "listing"
	ActivityStory   = "story"
)

// RecordActivity updates the stat and mission tied to a marketplace action.
func (s *MissionService) RecordActivity(ctx context.Context, userID, kind string) (*MissionProgress, error) {
	var missionID string
	switch kind {
	case ActivityMessage:
		if err := s.Progression.IncrementStats(ctx, userID, StatsDelta{MessagesSent: 1}); err != nil {
			return nil, err
		}
		missionID = models.MissionSendMessage
	case ActivityListing:
		missionID = models.MissionListItem
	case ActivityStory:
		missionID = models.MissionShareStory
	default:
		return nil, ErrInvalidActivity
	}
	return s.UpdateMissionProgress(ctx, userID, missionID, 1)
}
