package services

import (
	"context"
	"fmt"

	"reloop/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardService struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clockwork.Clock
}

func NewRewardService(db *gorm.DB, logger *zap.Logger) *RewardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RewardService{DB: db, Log: logger, Clock: clockwork.NewRealClock()}
}

// RewardStatus is a catalog reward from one user's point of view.
type RewardStatus struct {
	models.RewardDefinition
	Redeemed   bool `json:"redeemed"`
	Affordable bool `json:"affordable"`
}

// ListRewards returns the catalog with the user's redemptions and current balance applied.
func (s *RewardService) ListRewards(ctx context.Context, userID string) ([]RewardStatus, error) {
	db := s.DB.WithContext(ctx)
	prof, err := loadProfile(db, userID)
	if err != nil {
		return nil, err
	}
	var redeemed []string
	if err := db.Model(&models.RewardRedemption{}).Where("user_id = ?", userID).Pluck("reward_id", &redeemed).Error; err != nil {
		s.Log.Error("load redemptions failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load redemptions: %w", err)
	}
	done := make(map[string]bool, len(redeemed))
	for _, id := range redeemed {
		done[id] = true
	}

	out := make([]RewardStatus, 0, len(models.Rewards))
	for _, r := range models.Rewards {
		out = append(out, RewardStatus{
			RewardDefinition: r,
			Redeemed:         done[r.ID],
			Affordable:       r.Available && prof.Coins >= r.Cost,
		})
	}
	return out, nil
}

// Redemption is a successful purchase.
type Redemption struct {
	Reward     models.RewardDefinition `json:"reward"`
	CoinsSpent int64                   `json:"coins_spent"`
	Coins      int64                   `json:"coins"` // balance after the purchase
}

// RedeemReward spends the reward's cost. The redemption row and the debit commit
// together; the debit only applies while the balance covers it.
func (s *RewardService) RedeemReward(ctx context.Context, userID, rewardID string) (*Redemption, error) {
	reward, ok := models.FindReward(rewardID)
	if !ok {
		return nil, ErrRewardNotFound
	}
	if !reward.Available {
		return nil, ErrRewardUnavailable
	}

	var balance int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.RewardRedemption{
			ID:         uuid.NewString(),
			UserID:     userID,
			RewardID:   reward.ID,
			Cost:       reward.Cost,
			RedeemedAt: s.Clock.Now(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "reward_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRewardRedeemed
		}

		if err := debitCoins(tx, userID, reward.Cost); err != nil {
			return err
		}
		prof, err := loadProfile(tx, userID)
		if err != nil {
			return err
		}
		balance = prof.Coins
		return nil
	})
	if err != nil {
		reloopRedemptionsTotal.WithLabelValues(reward.ID, "rejected").Inc()
		if isDomainError(err) {
			return nil, err
		}
		s.Log.Error("redeem reward failed",
			zap.String("user_id", userID), zap.String("reward", reward.ID), zap.Error(err))
		return nil, fmt.Errorf("redeem reward: %w", err)
	}

	reloopRedemptionsTotal.WithLabelValues(reward.ID, "redeemed").Inc()
	s.Log.Info("reward redeemed",
		zap.String("user_id", userID), zap.String("reward", reward.ID), zap.Int64("cost", reward.Cost))
	return &Redemption{Reward: reward, CoinsSpent: reward.Cost, Coins: balance}, nil
}

// Redemptions lists what the user has bought, newest first.
func (s *RewardService) Redemptions(ctx context.Context, userID string) ([]models.RewardRedemption, error) {
	var rows []models.RewardRedemption
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("redeemed_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load redemptions: %w", err)
	}
	return rows, nil
}
