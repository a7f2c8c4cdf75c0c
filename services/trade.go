package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reloop/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TradeCompletionXP is paid to each party of a completed trade.
const TradeCompletionXP = 50

type TradeService struct {
	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clockwork.Clock
	Missions     *MissionService
	Badges       *BadgeService
	Verification *VerificationService
}

func NewTradeService(db *gorm.DB, missions *MissionService, badges *BadgeService, verification *VerificationService, logger *zap.Logger) *TradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeService{
		DB:           db,
		Log:          logger,
		Clock:        clockwork.NewRealClock(),
		Missions:     missions,
		Badges:       badges,
		Verification: verification,
	}
}

// TradeInput describes an offer the seller just accepted.
type TradeInput struct {
	ListingID    string  `json:"listing_id"`
	ListingTitle string  `json:"listing_title"`
	SellerID     string  `json:"seller_id"`
	BuyerID      string  `json:"buyer_id"`
	OfferedCoins int64   `json:"offered_coins"`
	CO2Saved     float64 `json:"co2_saved"`
}

// CreateTrade records an accepted offer. Party ids end up inside QR codes, so they
// must be usable as code fields.
func (s *TradeService) CreateTrade(ctx context.Context, in TradeInput) (*models.Trade, error) {
	seller := strings.TrimSpace(in.SellerID)
	buyer := strings.TrimSpace(in.BuyerID)
	if !validCodeField(seller) || !validCodeField(buyer) || seller == buyer {
		return nil, ErrInvalidTradeParty
	}
	if in.OfferedCoins < 0 || in.CO2Saved < 0 {
		return nil, ErrInvalidIncrement
	}

	trade := models.Trade{
		ID:           uuid.NewString(),
		ListingID:    strings.TrimSpace(in.ListingID),
		ListingTitle: strings.TrimSpace(in.ListingTitle),
		SellerID:     seller,
		BuyerID:      buyer,
		OfferedCoins: in.OfferedCoins,
		CO2Saved:     in.CO2Saved,
		Status:       models.TradeStatusAccepted,
	}
	if err := s.DB.WithContext(ctx).Create(&trade).Error; err != nil {
		s.Log.Error("create trade failed", zap.String("listing_id", trade.ListingID), zap.Error(err))
		return nil, fmt.Errorf("create trade: %w", err)
	}
	s.Log.Info("trade created",
		zap.String("trade_id", trade.ID), zap.String("seller_id", seller), zap.String("buyer_id", buyer))
	return &trade, nil
}

func (s *TradeService) GetTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var trade models.Trade
	err := s.DB.WithContext(ctx).Where("id = ?", tradeID).First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load trade: %w", err)
	}
	return &trade, nil
}

// TradeParty is what one side of a completed trade received.
type TradeParty struct {
	UserID    string                   `json:"user_id"`
	XPAwarded int64                    `json:"xp_awarded"` // completion xp plus badge xp
	CoinDelta int64                    `json:"coin_delta"`
	Badges    []models.BadgeDefinition `json:"badges"`
	LevelUp   LevelUp                  `json:"level_up"`
}

// CompletionResult is a completed trade and the payout to each party.
type CompletionResult struct {
	Trade  *models.Trade `json:"trade"`
	Seller TradeParty    `json:"seller"`
	Buyer  TradeParty    `json:"buyer"`
}

// CompleteTrade closes a verified trade in one transaction: the offered coins move from
// buyer to seller, both parties get TradeCompletionXP and their stats. Mission progress
// and badge evaluation follow the commit; their failures are logged only.
func (s *TradeService) CompleteTrade(ctx context.Context, tradeID, sellerID string) (*CompletionResult, error) {
	now := s.Clock.Now()
	var trade models.Trade
	var sellerOld, sellerNew, buyerOld, buyerNew int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", tradeID).First(&trade).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTradeNotFound
			}
			return err
		}
		if trade.SellerID != sellerID {
			return ErrNotTradeSeller
		}
		if trade.Status == models.TradeStatusCompleted || trade.Status == models.TradeStatusDeclined {
			return ErrTradeClosed
		}

		var rec models.TradeVerification
		err := tx.Where("trade_id = ? AND verified = ?", tradeID, true).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTradeNotVerified
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.Trade{}).
			Where("id = ? AND status NOT IN ?", tradeID,
				[]models.TradeStatus{models.TradeStatusCompleted, models.TradeStatusDeclined}).
			Updates(map[string]interface{}{"status": models.TradeStatusCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTradeClosed
		}

		if err := debitCoins(tx, trade.BuyerID, trade.OfferedCoins); err != nil {
			return err
		}
		if err := applyStats(tx, trade.SellerID, StatsDelta{ItemsTraded: 1, ItemsSold: 1, CO2Saved: trade.CO2Saved}); err != nil {
			return err
		}
		if err := applyStats(tx, trade.BuyerID, StatsDelta{ItemsTraded: 1, CO2Saved: trade.CO2Saved}); err != nil {
			return err
		}
		if sellerOld, sellerNew, err = applyReward(tx, trade.SellerID, TradeCompletionXP, trade.OfferedCoins); err != nil {
			return err
		}
		buyerOld, buyerNew, err = applyReward(tx, trade.BuyerID, TradeCompletionXP, 0)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.Log.Error("complete trade failed", zap.String("trade_id", tradeID), zap.Error(err))
		return nil, fmt.Errorf("complete trade: %w", err)
	}
	recordLevelUp(CheckLevelUp(sellerOld, sellerNew))
	recordLevelUp(CheckLevelUp(buyerOld, buyerNew))

	trade.Status = models.TradeStatusCompleted
	trade.CompletedAt = &now
	s.Log.Info("trade completed", zap.String("trade_id", tradeID),
		zap.String("seller_id", trade.SellerID), zap.String("buyer_id", trade.BuyerID),
		zap.Int64("coins", trade.OfferedCoins))

	return &CompletionResult{
		Trade:  &trade,
		Seller: s.afterCompletion(ctx, trade.SellerID, trade.OfferedCoins, sellerOld, sellerNew),
		Buyer:  s.afterCompletion(ctx, trade.BuyerID, -trade.OfferedCoins, buyerOld, buyerNew),
	}, nil
}

// debitCoins takes amount from the user only if the balance covers it.
func debitCoins(tx *gorm.DB, userID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.UserProfile{}).
		Where("id = ? AND coins >= ?", userID, amount).
		Update("coins", gorm.Expr("coins - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit coins: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := loadProfile(tx, userID); err != nil {
			return err
		}
		return ErrInsufficientCoins
	}
	return nil
}

// afterCompletion advances the complete_trade mission and evaluates badges. The
// reported level-up spans the completion xp and any badge xp.
func (s *TradeService) afterCompletion(ctx context.Context, userID string, coins, oldXP, newXP int64) TradeParty {
	party := TradeParty{
		UserID:    userID,
		XPAwarded: newXP - oldXP,
		CoinDelta: coins,
		Badges:    []models.BadgeDefinition{},
	}
	if s.Missions != nil {
		if _, err := s.Missions.UpdateMissionProgress(ctx, userID, models.MissionCompleteTrade, 1); err != nil {
			s.Log.Warn("complete_trade progress failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.Badges != nil {
		eval, err := s.Badges.EvaluateBadges(ctx, userID)
		if err != nil {
			s.Log.Warn("badge evaluation failed", zap.String("user_id", userID), zap.Error(err))
		}
		if eval != nil {
			party.Badges = eval.NewBadges
			if eval.XPAwarded > 0 {
				party.XPAwarded += eval.XPAwarded
				newXP = eval.NewXP
			}
		}
	}
	party.LevelUp = CheckLevelUp(oldXP, newXP)
	return party
}
