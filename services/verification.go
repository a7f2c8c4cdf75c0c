package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"reloop/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CodePrefix   = "RELOOP"
	CodeLifetime = 30 * time.Minute
)

// SimpleHash is the checksum printed into trade QR codes: h = h*31 + c over UTF-16
// code units with signed 32-bit wraparound, rendered as the lowercase hex of |h|
// truncated to 8 characters. The output is not zero-padded.
func SimpleHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	out := strconv.FormatInt(v, 16)
	if len(out) > 8 {
		out = out[:8]
	}
	return out
}

// NewVerificationCode builds the code a buyer shows the seller for tradeID at ts (ms since epoch).
func NewVerificationCode(tradeID, buyerID string, ts int64) (models.TradeVerification, error) {
	if !validCodeField(tradeID) || !validCodeField(buyerID) {
		return models.TradeVerification{}, ErrInvalidTradeParty
	}
	hash := SimpleHash(fmt.Sprintf("%s:%s:%d", tradeID, buyerID, ts))
	issued := time.UnixMilli(ts)
	return models.TradeVerification{
		TradeID:   tradeID,
		BuyerID:   buyerID,
		Timestamp: ts,
		Hash:      hash,
		Code:      fmt.Sprintf("%s:%s:%s:%d:%s", CodePrefix, tradeID, buyerID, ts, hash),
		CreatedAt: issued,
		ExpiresAt: issued.Add(CodeLifetime),
	}, nil
}

func validCodeField(s string) bool {
	return s != "" && !strings.Contains(s, ":")
}

// ParsedCode is a well-formed verification code split into its fields.
type ParsedCode struct {
	TradeID   string
	BuyerID   string
	Timestamp int64
	Hash      string
}

// ParseVerificationCode checks the code's shape and checksum. It does not check expiry.
func ParseVerificationCode(code string) (*ParsedCode, error) {
	parts := strings.Split(strings.TrimSpace(code), ":")
	if len(parts) != 5 || parts[0] != CodePrefix {
		return nil, ErrInvalidCodeFormat
	}
	ts, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, ErrInvalidCodeFormat
	}
	p := &ParsedCode{TradeID: parts[1], BuyerID: parts[2], Timestamp: ts, Hash: parts[4]}
	if SimpleHash(parts[1]+":"+parts[2]+":"+parts[3]) != p.Hash {
		return nil, ErrHashMismatch
	}
	return p, nil
}

type VerificationService struct {
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clockwork.Clock
}

func NewVerificationService(db *gorm.DB, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{DB: db, Log: logger, Clock: clockwork.NewRealClock()}
}

// GenerateVerificationCode issues a fresh code for the trade and stores it, replacing any
// earlier code for the same trade. A trade the seller already verified stays verified.
func (s *VerificationService) GenerateVerificationCode(ctx context.Context, tradeID, buyerID string) (*models.TradeVerification, error) {
	v, err := NewVerificationCode(tradeID, buyerID, s.Clock.Now().UnixMilli())
	if err != nil {
		return nil, err
	}
	// the verified columns are left alone
	reissue := clause.AssignmentColumns([]string{"buyer_id", "timestamp", "hash", "code", "created_at", "expires_at"})
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "trade_id"}}, DoUpdates: reissue}).
		Create(&v).Error
	if err != nil {
		s.Log.Error("store verification failed", zap.String("trade_id", tradeID), zap.Error(err))
		return nil, fmt.Errorf("store verification: %w", err)
	}
	s.Log.Info("verification code issued", zap.String("trade_id", tradeID), zap.String("buyer_id", buyerID))
	return &v, nil
}

// RegenerateCode is GenerateVerificationCode for a buyer whose previous code expired.
func (s *VerificationService) RegenerateCode(ctx context.Context, tradeID, buyerID string) (*models.TradeVerification, error) {
	return s.GenerateVerificationCode(ctx, tradeID, buyerID)
}

// VerificationResult is a successful seller-side check.
type VerificationResult struct {
	Valid   bool          `json:"valid"`
	TradeID string        `json:"trade_id"`
	Trade   *models.Trade `json:"trade"`
	Message string        `json:"message"`
}

// VerifyCode checks a scanned code for sellerID in order: format, checksum, age, trade
// existence, seller, buyer, and that it is the trade's latest issued code. A passing code
// marks the trade's verification record verified. A code with no stored record is
// accepted on its own fields. Code validity does not depend on whether the trade is
// still open.
func (s *VerificationService) VerifyCode(ctx context.Context, code, sellerID string) (*VerificationResult, error) {
	parsed, err := ParseVerificationCode(code)
	if err != nil {
		return nil, s.reject(err, "", sellerID)
	}

	now := s.Clock.Now()
	if now.UnixMilli()-parsed.Timestamp > CodeLifetime.Milliseconds() {
		return nil, s.reject(ErrCodeExpired, parsed.TradeID, sellerID)
	}

	db := s.DB.WithContext(ctx)
	var trade models.Trade
	if err := db.Where("id = ?", parsed.TradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.reject(ErrTradeNotFound, parsed.TradeID, sellerID)
		}
		s.Log.Error("load trade failed", zap.String("trade_id", parsed.TradeID), zap.Error(err))
		return nil, fmt.Errorf("load trade: %w", err)
	}
	if trade.SellerID != sellerID {
		return nil, s.reject(ErrNotTradeSeller, parsed.TradeID, sellerID)
	}
	if trade.BuyerID != parsed.BuyerID {
		return nil, s.reject(ErrBuyerMismatch, parsed.TradeID, sellerID)
	}

	var stored models.TradeVerification
	err = db.Where("trade_id = ?", parsed.TradeID).First(&stored).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		s.Log.Error("load verification failed", zap.String("trade_id", parsed.TradeID), zap.Error(err))
		return nil, fmt.Errorf("load verification: %w", err)
	case stored.Timestamp != parsed.Timestamp:
		return nil, s.reject(ErrCodeSuperseded, parsed.TradeID, sellerID)
	}

	issued := time.UnixMilli(parsed.Timestamp)
	rec := models.TradeVerification{
		TradeID:    parsed.TradeID,
		BuyerID:    parsed.BuyerID,
		Timestamp:  parsed.Timestamp,
		Hash:       parsed.Hash,
		Code:       strings.TrimSpace(code),
		CreatedAt:  issued,
		ExpiresAt:  issued.Add(CodeLifetime),
		Verified:   true,
		VerifiedAt: &now,
		VerifiedBy: sellerID,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"verified", "verified_at", "verified_by"}),
	}).Create(&rec).Error
	if err != nil {
		s.Log.Error("mark verified failed", zap.String("trade_id", parsed.TradeID), zap.Error(err))
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	recordVerification("verified")
	s.Log.Info("trade verified", zap.String("trade_id", parsed.TradeID), zap.String("seller_id", sellerID))
	return &VerificationResult{
		Valid:   true,
		TradeID: parsed.TradeID,
		Trade:   &trade,
		Message: "QR code verified successfully!",
	}, nil
}

// IsVerified reports whether the trade's code has been accepted by its seller.
func (s *VerificationService) IsVerified(ctx context.Context, tradeID string) (bool, error) {
	var rec models.TradeVerification
	err := s.DB.WithContext(ctx).Where("trade_id = ?", tradeID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load verification: %w", err)
	}
	return rec.Verified, nil
}

func (s *VerificationService) reject(err error, tradeID, sellerID string) error {
	recordVerification(verificationResultLabel(err))
	s.Log.Info("verification rejected",
		zap.String("trade_id", tradeID), zap.String("seller_id", sellerID), zap.String("reason", err.Error()))
	return err
}

func verificationResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCodeFormat):
		return "invalid_format"
	case errors.Is(err, ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrTradeNotFound):
		return "trade_not_found"
	case errors.Is(err, ErrNotTradeSeller):
		return "not_seller"
	case errors.Is(err, ErrBuyerMismatch):
		return "buyer_mismatch"
	case errors.Is(err, ErrCodeSuperseded):
		return "superseded"
	}
	return "error"
}
