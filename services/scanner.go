package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"reloop/models"
	"reloop/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultScanHistoryLimit = 20
	MaxScanHistoryLimit     = 100

	co2PerCoin = 0.05
)

// ScanResult is what the scanner page renders for an analyzed image.
type ScanResult struct {
	ScanID         string               `json:"scan_id,omitempty"`
	ObjectName     string               `json:"objectName"`
	Category       string               `json:"category"`
	Material       string               `json:"material"`
	Condition      string               `json:"condition"`
	EstimatedCoins int64                `json:"estimatedCoins"`
	CO2Savings     float64              `json:"co2Savings"`
	Recyclable     bool                 `json:"recyclable"`
	UpcycleIdeas   []models.UpcycleIdea `json:"upcycleIdeas"`
	RecycleInfo    models.RecycleInfo   `json:"recycleInfo"`
	Source         models.ScanSource    `json:"source"`
}

// MockScanResult is returned whenever classification fails, so a scan always yields a result.
func MockScanResult() ScanResult {
	return ScanResult{
		ObjectName:     "Ceramic Vase (Mock)",
		Category:       "Home Decor",
		Material:       "Ceramic",
		Condition:      "Good",
		EstimatedCoins: 45,
		CO2Savings:     2.5,
		Recyclable:     true,
		UpcycleIdeas: []models.UpcycleIdea{
			{Title: "Painted Vase", Description: "Refresh with new colors", Difficulty: models.DifficultyEasy},
			{Title: "Lamp Base", Description: "Convert into a lamp", Difficulty: models.DifficultyMedium},
		},
		RecycleInfo: models.RecycleInfo{Recyclable: "Yes", Method: "Local center", Tips: []string{"Clean thoroughly"}},
		Source:      models.ScanSourceFallback,
	}
}

// NormalizeItem maps a classifier item onto the known categories and fills the gaps.
func NormalizeItem(item *ClassifiedItem) ScanResult {
	cat := models.FindCategory(utils.CategoryKey(item.Category))

	coins := int64(math.Round(item.EstimatedCoins))
	if coins <= 0 {
		coins = cat.MidpointCoins()
	}
	res := ScanResult{
		ObjectName:     strings.TrimSpace(item.ObjectName),
		Category:       utils.DisplayName(cat.Key),
		Material:       item.Material,
		Condition:      item.Condition,
		EstimatedCoins: coins,
		CO2Savings:     math.Round(float64(coins)*co2PerCoin*10) / 10,
		Recyclable:     item.Recyclable == nil || *item.Recyclable,
		UpcycleIdeas:   item.UpcycleIdeas,
		RecycleInfo:    cat.Recycle,
		Source:         models.ScanSourceAI,
	}
	if res.Material == "" {
		res.Material = cat.Material
	}
	if res.Condition == "" {
		res.Condition = "Good"
	}
	if len(res.UpcycleIdeas) == 0 {
		res.UpcycleIdeas = cat.UpcycleIdeas
	}
	return res
}

type ScannerService struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Classifier  Classifier
	Progression *ProgressionService
	Missions    *MissionService
	Badges      *BadgeService
}

func NewScannerService(db *gorm.DB, classifier Classifier, progression *ProgressionService, missions *MissionService, badges *BadgeService, logger *zap.Logger) *ScannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScannerService{
		DB:          db,
		Log:         logger,
		Classifier:  classifier,
		Progression: progression,
		Missions:    missions,
		Badges:      badges,
	}
}

// Analyze classifies an image (data URL or bare base64). Only an empty image is rejected;
// classification failures, including undecodable input, fall back to MockScanResult. For a known user the scan is recorded and
// counted toward items_scanned and the scan_items mission.
func (s *ScannerService) Analyze(ctx context.Context, userID, image string) (*ScanResult, error) {
	if strings.TrimSpace(image) == "" {
		return nil, ErrInvalidImage
	}
	prepared, _, err := utils.ShrinkImage(image, utils.MaxImageWidth)
	if err != nil {
		// not base64: the classifier gets the input as sent and decides
		s.Log.Debug("image not decodable, forwarding as sent", zap.String("user_id", userID), zap.Error(err))
		prepared = image
	}

	var res ScanResult
	item, err := s.classify(ctx, prepared)
	if err != nil {
		s.Log.Warn("classification failed, using fallback", zap.String("user_id", userID), zap.Error(err))
		res = MockScanResult()
	} else {
		res = NormalizeItem(item)
	}
	reloopScansTotal.WithLabelValues(string(res.Source)).Inc()

	if userID != "" {
		res.ScanID = s.record(ctx, userID, res)
	}
	return &res, nil
}

func (s *ScannerService) classify(ctx context.Context, image string) (*ClassifiedItem, error) {
	if s.Classifier == nil {
		return nil, ErrClassifierUnavailable
	}
	return s.Classifier.Classify(ctx, image)
}

// record stores the scan and updates stats. Failures are logged, the scan result still stands.
func (s *ScannerService) record(ctx context.Context, userID string, res ScanResult) string {
	rec := models.ScanRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		ObjectName:     res.ObjectName,
		Category:       res.Category,
		Material:       res.Material,
		Condition:      res.Condition,
		EstimatedCoins: res.EstimatedCoins,
		CO2Savings:     res.CO2Savings,
		Recyclable:     res.Recyclable,
		Source:         res.Source,
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		s.Log.Warn("store scan failed", zap.String("user_id", userID), zap.Error(err))
		rec.ID = ""
	}

	if s.Progression != nil {
		if err := s.Progression.IncrementStats(ctx, userID, StatsDelta{ItemsScanned: 1}); err != nil {
			s.Log.Warn("increment items_scanned failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.Missions != nil {
		if _, err := s.Missions.UpdateMissionProgress(ctx, userID, models.MissionScanItems, 1); err != nil {
			s.Log.Warn("scan_items progress failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.Badges != nil {
		if _, err := s.Badges.EvaluateBadges(ctx, userID); err != nil && !errors.Is(err, ErrProfileNotFound) {
			s.Log.Warn("badge evaluation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return rec.ID
}

// ScanHistory lists the user's most recent scans, newest first.
func (s *ScannerService) ScanHistory(ctx context.Context, userID string, limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultScanHistoryLimit
	}
	if limit > MaxScanHistoryLimit {
		limit = MaxScanHistoryLimit
	}
	var rows []models.ScanRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		s.Log.Error("load scan history failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load scan history: %w", err)
	}
	return rows, nil
}
