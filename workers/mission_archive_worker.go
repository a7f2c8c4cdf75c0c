// workers/mission_archive_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reloop/models"
	"reloop/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ObjectStore is where archived mission rows are written.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// MissionArchive is the JSON document written for one archive run.
type MissionArchive struct {
	Before     string                `json:"before"`
	ArchivedAt time.Time             `json:"archived_at"`
	Missions   []models.DailyMission `json:"missions"`
}

// MissionArchiveWorker moves daily mission rows older than the retention window to the
// object store and deletes them. Without a store the rows are only pruned.
type MissionArchiveWorker struct {
	db        *gorm.DB
	store     ObjectStore
	retention int // days
	clock     clockwork.Clock
	log       *zap.Logger
	atHour    uint
}

func NewMissionArchiveWorker(db *gorm.DB, store ObjectStore, retentionDays int, logger *zap.Logger) *MissionArchiveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissionArchiveWorker{
		db:        db,
		store:     store,
		retention: retentionDays,
		clock:     clockwork.NewRealClock(),
		log:       logger,
		atHour:    3,
	}
}

// WithClock swaps the clock used for cutoffs and scheduling.
func (w *MissionArchiveWorker) WithClock(c clockwork.Clock) *MissionArchiveWorker {
	w.clock = c
	return w
}

// Start schedules a daily run at 03:00 UTC until ctx is cancelled.
func (w *MissionArchiveWorker) Start(ctx context.Context) error {
	if w.retention <= 0 {
		w.log.Info("mission archive worker disabled")
		return nil
	}
	sched, err := gocron.NewScheduler(gocron.WithClock(w.clock), gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(w.atHour, 0, 0))),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("mission archive run failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule mission archive: %w", err)
	}
	sched.Start()
	w.log.Info("mission archive worker started", zap.Int("retention_days", w.retention))

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			w.log.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}()
	return nil
}

// Cutoff is the first mission date that is kept.
func (w *MissionArchiveWorker) Cutoff() string {
	return w.clock.Now().UTC().AddDate(0, 0, -w.retention).Format(services.MissionDateLayout)
}

// RunOnce archives and deletes every mission row dated before Cutoff and returns how many.
func (w *MissionArchiveWorker) RunOnce(ctx context.Context) (int, error) {
	if w.retention <= 0 {
		return 0, nil
	}
	cutoff := w.Cutoff()
	db := w.db.WithContext(ctx)

	var rows []models.DailyMission
	if err := db.Where("date < ?", cutoff).Order("date, user_id, mission_id").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load expired missions: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if w.store != nil {
		now := w.clock.Now().UTC()
		body, err := json.Marshal(MissionArchive{Before: cutoff, ArchivedAt: now, Missions: rows})
		if err != nil {
			return 0, fmt.Errorf("encode mission archive: %w", err)
		}
		key := fmt.Sprintf("archives/daily-missions/%s/%d.json", cutoff, now.Unix())
		url, err := w.store.PutObject(ctx, key, body, "application/json")
		if err != nil {
			return 0, err
		}
		w.log.Info("mission archive uploaded", zap.String("url", url), zap.Int("rows", len(rows)))
	}

	res := db.Where("date < ?", cutoff).Delete(&models.DailyMission{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired missions: %w", res.Error)
	}
	w.log.Info("expired missions pruned", zap.String("before", cutoff), zap.Int64("rows", res.RowsAffected))
	return len(rows), nil
}
