package services

import (
	"context"
	"testing"
	"time"

	"reloop/models"
	"reloop/utils"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.OpenDatabase(utils.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := utils.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// testEnv wires every service against one in-memory database and a shared fake clock.
type testEnv struct {
	db           *gorm.DB
	clock        *clockwork.FakeClock
	progression  *ProgressionService
	badges       *BadgeService
	missions     *MissionService
	leaderboard  *LeaderboardService
	verification *VerificationService
	trades       *TradeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(testNow)

	e := &testEnv{db: db, clock: clock}
	e.progression = NewProgressionService(db, nil)
	e.progression.Clock = clock
	e.badges = NewBadgeService(db, nil)
	e.badges.Clock = clock
	e.missions = NewMissionService(db, e.progression, nil)
	e.missions.Clock = clock
	e.leaderboard = NewLeaderboardService(db, nil)
	e.verification = NewVerificationService(db, nil)
	e.verification.Clock = clock
	e.trades = NewTradeService(db, e.missions, e.badges, e.verification, nil)
	e.trades.Clock = clock
	return e
}

func (e *testEnv) createUser(t *testing.T, id string) *models.UserProfile {
	t.Helper()
	prof, err := e.progression.EnsureProfile(context.Background(), id, ProfileInput{Name: id})
	if err != nil {
		t.Fatalf("EnsureProfile(%s): %v", id, err)
	}
	return prof
}

func (e *testEnv) setStats(t *testing.T, id string, fields map[string]interface{}) {
	t.Helper()
	if err := e.db.Model(&models.UserProfile{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		t.Fatalf("set stats for %s: %v", id, err)
	}
}

func (e *testEnv) profile(t *testing.T, id string) *models.UserProfile {
	t.Helper()
	prof, err := e.progression.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProfile(%s): %v", id, err)
	}
	return prof
}
