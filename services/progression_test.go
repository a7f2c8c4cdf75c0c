package services

import (
	"context"
	"errors"
	"testing"

	"reloop/models"
)

func TestCalculateLevel(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{-5, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{4200, 10},
		{23999, 19},
		{24000, 20},
		{1_000_000, 20},
	}
	for _, tc := range cases {
		if got := CalculateLevel(tc.xp); got != tc.want {
			t.Errorf("CalculateLevel(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestCalculateLevelMonotonicAndBounded(t *testing.T) {
	prev := CalculateLevel(0)
	for xp := int64(0); xp <= 30000; xp += 7 {
		lvl := CalculateLevel(xp)
		if lvl < 1 || lvl > models.MaxLevel {
			t.Fatalf("CalculateLevel(%d) = %d out of range", xp, lvl)
		}
		if lvl < prev {
			t.Fatalf("level decreased at xp=%d: %d < %d", xp, lvl, prev)
		}
		prev = lvl
	}
}

func TestGetLevelProgress(t *testing.T) {
	p := GetLevelProgress(175)
	if p.Level != 2 || p.LevelXP != 75 || p.RequiredXP != 150 || p.Percentage != 50 || p.NextLevelXP != 250 {
		t.Fatalf("unexpected progress for 175 xp: %+v", p)
	}

	top := GetLevelProgress(50000)
	if top.Level != models.MaxLevel || top.Percentage != 100 || top.RequiredXP != 0 {
		t.Fatalf("unexpected progress at max level: %+v", top)
	}

	for xp := int64(0); xp <= 26000; xp += 13 {
		pct := GetLevelProgress(xp).Percentage
		if pct < 0 || pct > 100 {
			t.Fatalf("percentage %d out of range at xp=%d", pct, xp)
		}
	}
}

func TestGetLevelTitle(t *testing.T) {
	cases := map[int]string{
		1:  "Rookie Recycler",
		5:  "Planet Protector",
		10: "Eco Legend",
		12: "Eco Legend",
		15: "Planet Savior",
		19: "Planet Savior",
		20: "Eco Master",
	}
	for level, want := range cases {
		if got := GetLevelTitle(level); got != want {
			t.Errorf("GetLevelTitle(%d) = %q, want %q", level, got, want)
		}
	}
}

func TestCheckLevelUp(t *testing.T) {
	if up := CheckLevelUp(50, 80); up.LeveledUp {
		t.Fatalf("expected no level-up, got %+v", up)
	}
	up := CheckLevelUp(50, 150)
	if !up.LeveledUp || up.OldLevel != 1 || up.NewLevel != 2 || up.NewXP != 150 || up.Title != "Green Beginner" {
		t.Fatalf("unexpected level-up: %+v", up)
	}
}

func TestEnsureProfileSeedsOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	prof := e.createUser(t, "u1")
	if prof.Coins != models.StartingCoins || prof.Level != 1 || prof.XP != 0 || prof.Name != "u1" {
		t.Fatalf("unexpected seed profile: %+v", prof)
	}

	e.setStats(t, "u1", map[string]interface{}{"coins": 5})
	again, err := e.progression.EnsureProfile(ctx, "u1", ProfileInput{Name: "other"})
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if again.Coins != 5 || again.Name != "u1" {
		t.Fatalf("existing profile was overwritten: %+v", again)
	}

	anon, err := e.progression.EnsureProfile(ctx, "u2", ProfileInput{})
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if anon.Name != "Eco Hero" {
		t.Fatalf("default name = %q", anon.Name)
	}
}

func TestAwardXPLevelsUp(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.createUser(t, "u1")

	first, err := e.progression.AwardXP(ctx, "u1", 50, "test")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	if first.LevelUp.LeveledUp || first.NewXP != 50 {
		t.Fatalf("unexpected first award: %+v", first)
	}

	second, err := e.progression.AwardXP(ctx, "u1", 100, "test")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	if !second.LevelUp.LeveledUp || second.LevelUp.OldLevel != 1 || second.LevelUp.NewLevel != 2 || second.NewXP != 150 {
		t.Fatalf("unexpected second award: %+v", second)
	}

	prof := e.profile(t, "u1")
	if prof.XP != 150 || prof.Level != 2 {
		t.Fatalf("stored xp/level = %d/%d, want 150/2", prof.XP, prof.Level)
	}
}

func TestAwardXPErrors(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.progression.AwardXP(ctx, "ghost", 10, "test"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	e.createUser(t, "u1")
	if _, err := e.progression.AwardXP(ctx, "u1", 0, "test"); !errors.Is(err, ErrInvalidIncrement) {
		t.Fatalf("expected ErrInvalidIncrement, got %v", err)
	}
}

func TestIncrementStats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.createUser(t, "u1")

	err := e.progression.IncrementStats(ctx, "u1", StatsDelta{ItemsTraded: 2, CO2Saved: 1.5, ItemsScanned: 1})
	if err != nil {
		t.Fatalf("IncrementStats: %v", err)
	}
	prof := e.profile(t, "u1")
	if prof.ItemsTraded != 2 || prof.CO2Saved != 1.5 || prof.ItemsScanned != 1 {
		t.Fatalf("unexpected stats: %+v", prof)
	}
	if err := e.progression.IncrementStats(ctx, "ghost", StatsDelta{ItemsSold: 1}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
