package services

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reloopLevelUpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_level_ups_total",
		Help: "Level-ups observed after xp grants, by new level.",
	}, []string{"level"})

	reloopBadgesUnlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_badges_unlocked_total",
		Help: "Badges unlocked, by badge id.",
	}, []string{"badge"})

	reloopMissionClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_mission_claims_total",
		Help: "Mission reward claims, by mission id and result.",
	}, []string{"mission", "result"})

	reloopVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_trade_verifications_total",
		Help: "QR trade verification attempts, by result.",
	}, []string{"result"})

	reloopRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_reward_redemptions_total",
		Help: "Coin reward redemptions, by reward id and result.",
	}, []string{"reward", "result"})

	reloopScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reloop_scans_total",
		Help: "Scanner analyses, by result source (ai or fallback).",
	}, []string{"source"})
)

func recordLevelUp(l LevelUp) {
	if l.LeveledUp {
		reloopLevelUpsTotal.WithLabelValues(strconv.Itoa(l.NewLevel)).Inc()
	}
}

func recordVerification(result string) {
	reloopVerificationsTotal.WithLabelValues(result).Inc()
}
