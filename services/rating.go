package services

import (
	"math"

	"message-duel-system/models"
)

// Player ELO: standard logistic expected-score model, K=32, results rounded
// to the nearest point. Judge ELO: flat agreement adjustment, deliberately
// asymmetric (+10/-5) so consensus is rewarded harder than disagreement is
// punished, floored at models.JudgeEloFloor.

const (
	KPlayer = 32

	AgreementBonus      = 10
	DisagreementPenalty = 5
)

// Actual scores for the player model.
const (
	ScoreWin  = 1.0
	ScoreLoss = 0.0
	ScoreDraw = 0.5
)

// ExpectedScore returns the probability-like expected score of a player
// rated elo against an opponent rated oppElo.
func ExpectedScore(elo, oppElo int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(oppElo-elo)/400.0))
}

// RateMatch computes both players' new ratings from one outcome. actual1 is
// player1's actual score (ScoreWin / ScoreLoss / ScoreDraw); player2's is
// its complement. Deltas are symmetric, so the pair sum is preserved up to
// rounding.
func RateMatch(elo1, elo2 int, actual1 float64) (newElo1, newElo2 int) {
	expected1 := ExpectedScore(elo1, elo2)
	expected2 := 1.0 - expected1
	actual2 := 1.0 - actual1

	newElo1 = int(math.Round(float64(elo1) + KPlayer*(actual1-expected1)))
	newElo2 = int(math.Round(float64(elo2) + KPlayer*(actual2-expected2)))
	return newElo1, newElo2
}

// JudgeEloAfter returns a judge's rating after a resolved message: both
// judges gain on tier agreement, both lose on disagreement, never below the
// floor.
func JudgeEloAfter(elo int, agreed bool) int {
	next := elo - DisagreementPenalty
	if agreed {
		next = elo + AgreementBonus
	}
	if next < models.JudgeEloFloor {
		next = models.JudgeEloFloor
	}
	return next
}

// PeakAfter keeps peak ratings monotonically non-decreasing.
func PeakAfter(peak, next int) int {
	if next > peak {
		return next
	}
	return peak
}
