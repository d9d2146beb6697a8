package services

import (
	"testing"

	"message-duel-system/models"

	"github.com/stretchr/testify/assert"
)

func TestRateMatch(t *testing.T) {
	tests := []struct {
		name     string
		elo1     int
		elo2     int
		actual1  float64
		wantElo1 int
		wantElo2 int
	}{
		{
			name: "equal ratings, player1 wins",
			elo1: 1200, elo2: 1200, actual1: ScoreWin,
			wantElo1: 1216, wantElo2: 1184,
		},
		{
			name: "equal ratings, player2 wins",
			elo1: 1200, elo2: 1200, actual1: ScoreLoss,
			wantElo1: 1184, wantElo2: 1216,
		},
		{
			name: "equal ratings, draw changes nothing",
			elo1: 1200, elo2: 1200, actual1: ScoreDraw,
			wantElo1: 1200, wantElo2: 1200,
		},
		{
			name: "upset: underdog beats favourite",
			elo1: 1400, elo2: 1000, actual1: ScoreLoss,
			wantElo1: 1371, wantElo2: 1029,
		},
		{
			name: "favourite wins, small exchange",
			elo1: 1400, elo2: 1000, actual1: ScoreWin,
			wantElo1: 1403, wantElo2: 997,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			new1, new2 := RateMatch(tt.elo1, tt.elo2, tt.actual1)
			assert.Equal(t, tt.wantElo1, new1)
			assert.Equal(t, tt.wantElo2, new2)
		})
	}
}

func TestRateMatchIsZeroSum(t *testing.T) {
	// Deltas are symmetric under equal K, so the pool total is preserved up
	// to rounding.
	pairs := [][2]int{{1200, 1200}, {1400, 1000}, {1550, 1490}, {800, 2400}}
	for _, p := range pairs {
		for _, actual1 := range []float64{ScoreWin, ScoreLoss, ScoreDraw} {
			new1, new2 := RateMatch(p[0], p[1], actual1)
			assert.InDelta(t, p[0]+p[1], new1+new2, 1,
				"pool total drifted for %v actual=%v", p, actual1)
		}
	}
}

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1200, 1200), 1e-9)
	assert.InDelta(t, 0.909, ExpectedScore(1400, 1000), 0.001)

	// Complementarity
	assert.InDelta(t, 1.0,
		ExpectedScore(1321, 1188)+ExpectedScore(1188, 1321), 1e-9)
}

func TestJudgeEloAfter(t *testing.T) {
	t.Run("agreement is worth more than disagreement costs", func(t *testing.T) {
		assert.Equal(t, 1210, JudgeEloAfter(1200, true))
		assert.Equal(t, 1195, JudgeEloAfter(1200, false))
	})

	t.Run("never falls below the floor", func(t *testing.T) {
		assert.Equal(t, models.JudgeEloFloor, JudgeEloAfter(models.JudgeEloFloor, false))
		assert.Equal(t, models.JudgeEloFloor, JudgeEloAfter(models.JudgeEloFloor+3, false))

		// A losing streak of any length bottoms out at the floor.
		elo := 1000
		for i := 0; i < 100; i++ {
			elo = JudgeEloAfter(elo, false)
			assert.GreaterOrEqual(t, elo, models.JudgeEloFloor)
		}
		assert.Equal(t, models.JudgeEloFloor, elo)
	})

	t.Run("agreement lifts off the floor", func(t *testing.T) {
		assert.Equal(t, models.JudgeEloFloor+AgreementBonus, JudgeEloAfter(models.JudgeEloFloor, true))
	})
}

func TestPeakAfter(t *testing.T) {
	assert.Equal(t, 1300, PeakAfter(1300, 1250), "peak never decreases")
	assert.Equal(t, 1350, PeakAfter(1300, 1350))

	// Monotonic across an arbitrary rating walk.
	peak := 1200
	prev := peak
	for _, elo := range []int{1216, 1200, 1184, 1230, 1190, 1260} {
		peak = PeakAfter(peak, elo)
		assert.GreaterOrEqual(t, peak, prev)
		prev = peak
	}
	assert.Equal(t, 1260, peak)
}
