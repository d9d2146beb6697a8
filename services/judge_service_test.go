package services

import (
	"testing"
	"time"

	"message-duel-system/models"

	"github.com/stretchr/testify/assert"
)

func TestConsensusReached(t *testing.T) {
	rating := func(tier models.RatingTier) models.JudgeRating {
		return models.JudgeRating{Rating: tier}
	}

	t.Run("identical tiers agree", func(t *testing.T) {
		for _, tier := range models.AllTiers {
			assert.True(t, ConsensusReached(rating(tier), rating(tier)), "tier=%s", tier)
		}
	})

	t.Run("different tiers disagree, however close", func(t *testing.T) {
		assert.False(t, ConsensusReached(rating(models.TierGood), rating(models.TierBlunder)))
		assert.False(t, ConsensusReached(rating(models.TierBrilliant), rating(models.TierGreat)),
			"adjacent tiers are still a disagreement")
	})
}

func TestConsensusState(t *testing.T) {
	rating := func(tier models.RatingTier) models.JudgeRating {
		return models.JudgeRating{Rating: tier}
	}
	stamp := time.Now()

	tests := []struct {
		name       string
		ratings    []models.JudgeRating
		resolvedAt *time.Time
		want       string
	}{
		{"no ratings yet", nil, nil, ConsensusPending},
		{"one rating stays pending", []models.JudgeRating{rating(models.TierGood)}, nil, ConsensusPending},
		{"second rating agrees", []models.JudgeRating{rating(models.TierGood), rating(models.TierGood)}, nil, ConsensusAgreed},
		{"second rating disagrees", []models.JudgeRating{rating(models.TierGood), rating(models.TierMiss)}, nil, ConsensusDisagreed},
		{"stamped message never fires again", []models.JudgeRating{rating(models.TierGood), rating(models.TierGood)}, &stamp, ConsensusResolved},
		{"extra ratings on a stamped message", []models.JudgeRating{rating(models.TierGood), rating(models.TierGood), rating(models.TierMiss)}, &stamp, ConsensusResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsensusState(tt.ratings, tt.resolvedAt))
		})
	}

	// Replaying the resolving transition with the stamp in place must flip
	// agreed → resolved: the ledger moves on the first evaluation only.
	pair := []models.JudgeRating{rating(models.TierGreat), rating(models.TierGreat)}
	first := ConsensusState(pair, nil)
	assert.Equal(t, ConsensusAgreed, first)
	assert.Equal(t, ConsensusResolved, ConsensusState(pair, &stamp))
}

func TestConsensusLedgerEffect(t *testing.T) {
	// Both judges move together: +10 each on agreement, -5 each on
	// disagreement, floored.
	j1, j2 := 1200, 950

	new1 := JudgeEloAfter(j1, true)
	new2 := JudgeEloAfter(j2, true)
	assert.Equal(t, 1210, new1)
	assert.Equal(t, 960, new2)

	new1 = JudgeEloAfter(j1, false)
	new2 = JudgeEloAfter(j2, false)
	assert.Equal(t, 1195, new1)
	assert.Equal(t, 945, new2)
}
