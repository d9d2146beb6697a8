package services

import (
	"strings"
	"testing"
	"time"

	"message-duel-system/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeMatch builds an active two-player match started at startedAt with
// player1 to move.
func activeMatch(t *testing.T, startedAt time.Time) *models.Match {
	t.Helper()
	p1 := gofakeit.UUID()
	p2 := gofakeit.UUID()
	j1 := gofakeit.UUID()
	j2 := gofakeit.UUID()
	return &models.Match{
		ID:          gofakeit.UUID(),
		Player1ID:   p1,
		Player2ID:   &p2,
		Judge1ID:    &j1,
		Judge2ID:    &j2,
		Status:      models.MatchStatusActive,
		Outcome:     models.OutcomePending,
		CurrentTurn: &p1,
		StartedAt:   &startedAt,
		TimeLimit:   models.DefaultTimeLimitSec,
	}
}

func TestCanSend(t *testing.T) {
	now := time.Now()

	t.Run("accepts the player whose turn it is", func(t *testing.T) {
		m := activeMatch(t, now.Add(-time.Minute))
		assert.NoError(t, CanSend(m, m.Player1ID, now))
	})

	t.Run("rejects the player out of turn", func(t *testing.T) {
		m := activeMatch(t, now.Add(-time.Minute))
		assert.ErrorIs(t, CanSend(m, *m.Player2ID, now), ErrNotYourTurn)
	})

	t.Run("rejects non-participants and judges", func(t *testing.T) {
		m := activeMatch(t, now.Add(-time.Minute))
		assert.ErrorIs(t, CanSend(m, gofakeit.UUID(), now), ErrNotAPlayer)
		assert.ErrorIs(t, CanSend(m, *m.Judge1ID, now), ErrNotAPlayer)
	})

	t.Run("rejects every non-active status", func(t *testing.T) {
		for _, status := range []string{
			models.MatchStatusWaiting,
			models.MatchStatusCompleted,
			models.MatchStatusForfeit,
		} {
			m := activeMatch(t, now.Add(-time.Minute))
			m.Status = status
			assert.ErrorIs(t, CanSend(m, m.Player1ID, now), ErrMatchNotActive, "status=%s", status)
		}
	})

	t.Run("expiry wins over turn errors", func(t *testing.T) {
		started := now.Add(-time.Duration(models.DefaultTimeLimitSec+1) * time.Second)
		m := activeMatch(t, started)
		assert.ErrorIs(t, CanSend(m, m.Player1ID, now), ErrTimeExpired)
		assert.ErrorIs(t, CanSend(m, *m.Player2ID, now), ErrTimeExpired,
			"the out-of-turn player must also see expiry, not a turn error")
	})
}

func TestCanEnd(t *testing.T) {
	now := time.Now()

	t.Run("players may end their own match", func(t *testing.T) {
		m := activeMatch(t, now)
		assert.NoError(t, CanEnd(m, m.Player1ID))
		assert.NoError(t, CanEnd(m, *m.Player2ID))
	})

	t.Run("judges and strangers may not", func(t *testing.T) {
		m := activeMatch(t, now)
		assert.ErrorIs(t, CanEnd(m, *m.Judge1ID), ErrNotAPlayer)
		assert.ErrorIs(t, CanEnd(m, *m.Judge2ID), ErrNotAPlayer)
		assert.ErrorIs(t, CanEnd(m, gofakeit.UUID()), ErrNotAPlayer)
	})

	t.Run("only active matches can be ended", func(t *testing.T) {
		for _, status := range []string{
			models.MatchStatusWaiting,
			models.MatchStatusCompleted,
			models.MatchStatusForfeit,
		} {
			m := activeMatch(t, now)
			m.Status = status
			assert.ErrorIs(t, CanEnd(m, m.Player1ID), ErrMatchNotActive, "status=%s", status)
		}
	})
}

func TestOtherPlayer(t *testing.T) {
	m := activeMatch(t, time.Now())

	got, ok := OtherPlayer(m, m.Player1ID)
	require.True(t, ok)
	assert.Equal(t, *m.Player2ID, got)

	got, ok = OtherPlayer(m, *m.Player2ID)
	require.True(t, ok)
	assert.Equal(t, m.Player1ID, got)

	_, ok = OtherPlayer(m, gofakeit.UUID())
	assert.False(t, ok, "strangers have no opponent")

	m.Player2ID = nil
	_, ok = OtherPlayer(m, m.Player1ID)
	assert.False(t, ok, "no opponent before the match fills")
}

func TestValidateContent(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		got, err := ValidateContent("  attack the flank \n")
		require.NoError(t, err)
		assert.Equal(t, "attack the flank", got)
	})

	t.Run("rejects empty and whitespace-only content", func(t *testing.T) {
		_, err := ValidateContent("")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		_, err = ValidateContent("   \t\n")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("rejects oversized content", func(t *testing.T) {
		_, err := ValidateContent(strings.Repeat("x", models.MaxMessageLength+1))
		assert.ErrorIs(t, err, ErrMessageTooLong)

		got, err := ValidateContent(strings.Repeat("x", models.MaxMessageLength))
		require.NoError(t, err)
		assert.Len(t, got, models.MaxMessageLength)
	})
}

func TestMatchExpiry(t *testing.T) {
	now := time.Now()

	t.Run("not started, never expired", func(t *testing.T) {
		m := &models.Match{Status: models.MatchStatusWaiting, TimeLimit: 300}
		assert.False(t, m.Expired(now))
	})

	t.Run("inside the limit", func(t *testing.T) {
		m := activeMatch(t, now.Add(-299*time.Second))
		assert.False(t, m.Expired(now))
	})

	t.Run("past the limit", func(t *testing.T) {
		m := activeMatch(t, now.Add(-301*time.Second))
		assert.True(t, m.Expired(now))
	})
}

func TestTurnAlternation(t *testing.T) {
	// Simulate a full exchange with CanSend + OtherPlayer: no sender may
	// ever appear twice in a row.
	now := time.Now()
	m := activeMatch(t, now)

	var senders []string
	for i := 0; i < 10; i++ {
		sender := *m.CurrentTurn
		require.NoError(t, CanSend(m, sender, now))

		other, ok := OtherPlayer(m, sender)
		require.True(t, ok)
		assert.ErrorIs(t, CanSend(m, other, now), ErrNotYourTurn)

		senders = append(senders, sender)
		m.CurrentTurn = &other
	}

	for i := 1; i < len(senders); i++ {
		assert.NotEqual(t, senders[i-1], senders[i], "sender repeated at message %d", i)
	}
}
