package services

import (
	"errors"
	"log"
	"time"

	"message-duel-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tolerance window growth: every RangeStepEvery of waiting widens the
// acceptable opponent ELO distance by RangeStep, starting from BaseEloRange.
const (
	BaseEloRange   = 100
	RangeStep      = 50
	RangeStepEvery = 30 * time.Second
)

// SearchRange returns the ELO tolerance for an entry that joined at joinedAt,
// evaluated at now. Growth is in discrete steps, not continuous.
func SearchRange(joinedAt, now time.Time) int {
	wait := now.Sub(joinedAt)
	if wait < 0 {
		wait = 0
	}
	return BaseEloRange + int(wait/RangeStepEvery)*RangeStep
}

// Matchmaker turns a queued player into a full match: one opponent inside
// the tolerance window plus the two longest-waiting judges, all claimed and
// removed from the queue in a single transaction. Row locks with SKIP LOCKED
// make every claim at-most-once under concurrent polls.
type Matchmaker struct {
	DB *gorm.DB
}

func NewMatchmaker(db *gorm.DB) *Matchmaker {
	return &Matchmaker{DB: db}
}

// TryMatch attempts match formation for a queued player. Returns the formed
// match, or nil when no compatible opponent or too few judges are available;
// in that case the entry stays queued and the caller re-polls. Idempotent —
// repeated calls have no effect beyond eventual match creation.
func (m *Matchmaker) TryMatch(userID string) (*models.Match, error) {
	var formed *models.Match

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Claim our own entry first. If a concurrent matcher already holds
		// (or consumed) it, this run is a no-op.
		var me models.QueueEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("user_id = ? AND match_type = ?", userID, models.MatchTypePlayer).
			First(&me).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		searchRange := SearchRange(me.JoinedAt, now)

		opponent, err := claimOpponent(tx, me, searchRange, now)
		if err != nil {
			return err
		}
		if opponent == nil {
			return nil
		}

		judges, err := claimJudges(tx, []string{me.UserID, opponent.UserID}, 2)
		if err != nil {
			return err
		}
		if len(judges) < 2 {
			return nil
		}

		// Quartet assembled: create the match for player1, then start it.
		match := models.Match{
			ID:        uuid.NewString(),
			Player1ID: me.UserID,
			Status:    models.MatchStatusWaiting,
			Outcome:   models.OutcomePending,
			TimeLimit: models.DefaultTimeLimitSec,
		}
		if err := tx.Create(&match).Error; err != nil {
			return err
		}

		match.Player2ID = &opponent.UserID
		match.Judge1ID = &judges[0].UserID
		match.Judge2ID = &judges[1].UserID
		match.Status = models.MatchStatusActive
		match.CurrentTurn = &match.Player1ID
		match.StartedAt = &now
		if err := tx.Model(&models.Match{}).Where("id = ?", match.ID).Updates(map[string]interface{}{
			"player2_id":   match.Player2ID,
			"judge1_id":    match.Judge1ID,
			"judge2_id":    match.Judge2ID,
			"status":       match.Status,
			"current_turn": match.CurrentTurn,
			"started_at":   match.StartedAt,
		}).Error; err != nil {
			return err
		}

		// All four participants leave the queue with the match creation.
		ids := []string{me.ID, opponent.ID, judges[0].ID, judges[1].ID}
		if err := tx.Where("id IN ?", ids).Delete(&models.QueueEntry{}).Error; err != nil {
			return err
		}

		formed = &match
		return nil
	})
	if err != nil {
		return nil, err
	}

	if formed != nil {
		log.Printf("🎮 [MATCHMAKER] Match %s formed: %s vs %s (judges %s, %s)",
			formed.ID, formed.Player1ID, *formed.Player2ID, *formed.Judge1ID, *formed.Judge2ID)
	}
	return formed, nil
}

// claimOpponent locks and returns the longest-waiting player entry within
// [elo-range, elo+range], excluding the initiator and anything inside the
// grace window. Nil when none qualify.
func claimOpponent(tx *gorm.DB, me models.QueueEntry, searchRange int, now time.Time) (*models.QueueEntry, error) {
	var opponent models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("match_type = ? AND user_id <> ?", models.MatchTypePlayer, me.UserID).
		Where("elo BETWEEN ? AND ?", me.Elo-searchRange, me.Elo+searchRange).
		Where("joined_at <= ?", now.Add(-OpponentGraceWindow)).
		Order("joined_at ASC").
		First(&opponent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opponent, nil
}

// claimJudges locks and returns up to n of the longest-waiting judge
// entries, excluding the given user ids so neither player can judge their
// own match.
func claimJudges(tx *gorm.DB, excludeUserIDs []string, n int) ([]models.QueueEntry, error) {
	var judges []models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("match_type = ? AND user_id NOT IN ?", models.MatchTypeJudge, excludeUserIDs).
		Order("joined_at ASC").
		Limit(n).
		Find(&judges).Error
	if err != nil {
		return nil, err
	}
	return judges, nil
}
