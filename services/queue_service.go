package services

import (
	"errors"
	"time"

	"message-duel-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpponentGraceWindow keeps a freshly inserted entry out of opponent search
// for a moment so a join can never consume its own just-written row.
const OpponentGraceWindow = 1 * time.Second

// QueueService owns the pool of users waiting for a match.
type QueueService struct {
	DB         *gorm.DB
	Matchmaker *Matchmaker
}

func NewQueueService(db *gorm.DB, mm *Matchmaker) *QueueService {
	return &QueueService{DB: db, Matchmaker: mm}
}

// JoinQueue enqueues the caller as a player or judge. Re-joining replaces
// the previous entry and resets the wait clock. Players with a live match
// are rejected. A player join immediately attempts match formation.
func (s *QueueService) JoinQueue(c *fiber.Ctx) error {
	var req struct {
		MatchType string `json:"match_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}
	if req.MatchType != models.MatchTypePlayer && req.MatchType != models.MatchTypeJudge {
		return fail(c, ErrInvalidRole)
	}

	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}

	if active, err := activeMatchFor(s.DB, user.ID); err != nil {
		return fail(c, err)
	} else if active != nil {
		return fail(c, ErrAlreadyInMatch)
	}

	elo := user.Elo
	if req.MatchType == models.MatchTypeJudge {
		elo = user.JudgeElo
	}

	entry := models.QueueEntry{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Elo:       elo,
		MatchType: req.MatchType,
		JoinedAt:  time.Now(),
	}
	// Upsert-by-user: joining again replaces the old entry.
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"elo", "match_type", "joined_at"}),
	}).Create(&entry).Error; err != nil {
		return fail(c, err)
	}

	var match *models.Match
	if req.MatchType == models.MatchTypePlayer {
		match, err = s.Matchmaker.TryMatch(user.ID)
		if err != nil {
			return fail(c, err)
		}
	}

	if match != nil {
		return ok(c, fiber.Map{"status": "matched", "match": match})
	}
	return ok(c, fiber.Map{
		"status":       "waiting",
		"match_type":   req.MatchType,
		"joined_at":    entry.JoinedAt,
		"search_range": SearchRange(entry.JoinedAt, time.Now()),
	})
}

// LeaveQueue removes the caller's entry. Idempotent: leaving while absent
// still succeeds.
func (s *QueueService) LeaveQueue(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	if err := s.DB.Where("user_id = ?", user.ID).Delete(&models.QueueEntry{}).Error; err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"status": "left"})
}

// QueueStatus is the poll endpoint: it reports wait state and, for queued
// players, re-runs the matcher so widening tolerance eventually forms a
// match. Safe to call on any interval.
func (s *QueueService) QueueStatus(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}

	var entry models.QueueEntry
	err = s.DB.Where("user_id = ?", user.ID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Not queued — either matched already or never joined.
		active, aerr := activeMatchFor(s.DB, user.ID)
		if aerr != nil {
			return fail(c, aerr)
		}
		if active != nil {
			return ok(c, fiber.Map{"status": "matched", "match": active})
		}
		return ok(c, fiber.Map{"status": "idle"})
	}
	if err != nil {
		return fail(c, err)
	}

	if entry.MatchType == models.MatchTypePlayer {
		match, merr := s.Matchmaker.TryMatch(user.ID)
		if merr != nil {
			return fail(c, merr)
		}
		if match != nil {
			return ok(c, fiber.Map{"status": "matched", "match": match})
		}
	}

	now := time.Now()
	return ok(c, fiber.Map{
		"status":       "waiting",
		"match_type":   entry.MatchType,
		"joined_at":    entry.JoinedAt,
		"waiting_secs": int(now.Sub(entry.JoinedAt).Seconds()),
		"search_range": SearchRange(entry.JoinedAt, now),
	})
}

// activeMatchFor returns the user's waiting or active match, if any. A user
// occupies at most one live match, as player or judge.
func activeMatchFor(db *gorm.DB, userID string) (*models.Match, error) {
	var match models.Match
	err := db.Where(
		"status IN ('waiting','active') AND (player1_id = ? OR player2_id = ? OR judge1_id = ? OR judge2_id = ?)",
		userID, userID, userID, userID,
	).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}
