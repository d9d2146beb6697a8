package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"message-duel-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Forfeit / natural-end scoring on the 0-10 scale.
const (
	ForfeitWinnerScore = 10
	ForfeitLoserScore  = 0
	DrawScore          = 5
)

// MatchService owns the match state machine: waiting → active →
// {completed, forfeit}. Every mutating call re-checks the time limit first,
// so an expired match self-heals to completed the next time it is touched.
type MatchService struct {
	DB          *gorm.DB
	Transcripts *TranscriptArchiver
}

func NewMatchService(db *gorm.DB, transcripts *TranscriptArchiver) *MatchService {
	return &MatchService{DB: db, Transcripts: transcripts}
}

// OtherPlayer returns the opponent of userID, or false when userID is not a
// player or the match has no second player yet.
func OtherPlayer(match *models.Match, userID string) (string, bool) {
	if match.Player2ID == nil {
		return "", false
	}
	switch userID {
	case match.Player1ID:
		return *match.Player2ID, true
	case *match.Player2ID:
		return match.Player1ID, true
	}
	return "", false
}

// CanSend checks the send-message preconditions against a match snapshot:
// status, clock, turn — in that order, so an expired match reports
// ErrTimeExpired rather than a stale turn error.
func CanSend(match *models.Match, userID string, now time.Time) error {
	if match.Status != models.MatchStatusActive {
		return ErrMatchNotActive
	}
	if match.Expired(now) {
		return ErrTimeExpired
	}
	if !match.HasPlayer(userID) {
		return ErrNotAPlayer
	}
	if match.CurrentTurn == nil || *match.CurrentTurn != userID {
		return ErrNotYourTurn
	}
	return nil
}

// CanEnd checks whether userID may end or forfeit a match: only an active
// match, and only one of its players.
func CanEnd(match *models.Match, userID string) error {
	if match.Status != models.MatchStatusActive {
		return ErrMatchNotActive
	}
	if !match.HasPlayer(userID) {
		return ErrNotAPlayer
	}
	return nil
}

// ValidateContent trims and bounds message content.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if len(trimmed) > models.MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// SendMessage posts one message on behalf of the caller and flips the turn.
// The match row is locked for the whole transaction and the flip itself is a
// conditional update keyed on (status, current_turn), so two racing senders
// can never both succeed.
func (s *MatchService) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}

	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	matchID := c.Params("id")

	content, err := ValidateContent(req.Content)
	if err != nil {
		return fail(c, err)
	}

	created, err := s.postMessage(matchID, user.ID, content)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"message": created})
}

// postMessage runs the send transaction. A send that finds the clock already
// run out closes the match as a provisional draw; that close must commit, so
// the expiry is reported after the transaction rather than through it
// (returning it from the closure would roll the close back).
func (s *MatchService) postMessage(matchID, userID, content string) (models.Message, error) {
	var created models.Message
	var expired bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		match, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}

		now := time.Now()
		if cerr := CanSend(match, userID, now); cerr != nil {
			if !errors.Is(cerr, ErrTimeExpired) {
				return cerr
			}
			expired = true
			return s.finishMatch(tx, match, nil, now)
		}

		opponent, _ := OtherPlayer(match, userID)

		created = models.Message{
			ID:      uuid.NewString(),
			MatchID: match.ID,
			UserID:  userID,
			Content: content,
			SentAt:  now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		// Compare-and-swap turn flip. Zero rows affected means a concurrent
		// sender won the race after our snapshot.
		res := tx.Model(&models.Match{}).
			Where("id = ? AND status = ? AND current_turn = ?",
				match.ID, models.MatchStatusActive, userID).
			Update("current_turn", opponent)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotYourTurn
		}
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	if expired {
		log.Printf("⏰ [MATCH] %s expired — closed as provisional draw", matchID)
		s.archiveAsync(matchID)
		return models.Message{}, ErrTimeExpired
	}
	return created, nil
}

// Forfeit ends the caller's active match with the opponent as winner.
func (s *MatchService) Forfeit(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	return s.end(c, c.Params("id"), user.ID, true)
}

// EndMatch ends an active match without a verdict: provisional draw, both
// scores 5, player ELO applied as 0.5/0.5. Judges do not retroactively
// change the result. Only a player of the match may end it.
func (s *MatchService) EndMatch(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	return s.end(c, c.Params("id"), user.ID, false)
}

func (s *MatchService) end(c *fiber.Ctx, matchID, callerID string, forfeit bool) error {
	ended, err := s.closeMatch(matchID, callerID, forfeit)
	if errors.Is(err, ErrMatchNotActive) {
		// Ending a non-active match is a no-op on retry, not a fault.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false, "error": ErrMatchNotActive.Error(),
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"match": ended})
}

// closeMatch ends matchID on callerID's behalf, as a forfeit or a verdict-less
// draw. The caller must be one of the match's players either way.
func (s *MatchService) closeMatch(matchID, callerID string, forfeit bool) (*models.Match, error) {
	var ended *models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		match, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}
		if err := CanEnd(match, callerID); err != nil {
			return err
		}
		var forfeitUserID *string
		if forfeit {
			forfeitUserID = &callerID
		}
		if err := s.finishMatch(tx, match, forfeitUserID, time.Now()); err != nil {
			return err
		}
		ended = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.archiveAsync(ended.ID)
	return ended, nil
}

// finishMatch moves an active match to its terminal state and applies player
// ratings. With forfeitUserID the other player wins 10-0; without one the
// outcome is a provisional draw, 5-5, rated 0.5/0.5 — judge consensus never
// rewrites it afterwards. Caller holds the match row lock.
func (s *MatchService) finishMatch(tx *gorm.DB, match *models.Match, forfeitUserID *string, now time.Time) error {
	match.Status = models.MatchStatusCompleted
	match.Outcome = models.OutcomeDraw
	match.WinnerID = nil
	match.Player1Score = DrawScore
	match.Player2Score = DrawScore
	actual1 := ScoreDraw

	if forfeitUserID != nil {
		winner, ok := OtherPlayer(match, *forfeitUserID)
		if ok {
			match.Status = models.MatchStatusForfeit
			match.Outcome = models.OutcomeWin
			match.WinnerID = &winner
			if winner == match.Player1ID {
				match.Player1Score = ForfeitWinnerScore
				match.Player2Score = ForfeitLoserScore
				actual1 = ScoreWin
			} else {
				match.Player1Score = ForfeitLoserScore
				match.Player2Score = ForfeitWinnerScore
				actual1 = ScoreLoss
			}
		}
	}

	match.EndedAt = &now
	match.CurrentTurn = nil

	if err := tx.Model(&models.Match{}).Where("id = ?", match.ID).Updates(map[string]interface{}{
		"status":        match.Status,
		"outcome":       match.Outcome,
		"winner_id":     match.WinnerID,
		"player1_score": match.Player1Score,
		"player2_score": match.Player2Score,
		"ended_at":      match.EndedAt,
		"current_turn":  nil,
	}).Error; err != nil {
		return err
	}

	return s.applyPlayerRatings(tx, match, actual1)
}

// applyPlayerRatings updates both players' ELO, peaks and counters for a
// finished match. Skipped entirely when the match never got a second player.
func (s *MatchService) applyPlayerRatings(tx *gorm.DB, match *models.Match, actual1 float64) error {
	if match.Player2ID == nil {
		return nil
	}

	var p1, p2 models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", match.Player1ID).First(&p1).Error; err != nil {
		return err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", *match.Player2ID).First(&p2).Error; err != nil {
		return err
	}

	new1, new2 := RateMatch(p1.Elo, p2.Elo, actual1)

	p1Updates := map[string]interface{}{
		"elo":           new1,
		"peak_elo":      PeakAfter(p1.PeakElo, new1),
		"total_matches": gorm.Expr("total_matches + 1"),
	}
	p2Updates := map[string]interface{}{
		"elo":           new2,
		"peak_elo":      PeakAfter(p2.PeakElo, new2),
		"total_matches": gorm.Expr("total_matches + 1"),
	}
	if match.Outcome == models.OutcomeWin && match.WinnerID != nil {
		if *match.WinnerID == p1.ID {
			p1Updates["wins"] = gorm.Expr("wins + 1")
			p2Updates["losses"] = gorm.Expr("losses + 1")
		} else {
			p1Updates["losses"] = gorm.Expr("losses + 1")
			p2Updates["wins"] = gorm.Expr("wins + 1")
		}
	}

	if err := tx.Model(&models.User{}).Where("id = ?", p1.ID).Updates(p1Updates).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", p2.ID).Updates(p2Updates).Error
}

// GetMatch returns one match with its participants. Touching an expired
// active match closes it first.
func (s *MatchService) GetMatch(c *fiber.Ctx) error {
	if _, err := currentUser(s.DB, c); err != nil {
		return fail(c, err)
	}
	matchID := c.Params("id")

	if err := s.CloseIfExpired(matchID); err != nil {
		return fail(c, err)
	}

	var match models.Match
	err := s.DB.Where("id = ?", matchID).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, ErrMatchNotFound)
	}
	if err != nil {
		return fail(c, err)
	}

	participants, err := s.participants(&match)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"match": match, "participants": participants})
}

// GetMessages lists a match's messages in send order, ratings included.
func (s *MatchService) GetMessages(c *fiber.Ctx) error {
	if _, err := currentUser(s.DB, c); err != nil {
		return fail(c, err)
	}
	matchID := c.Params("id")

	var match models.Match
	err := s.DB.Where("id = ?", matchID).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, ErrMatchNotFound)
	}
	if err != nil {
		return fail(c, err)
	}

	var messages []models.Message
	if err := s.DB.Preload("Ratings").
		Where("match_id = ?", matchID).
		Order("sent_at ASC").
		Find(&messages).Error; err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"messages": messages})
}

// ActiveMatch returns the caller's live match, if any.
func (s *MatchService) ActiveMatch(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	match, err := activeMatchFor(s.DB, user.ID)
	if err != nil {
		return fail(c, err)
	}
	if match == nil {
		return ok(c, fiber.Map{"match": nil})
	}
	if match.Status == models.MatchStatusActive && match.Expired(time.Now()) {
		if err := s.CloseIfExpired(match.ID); err != nil {
			return fail(c, err)
		}
		// Re-read: the match just transitioned under us.
		if err := s.DB.Where("id = ?", match.ID).First(match).Error; err != nil {
			return fail(c, err)
		}
	}
	return ok(c, fiber.Map{"match": match})
}

// RecentMatches returns the caller's finished matches, newest first.
func (s *MatchService) RecentMatches(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var matches []models.Match
	if err := s.DB.Where(
		"status IN ('completed','forfeit') AND (player1_id = ? OR player2_id = ?)",
		user.ID, user.ID,
	).Order("ended_at DESC").Limit(limit).Find(&matches).Error; err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"matches": matches})
}

// CloseIfExpired self-heals a match whose clock ran out before anyone
// touched it: active + expired → completed as a provisional draw. No-op for
// anything else, so it is safe to call opportunistically.
func (s *MatchService) CloseIfExpired(matchID string) error {
	var closed bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		match, err := lockMatch(tx, matchID)
		if errors.Is(err, ErrMatchNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusActive || !match.Expired(time.Now()) {
			return nil
		}
		if err := s.finishMatch(tx, match, nil, time.Now()); err != nil {
			return err
		}
		closed = true
		return nil
	})
	if err != nil {
		return err
	}
	if closed {
		log.Printf("⏰ [MATCH] %s expired — closed as provisional draw", matchID)
		s.archiveAsync(matchID)
	}
	return nil
}

// participants resolves the user rows referenced by a match.
func (s *MatchService) participants(match *models.Match) (map[string]*models.User, error) {
	ids := []string{match.Player1ID}
	for _, ref := range []*string{match.Player2ID, match.Judge1ID, match.Judge2ID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	var users []models.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := map[string]*models.User{
		"player1": byID[match.Player1ID],
	}
	if match.Player2ID != nil {
		out["player2"] = byID[*match.Player2ID]
	}
	if match.Judge1ID != nil {
		out["judge1"] = byID[*match.Judge1ID]
	}
	if match.Judge2ID != nil {
		out["judge2"] = byID[*match.Judge2ID]
	}
	return out, nil
}

// archiveAsync uploads the finished match transcript best-effort.
func (s *MatchService) archiveAsync(matchID string) {
	if s.Transcripts == nil || !s.Transcripts.Enabled() {
		return
	}
	go func() {
		if err := s.Transcripts.Archive(s.DB, matchID); err != nil {
			log.Printf("⚠️ [TRANSCRIPT] Failed to archive match %s: %v", matchID, err)
		}
	}()
}

// lockMatch loads a match row under FOR UPDATE for the current transaction.
func lockMatch(tx *gorm.DB, matchID string) (*models.Match, error) {
	var match models.Match
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", matchID).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}
