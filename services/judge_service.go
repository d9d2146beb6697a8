package services

import (
	"errors"
	"log"
	"time"

	"message-duel-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JudgeService collects per-message judge ratings and resolves consensus.
// The judge-ELO adjustment fires exactly once per message, on the transition
// from one rating to two; the consensus_at stamp on the message guards
// against any re-fire.
type JudgeService struct {
	DB *gorm.DB
}

func NewJudgeService(db *gorm.DB) *JudgeService {
	return &JudgeService{DB: db}
}

// Consensus states reported back to the rating judge. Only agreed and
// disagreed move judge ELO.
const (
	ConsensusPending   = "pending"
	ConsensusResolved  = "resolved"
	ConsensusAgreed    = "agreed"
	ConsensusDisagreed = "disagreed"
)

// ConsensusReached reports whether a resolved rating pair agrees: identical
// tier means agreement, anything else disagreement.
func ConsensusReached(a, b models.JudgeRating) bool {
	return a.Rating == b.Rating
}

// ConsensusState classifies a message's rating set after an insert: pending
// with fewer than two ratings, resolved when the ledger already fired for
// this message, otherwise agreed or disagreed from the first two ratings.
// The ledger moves only on the pending→{agreed,disagreed} transition, so a
// message can move judge ELO at most once.
func ConsensusState(ratings []models.JudgeRating, resolvedAt *time.Time) string {
	if len(ratings) < 2 {
		return ConsensusPending
	}
	if resolvedAt != nil {
		return ConsensusResolved
	}
	if ConsensusReached(ratings[0], ratings[1]) {
		return ConsensusAgreed
	}
	return ConsensusDisagreed
}

// RateMessage records the caller's verdict on one message. The message row
// lock serializes racing submissions, so the two-ratings check and the
// ledger update commit atomically with the insert.
func (s *JudgeService) RateMessage(c *fiber.Ctx) error {
	var req struct {
		Rating      string  `json:"rating"`
		Explanation *string `json:"explanation,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
	}

	tier := models.RatingTier(req.Rating)
	if !tier.Valid() {
		return fail(c, ErrInvalidTier)
	}

	judge, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	messageID := c.Params("id")

	created, consensus, err := s.submitRating(messageID, judge.ID, tier, req.Explanation)
	if err != nil {
		return fail(c, err)
	}

	if consensus != ConsensusPending {
		log.Printf("⚖️ [JUDGE] Message %s resolved: %s", messageID, consensus)
	}
	return ok(c, fiber.Map{"rating": created, "consensus": consensus})
}

// submitRating inserts one judge's verdict and, on the second rating of the
// message, applies the agreement ledger to both judges.
func (s *JudgeService) submitRating(messageID, judgeID string, tier models.RatingTier, explanation *string) (models.JudgeRating, string, error) {
	var (
		created   models.JudgeRating
		consensus string
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var message models.Message
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", messageID).First(&message).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}

		var match models.Match
		if err := tx.Where("id = ?", message.MatchID).First(&match).Error; err != nil {
			return err
		}
		if !match.HasJudge(judgeID) {
			return ErrNotAJudge
		}

		var existing int64
		if err := tx.Model(&models.JudgeRating{}).
			Where("message_id = ? AND judge_id = ?", message.ID, judgeID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateRating
		}

		created = models.JudgeRating{
			ID:          uuid.NewString(),
			MessageID:   message.ID,
			JudgeID:     judgeID,
			Rating:      tier,
			Explanation: explanation,
			RatedAt:     time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		var ratings []models.JudgeRating
		if err := tx.Where("message_id = ?", message.ID).
			Order("rated_at ASC").
			Find(&ratings).Error; err != nil {
			return err
		}

		consensus = ConsensusState(ratings, message.ConsensusAt)
		if consensus == ConsensusPending || consensus == ConsensusResolved {
			return nil
		}

		agreed := consensus == ConsensusAgreed
		for _, r := range ratings[:2] {
			if err := applyJudgeRating(tx, r.JudgeID, agreed); err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&models.Message{}).
			Where("id = ?", message.ID).
			Update("consensus_at", &now).Error
	})
	if err != nil {
		return models.JudgeRating{}, "", err
	}
	return created, consensus, nil
}

// applyJudgeRating moves one judge's rating and counters for a resolved
// message pair.
func applyJudgeRating(tx *gorm.DB, judgeID string, agreed bool) error {
	var judge models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", judgeID).First(&judge).Error; err != nil {
		return err
	}

	next := JudgeEloAfter(judge.JudgeElo, agreed)
	updates := map[string]interface{}{
		"judge_elo":           next,
		"peak_judge_elo":      PeakAfter(judge.PeakJudgeElo, next),
		"total_judge_matches": gorm.Expr("total_judge_matches + 1"),
	}
	if agreed {
		updates["judge_agreements"] = gorm.Expr("judge_agreements + 1")
	} else {
		updates["judge_disagreements"] = gorm.Expr("judge_disagreements + 1")
	}
	return tx.Model(&models.User{}).Where("id = ?", judgeID).Updates(updates).Error
}
