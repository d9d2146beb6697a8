package services

import (
	"message-duel-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserService exposes profiles and the two leaderboards.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// leaderboardRow is the public slice of a user row.
type leaderboardRow struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Elo          int    `json:"elo"`
	PeakElo      int    `json:"peak_elo"`
	TotalMatches int    `json:"total_matches"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`

	JudgeElo          int `json:"judge_elo"`
	PeakJudgeElo      int `json:"peak_judge_elo"`
	TotalJudgeMatches int `json:"total_judge_matches"`
	JudgeAgreements   int `json:"judge_agreements"`
}

// Me returns the caller's full profile.
func (s *UserService) Me(c *fiber.Ctx) error {
	user, err := currentUser(s.DB, c)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"user": user})
}

// PlayerLeaderboard returns the top users by player ELO.
func (s *UserService) PlayerLeaderboard(c *fiber.Ctx) error {
	return s.leaderboard(c, "elo")
}

// JudgeLeaderboard returns the top users by judge ELO.
func (s *UserService) JudgeLeaderboard(c *fiber.Ctx) error {
	return s.leaderboard(c, "judge_elo")
}

func (s *UserService) leaderboard(c *fiber.Ctx, orderColumn string) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.User
	if err := s.DB.Order(orderColumn + " DESC").Limit(limit).Find(&users).Error; err != nil {
		return fail(c, err)
	}

	rows := make([]leaderboardRow, len(users))
	for i, u := range users {
		rows[i] = leaderboardRow{
			ID:                u.ID,
			Username:          u.Username,
			Elo:               u.Elo,
			PeakElo:           u.PeakElo,
			TotalMatches:      u.TotalMatches,
			Wins:              u.Wins,
			Losses:            u.Losses,
			JudgeElo:          u.JudgeElo,
			PeakJudgeElo:      u.PeakJudgeElo,
			TotalJudgeMatches: u.TotalJudgeMatches,
			JudgeAgreements:   u.JudgeAgreements,
		}
	}
	return ok(c, fiber.Map{"leaderboard": rows})
}
