package handlers

import (
	"message-duel-system/middleware"
	"message-duel-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupJudgeRoutes(app *fiber.App, judgeService *services.JudgeService) {
	secured := app.Group("/messages", middleware.UserContextMiddleware())

	secured.Post("/:id/ratings", judgeService.RateMessage)
}
