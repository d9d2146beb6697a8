package handlers

import (
	"message-duel-system/middleware"
	"message-duel-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	secured := app.Group("/matches", middleware.UserContextMiddleware())

	secured.Get("/active", matchService.ActiveMatch)
	secured.Get("/recent", matchService.RecentMatches)
	secured.Get("/:id", matchService.GetMatch)
	secured.Get("/:id/messages", matchService.GetMessages)

	secured.Post("/:id/messages", matchService.SendMessage)
	secured.Post("/:id/forfeit", matchService.Forfeit)
	secured.Post("/:id/end", matchService.EndMatch)
}
