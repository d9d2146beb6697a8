package handlers

import (
	"message-duel-system/middleware"
	"message-duel-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	// 🔓 Public leaderboards
	app.Get("/leaderboard/players", userService.PlayerLeaderboard)
	app.Get("/leaderboard/judges", userService.JudgeLeaderboard)

	// 🔐 Authenticated profile
	secured := app.Group("/users", middleware.UserContextMiddleware())
	secured.Get("/me", userService.Me)
}
