package handlers

import (
	"message-duel-system/middleware"
	"message-duel-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQueueRoutes(app *fiber.App, queueService *services.QueueService) {
	secured := app.Group("/queue", middleware.UserContextMiddleware())

	secured.Post("/join", queueService.JoinQueue)
	secured.Post("/leave", queueService.LeaveQueue)
	secured.Get("/status", queueService.QueueStatus) // poll endpoint — re-runs the matcher
}
