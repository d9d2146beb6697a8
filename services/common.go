package services

import (
	"errors"
	"log"

	"message-duel-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// currentUser resolves the authenticated user from the gateway-provided
// identity (set by middleware as "user_id", the identity provider's external
// id) to a local users row.
func currentUser(db *gorm.DB, c *fiber.Ctx) (*models.User, error) {
	externalID, _ := c.Locals("user_id").(string)
	if externalID == "" {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := db.Where("external_user_id = ?", externalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// statusFor maps a domain error onto an HTTP status. Anything unrecognized
// is treated as a storage fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrMessageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAlreadyInMatch),
		errors.Is(err, ErrMatchNotActive),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrDuplicateRating),
		errors.Is(err, ErrNotAJudge),
		errors.Is(err, ErrNotAPlayer):
		return fiber.StatusConflict
	case errors.Is(err, ErrTimeExpired):
		return fiber.StatusGone
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrInvalidTier),
		errors.Is(err, ErrInvalidRole):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the uniform {"success": false, "error": ...} envelope. Storage
// faults are logged and masked with a generic message.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [%s %s] internal error: %v", c.Method(), c.Path(), err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// ok writes the uniform success envelope with payload merged in.
func ok(c *fiber.Ctx, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(body)
}
