// handlers/errors.go
package handlers

import (
	"errors"

	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrProfileNotFound, fiber.StatusNotFound},
	{services.ErrMissionNotFound, fiber.StatusNotFound},
	{services.ErrTradeNotFound, fiber.StatusNotFound},
	{services.ErrNotTradeSeller, fiber.StatusForbidden},
	{services.ErrBuyerMismatch, fiber.StatusForbidden},
	{services.ErrMissionAutoTracked, fiber.StatusForbidden},
	{services.ErrRewardNotFound, fiber.StatusNotFound},
	{services.ErrMissionNotCompleted, fiber.StatusConflict},
	{services.ErrRewardClaimed, fiber.StatusConflict},
	{services.ErrTradeNotVerified, fiber.StatusConflict},
	{services.ErrTradeClosed, fiber.StatusConflict},
	{services.ErrCodeSuperseded, fiber.StatusConflict},
	{services.ErrInsufficientCoins, fiber.StatusConflict},
	{services.ErrRewardUnavailable, fiber.StatusConflict},
	{services.ErrRewardRedeemed, fiber.StatusConflict},
	{services.ErrCodeExpired, fiber.StatusGone},
	{services.ErrInvalidIncrement, fiber.StatusBadRequest},
	{services.ErrInvalidSortField, fiber.StatusBadRequest},
	{services.ErrInvalidActivity, fiber.StatusBadRequest},
	{services.ErrInvalidCodeFormat, fiber.StatusBadRequest},
	{services.ErrHashMismatch, fiber.StatusBadRequest},
	{services.ErrInvalidTradeParty, fiber.StatusBadRequest},
	{services.ErrInvalidImage, fiber.StatusBadRequest},
}

// statusFor maps a service error to its HTTP status; unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// sendError writes {"error": reason} for expected failures and
// {"error": msg, "cause": ...} for everything else.
func sendError(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{
			"error": msg,
			"cause": err.Error(),
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid JSON",
		"cause": err.Error(),
	})
}
