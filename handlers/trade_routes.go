// handlers/trade_routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTradeRoutes(trades fiber.Router, tradeService *services.TradeService, verificationService *services.VerificationService) {
	// Called when the seller accepts an offer; the caller is the seller.
	trades.Post("/", func(c *fiber.Ctx) error {
		var req services.TradeInput
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		req.SellerID = middleware.UserID(c)

		trade, err := tradeService.CreateTrade(c.UserContext(), req)
		if err != nil {
			return sendError(c, err, "failed to create trade")
		}
		return c.Status(fiber.StatusCreated).JSON(trade)
	})

	// The buyer asks for a QR code to show the seller. A second call regenerates it.
	trades.Post("/:id/verification", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		trade, err := tradeService.GetTrade(c.UserContext(), c.Params("id"))
		if err != nil {
			return sendError(c, err, "failed to load trade")
		}
		if trade.BuyerID != userID {
			return sendError(c, services.ErrBuyerMismatch, "")
		}

		v, err := verificationService.GenerateVerificationCode(c.UserContext(), trade.ID, userID)
		if err != nil {
			return sendError(c, err, "failed to generate verification code")
		}
		return c.JSON(fiber.Map{
			"trade_id":   v.TradeID,
			"buyer_id":   v.BuyerID,
			"timestamp":  v.Timestamp,
			"hash":       v.Hash,
			"code":       v.Code,
			"expires_at": v.ExpiresAt,
		})
	})

	// The seller submits the scanned code.
	trades.Post("/verify", func(c *fiber.Ctx) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}

		result, err := verificationService.VerifyCode(c.UserContext(), req.Code, middleware.UserID(c))
		if err != nil {
			status := statusFor(err)
			body := fiber.Map{"valid": false, "error": err.Error()}
			if status == fiber.StatusInternalServerError {
				body["error"] = "Verification failed: " + err.Error()
			}
			return c.Status(status).JSON(body)
		}
		return c.JSON(result)
	})

	trades.Post("/:id/complete", func(c *fiber.Ctx) error {
		result, err := tradeService.CompleteTrade(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to complete trade")
		}
		return c.JSON(result)
	})
}
