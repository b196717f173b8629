package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pagfox/pagfox/internal/pkg/middleware"
	"github.com/pagfox/pagfox/internal/pkg/payments"
)

type createPayoutRequest struct {
	Amount   float64        `json:"amount" validate:"required,gt=0"`
	Bank     map[string]any `json:"bank" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

// HandleCreatePayout creates a withdrawal request for the authenticated
// merchant.
func HandleCreatePayout(c *fiber.Ctx) error {
	merchant := middleware.MerchantFromContext(c)
	if merchant == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing merchant context"})
	}

	var req createPayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	payout, err := paymentService.CreatePayout(c.UserContext(), merchant, payments.CreatePayoutInput{
		Amount:   decimal.NewFromFloat(req.Amount),
		Bank:     req.Bank,
		Metadata: req.Metadata,
	})
	if err != nil {
		if errors.Is(err, payments.ErrNoSubacquirer) || errors.Is(err, payments.ErrInvalidAmount) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unprocessable_entity", "message": err.Error()})
		}
		log.Errorf("[PayoutController] Create failed for merchant %d: %v", merchant.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create payout"})
	}

	return c.Status(fiber.StatusCreated).JSON(payout)
}

// HandleGetPayout returns one of the merchant's payouts by id.
func HandleGetPayout(c *fiber.Ctx) error {
	merchant := middleware.MerchantFromContext(c)
	if merchant == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing merchant context"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid payout id"})
	}

	payout, err := paymentService.GetPayout(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Payout not found"})
		}
		log.Errorf("[PayoutController] Lookup failed for payout %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payout"})
	}
	if payout.MerchantID != merchant.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Payout not found"})
	}

	return c.JSON(payout)
}
