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

type createDepositRequest struct {
	Amount    float64        `json:"amount" validate:"required,gt=0"`
	Reference string         `json:"reference" validate:"omitempty,max=100"`
	Metadata  map[string]any `json:"metadata"`
}

// HandleCreateDeposit creates an instant-transfer collection request for
// the authenticated merchant.
func HandleCreateDeposit(c *fiber.Ctx) error {
	merchant := middleware.MerchantFromContext(c)
	if merchant == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing merchant context"})
	}

	var req createDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	deposit, err := paymentService.CreateDeposit(c.UserContext(), merchant, payments.CreateDepositInput{
		Amount:    decimal.NewFromFloat(req.Amount),
		Reference: req.Reference,
		Metadata:  req.Metadata,
	})
	if err != nil {
		if errors.Is(err, payments.ErrNoSubacquirer) || errors.Is(err, payments.ErrInvalidAmount) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unprocessable_entity", "message": err.Error()})
		}
		log.Errorf("[DepositController] Create failed for merchant %d: %v", merchant.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create deposit"})
	}

	return c.Status(fiber.StatusCreated).JSON(deposit)
}

// HandleGetDeposit returns one of the merchant's deposits by id.
func HandleGetDeposit(c *fiber.Ctx) error {
	merchant := middleware.MerchantFromContext(c)
	if merchant == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing merchant context"})
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid deposit id"})
	}

	deposit, err := paymentService.GetDeposit(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Deposit not found"})
		}
		log.Errorf("[DepositController] Lookup failed for deposit %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load deposit"})
	}
	// other merchants' rows stay invisible
	if deposit.MerchantID != merchant.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Deposit not found"})
	}

	return c.JSON(deposit)
}
