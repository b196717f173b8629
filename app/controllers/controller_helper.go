package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/internal/pkg/payments"
)

// PaymentService is the slice of the payment core the HTTP layer needs.
type PaymentService interface {
	CreateDeposit(ctx context.Context, merchant *models.Merchant, in payments.CreateDepositInput) (*models.Deposit, error)
	CreatePayout(ctx context.Context, merchant *models.Merchant, in payments.CreatePayoutInput) (*models.Payout, error)
	GetDeposit(id uint) (*models.Deposit, error)
	GetPayout(id uint) (*models.Payout, error)
}

// WebhookEnqueuer schedules inbound deliveries for asynchronous processing.
type WebhookEnqueuer interface {
	EnqueueWebhook(payload map[string]any, subacquirer, kind string, delay time.Duration) error
}

var (
	paymentService PaymentService
	webhookQueue   WebhookEnqueuer

	validate = validator.New()
)

// InitializePaymentControllers wires the handlers' collaborators. Must run
// before the router installs any payment route.
func InitializePaymentControllers(svc PaymentService, queue WebhookEnqueuer) {
	paymentService = svc
	webhookQueue = queue
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":   "validation_failed",
		"message": err.Error(),
	})
}
