package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pagfox/pagfox/app/controllers"
	"github.com/pagfox/pagfox/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")

	v1.Get("/health", controllers.HandleHealth)

	// Provider callbacks carry no merchant credentials; correlation happens
	// in the processing pipeline.
	v1.Post("/webhooks/:subacquirer/:kind", controllers.HandleIncomingWebhook)

	// Merchant-facing transaction routes
	protected := v1.Group("", middleware.APIKeyAuthMiddleware())
	protected.Post("/pix", controllers.HandleCreateDeposit)
	protected.Get("/pix/:id", controllers.HandleGetDeposit)
	protected.Post("/withdraw", controllers.HandleCreatePayout)
	protected.Get("/withdraw/:id", controllers.HandleGetPayout)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
