package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/app/repository"
	"github.com/pagfox/pagfox/internal/pkg/database"
)

// MerchantLocalKey is the fiber locals key the authenticated merchant is
// stored under.
const MerchantLocalKey = "MERCHANT"

// APIKeyAuthMiddleware authenticates requests carrying a merchant API key header.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		db := database.GetDB()
		if db == nil {
			log.Print("api key middleware: database unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
		}

		hash := models.HashAPIKey(apiKey)
		repo := repository.GetGlobalFactory().GetMerchantRepository()
		merchant, err := repo.GetByAPIKeyHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			log.Printf("api key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		if merchant.Status != models.MerchantStatusActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Merchant disabled"})
		}

		c.Locals(MerchantLocalKey, merchant)

		return c.Next()
	}
}

// MerchantFromContext returns the merchant the API key middleware resolved,
// or nil off protected routes.
func MerchantFromContext(c *fiber.Ctx) *models.Merchant {
	merchant, _ := c.Locals(MerchantLocalKey).(*models.Merchant)
	return merchant
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
