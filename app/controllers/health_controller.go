package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pagfox/pagfox/internal/pkg/cache"
	"github.com/pagfox/pagfox/internal/pkg/database"
)

// HandleHealth reports liveness of the service and its two backing stores.
func HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	db := database.GetDB()
	if db == nil {
		dbStatus = "down"
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "down"
	}

	cacheStatus := "up"
	if err := cache.GetClient().Ping(ctx).Err(); err != nil {
		cacheStatus = "down"
	}

	status := fiber.StatusOK
	overall := "ok"
	if dbStatus != "up" || cacheStatus != "up" {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
