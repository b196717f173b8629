package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/pagfox/pagfox/app/models"
)

// HandleIncomingWebhook accepts a provider delivery and schedules it for
// asynchronous processing. The provider gets its 202 as soon as the job is
// queued; parsing and reconciliation happen on the worker side.
func HandleIncomingWebhook(c *fiber.Ctx) error {
	subacquirer := c.Params("subacquirer")
	kind := c.Params("kind")
	if !models.IsKnownWebhookKind(kind) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown webhook kind"})
	}

	var payload map[string]any
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	if err := webhookQueue.EnqueueWebhook(payload, subacquirer, kind, 0); err != nil {
		log.Errorf("[WebhookController] Failed to queue %s/%s delivery: %v", subacquirer, kind, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to queue webhook"})
	}

	log.Infof("[WebhookController] Queued %s/%s delivery", subacquirer, kind)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": true})
}
