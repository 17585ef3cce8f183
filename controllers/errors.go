package controller

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"telereach/utils"
)

// rawOrEmpty guards against empty upstream bodies ending up as invalid JSON.
func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}

// upstreamErrorResponse maps a sending-service failure onto the response:
// the upstream status and body pass through when present, an unreachable
// service becomes a plain 500.
func upstreamErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	utils.ReportError(err)

	var ue *utils.UpstreamError
	if errors.As(err, &ue) {
		if ue.StatusCode > 0 {
			details := json.RawMessage(ue.Details)
			if len(details) == 0 {
				details = json.RawMessage(`{}`)
			}
			return c.Status(ue.StatusCode).JSON(fiber.Map{
				"error":   "python error",
				"details": details,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "api request failed",
			"details": ue.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}
