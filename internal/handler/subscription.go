package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/repository"
)

// LiveSubscription serves cached panel state for one subscriber. Used by the
// bot to render subscription screens without hammering the panel API.
func (h *Handler) LiveSubscription(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	if uuid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Missing uuid",
		})
	}

	data, err := h.live.GetLiveData(c.Context(), uuid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, remnawave.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false, "message": "User not found",
			})
		}
		h.log.Error("live data fetch failed", zap.String("uuid", uuid), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false, "message": "Panel unavailable",
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}
