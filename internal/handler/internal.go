package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/repository"
)

// The bot records a PENDING order here before handing the user a payment
// link; the provider webhook later transitions it.
type createPaymentRequest struct {
	OrderID     string          `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TariffID    *uuid.UUID      `json:"tariff_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PromoCodeID *uuid.UUID      `json:"promo_code_id"`
}

// CreatePayment registers a PENDING payment. Tariff id is absent for balance
// top-ups. An attached promo code must still have uses left.
func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Invalid request body",
		})
	}
	if req.OrderID == "" || req.UserID == 0 || !req.Amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Missing order_id, user_id or amount",
		})
	}

	if req.PromoCodeID != nil {
		promo, err := h.store.GetPromoCode(c.Context(), *req.PromoCodeID)
		if err != nil {
			if errors.Is(err, repository.ErrPromoCodeNotFound) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false, "message": "Promo code not found",
				})
			}
			h.log.Error("promo code lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": "Internal error",
			})
		}
		if promo.UsesLeft <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false, "message": "Promo code has no uses left",
			})
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}
	payment := &model.Payment{
		OrderID:     req.OrderID,
		UserID:      req.UserID,
		TariffID:    req.TariffID,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      model.PaymentStatusPending,
		PromoCodeID: req.PromoCodeID,
	}
	if err := h.store.CreatePayment(c.Context(), payment); err != nil {
		h.log.Error("payment create failed",
			zap.String("order_id", req.OrderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Failed to create payment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true, "data": payment,
	})
}

// ListTariffs returns the purchasable tariffs for the bot's menus.
func (h *Handler) ListTariffs(c *fiber.Ctx) error {
	tariffs, err := h.store.ListActiveTariffs(c.Context())
	if err != nil {
		h.log.Error("tariff list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Internal error",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": tariffs})
}

// BalanceTransactions returns a user's balance history, newest first.
func (h *Handler) BalanceTransactions(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Invalid user id",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.store.GetBalanceTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("balance transactions lookup failed",
			zap.Int64("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "message": "Internal error",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": transactions})
}
