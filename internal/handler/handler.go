package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/provider"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/service"
)

// PreCheckoutAnswerer answers Telegram Stars pre-checkout queries.
// Implemented by telegram.Bot; nil when no bot is configured.
type PreCheckoutAnswerer interface {
	AnswerPreCheckout(queryID string, ok bool, errorMessage string) error
}

// Store is the repository slice the handlers touch directly: the bot-facing
// internal endpoints and the health probe. Implemented by
// *repository.Repository.
type Store interface {
	Ping(ctx context.Context) error
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPromoCode(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	ListActiveTariffs(ctx context.Context) ([]model.Tariff, error)
	GetBalanceTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error)
}

type Handler struct {
	cfg        *config.Config
	store      Store
	dispatcher *service.Dispatcher
	platega    *provider.Platega
	live       *service.LiveService
	bot        PreCheckoutAnswerer
	log        *zap.Logger
}

func New(
	cfg *config.Config,
	store Store,
	dispatcher *service.Dispatcher,
	platega *provider.Platega,
	live *service.LiveService,
	bot PreCheckoutAnswerer,
	log *zap.Logger,
) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		platega:    platega,
		live:       live,
		bot:        bot,
		log:        log,
	}
}

// Health reports liveness including database reachability.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.store.Ping(c.Context()); err != nil {
		h.log.Error("health check: database unreachable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
