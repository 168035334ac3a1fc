package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/provider"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/service"
)

// Acknowledgement policy: providers retry on non-2xx, and there is nothing to
// retry toward when a payment is unknown or already settled. Most endpoints
// therefore always acknowledge; the two legacy form providers and the
// order-id JSON providers are the contractual exceptions.

// HeleketWebhook handles Heleket invoice callbacks.
func (h *Handler) HeleketWebhook(c *fiber.Ctx) error {
	ev, err := provider.ParseHeleket(c.Body())
	if err != nil {
		h.logMalformed("heleket", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": "Missing parameters",
		})
	}

	res := h.dispatcher.Process(c.Context(), ev)
	if res.Outcome == service.OutcomeNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "Payment not found",
		})
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// YooKassaProbe answers the availability check YooKassa performs with GET.
func (h *Handler) YooKassaProbe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "message": "YooKassa webhook is available"})
}

// YooKassaWebhook handles payment and refund notifications.
func (h *Handler) YooKassaWebhook(c *fiber.Ctx) error {
	ev, err := provider.ParseYooKassa(c.Body())
	if err != nil {
		h.logMalformed("yookassa", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": "Malformed notification",
		})
	}

	res := h.dispatcher.Process(c.Context(), ev)
	switch res.Outcome {
	case service.OutcomeNotFound:
		// Unknown refunds are acknowledged so YooKassa stops retrying;
		// unknown payments get the contractual 404.
		if ev.Status == provider.StatusRefunded {
			return c.JSON(fiber.Map{"status": "success", "message": "Refund processed (payment not found)"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "Payment not found",
		})
	case service.OutcomeAlreadyProcessed:
		return c.JSON(fiber.Map{"status": "success", "message": "Payment already processed"})
	default:
		return c.JSON(fiber.Map{"status": "success"})
	}
}

// TelegramWebhook handles Telegram Stars updates: pre-checkout queries get
// answered against ledger state, successful payments are dispatched. The
// chat-platform contract is an unconditional {"ok":true}.
func (h *Handler) TelegramWebhook(c *fiber.Ctx) error {
	update, err := provider.ParseTelegram(c.Body())
	if err != nil {
		h.logMalformed("telegram", err)
		return c.JSON(fiber.Map{"ok": true})
	}

	if update.PreCheckout != nil {
		h.answerPreCheckout(c, update.PreCheckout)
		return c.JSON(fiber.Map{"ok": true})
	}

	if update.Event != nil {
		h.dispatcher.Process(c.Context(), *update.Event)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) answerPreCheckout(c *fiber.Ctx, query *provider.PreCheckoutQuery) {
	if h.bot == nil {
		return
	}

	ok := false
	payment, err := h.dispatcher.Lookup(c.Context(), query.InvoicePayload, "")
	if err == nil && payment.Status == model.PaymentStatusPending {
		ok = true
	}

	errMsg := ""
	if !ok {
		errMsg = "Payment not found"
	}
	if err := h.bot.AnswerPreCheckout(query.ID, ok, errMsg); err != nil {
		h.log.Warn("pre-checkout answer failed",
			zap.String("query_id", query.ID), zap.Error(err))
	}
}

// FreeKassaWebhook handles the form-encoded FreeKassa result URL.
func (h *Handler) FreeKassaWebhook(c *fiber.Ctx) error {
	ev, err := provider.ParseFreeKassa(formValues(c))
	if err != nil {
		h.logMalformed("freekassa", err)
		return c.Status(fiber.StatusBadRequest).SendString("NO")
	}

	res := h.dispatcher.Process(c.Context(), ev)
	if res.Outcome == service.OutcomeNotFound {
		return c.Status(fiber.StatusNotFound).SendString("NO")
	}
	return c.SendString("YES")
}

// RobokassaWebhook handles the form-encoded Robokassa result URL. The success
// body must echo the invoice id.
func (h *Handler) RobokassaWebhook(c *fiber.Ctx) error {
	ev, err := provider.ParseRobokassa(formValues(c))
	if err != nil {
		h.logMalformed("robokassa", err)
		return c.Status(fiber.StatusBadRequest).SendString("NO")
	}

	res := h.dispatcher.Process(c.Context(), ev)
	if res.Outcome == service.OutcomeNotFound {
		return c.Status(fiber.StatusNotFound).SendString("NO")
	}
	return c.SendString("OK" + ev.OrderRef)
}

// CrystalPayWebhook handles CrystalPay callbacks; always acknowledged.
func (h *Handler) CrystalPayWebhook(c *fiber.Ctx) error {
	ev, err := provider.ParseCrystalPay(c.Body())
	if err != nil {
		h.logMalformed("crystalpay", err)
		return c.JSON(fiber.Map{"error": false})
	}

	h.dispatcher.Process(c.Context(), ev)
	return c.JSON(fiber.Map{"error": false})
}

// PlategaWebhook handles Platega callbacks. Platega requires 200 on every
// outcome, including provisioning failures; those land in the reconciliation
// log instead.
func (h *Handler) PlategaWebhook(c *fiber.Ctx) error {
	ev, err := h.platega.Normalize(c.Context(), c.Body())
	if err != nil {
		h.logMalformed("platega", err)
		return c.JSON(fiber.Map{"status": "ok"})
	}

	h.dispatcher.Process(c.Context(), ev)
	return c.JSON(fiber.Map{"status": "ok"})
}

// MulenPayWebhook handles MulenPay callbacks; always acknowledged.
func (h *Handler) MulenPayWebhook(c *fiber.Ctx) error {
	return h.genericJSONWebhook(c, "mulenpay", provider.ParseMulenPay)
}

// URLPayWebhook handles URLPay callbacks; always acknowledged.
func (h *Handler) URLPayWebhook(c *fiber.Ctx) error {
	return h.genericJSONWebhook(c, "urlpay", provider.ParseURLPay)
}

// TributeWebhook handles Tribute callbacks; always acknowledged.
func (h *Handler) TributeWebhook(c *fiber.Ctx) error {
	return h.genericJSONWebhook(c, "tribute", provider.ParseTribute)
}

// BTCPayServerWebhook handles BTCPayServer events; always acknowledged.
func (h *Handler) BTCPayServerWebhook(c *fiber.Ctx) error {
	return h.genericJSONWebhook(c, "btcpayserver", provider.ParseBTCPayServer)
}

// MonobankWebhook handles Monobank statement callbacks; always acknowledged.
func (h *Handler) MonobankWebhook(c *fiber.Ctx) error {
	return h.genericJSONWebhook(c, "monobank", provider.ParseMonobank)
}

func (h *Handler) genericJSONWebhook(c *fiber.Ctx, name string, parse func([]byte) (provider.PaymentEvent, error)) error {
	ev, err := parse(c.Body())
	if err != nil {
		h.logMalformed(name, err)
		return c.JSON(fiber.Map{})
	}

	h.dispatcher.Process(c.Context(), ev)
	return c.JSON(fiber.Map{})
}

// ProcessTelegramPayment is the internal bot-to-backend endpoint for Stars
// payments confirmed by the bot. Protected by middleware.InternalKey.
func (h *Handler) ProcessTelegramPayment(c *fiber.Ctx) error {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "message": "Missing order_id",
		})
	}

	ev := provider.PaymentEvent{
		Provider:      "telegram-internal",
		OrderRef:      req.OrderID,
		ProviderTxnID: req.OrderID,
		Status:        provider.StatusPaid,
	}

	res := h.dispatcher.Process(c.Context(), ev)
	switch res.Outcome {
	case service.OutcomeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false, "message": "Payment not found",
		})
	case service.OutcomeAlreadyProcessed:
		return c.JSON(fiber.Map{"success": true, "message": "Payment already processed"})
	case service.OutcomeRejected:
		return c.JSON(fiber.Map{"success": false, "message": "Invalid payment state"})
	case service.OutcomeTransitioned:
		if res.Err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false, "message": "Payment activation failed",
			})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Payment processed"})
	default:
		return c.JSON(fiber.Map{"success": false, "message": "Ignored"})
	}
}

func (h *Handler) logMalformed(providerName string, err error) {
	if errors.Is(err, provider.ErrMalformed) {
		h.log.Warn("malformed webhook payload", zap.String("provider", providerName))
		return
	}
	h.log.Warn("webhook parse failed", zap.String("provider", providerName), zap.Error(err))
}

// formValues merges POST form and query parameters; the legacy form
// providers call the result URL with either method.
func formValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		if values.Get(string(key)) == "" {
			values.Add(string(key), string(value))
		}
	})
	return values
}
