// Package telegram delivers payment notices to operators and paying users,
// and answers Telegram Stars pre-checkout queries.
package telegram

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

type Bot struct {
	bot             *tele.Bot
	operatorChatIDs []int64
	log             *zap.Logger
}

func NewBot(cfg config.TelegramConfig, log *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		bot:             bot,
		operatorChatIDs: cfg.OperatorChatIDs,
		log:             log,
	}, nil
}

// NotifyOperators reports a settled payment to every operator chat.
func (b *Bot) NotifyOperators(payment *model.Payment, user *model.User, tariff *model.Tariff, isTopUp bool) {
	var text string
	if isTopUp {
		text = fmt.Sprintf("💰 Balance top-up\nUser: %d\nOrder: %s\nAmount: %s %s",
			user.ID, payment.OrderID, payment.Amount.String(), payment.Currency)
	} else {
		name := ""
		if tariff != nil {
			name = tariff.Name
		}
		text = fmt.Sprintf("✅ Tariff purchase\nUser: %d\nOrder: %s\nTariff: %s\nAmount: %s %s",
			user.ID, payment.OrderID, name, payment.Amount.String(), payment.Currency)
	}

	for _, chatID := range b.operatorChatIDs {
		if _, err := b.bot.Send(tele.ChatID(chatID), text); err != nil {
			b.log.Warn("operator notification failed",
				zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// NotifyUser tells the paying user how their payment ended up. Users without
// a linked Telegram account are skipped.
func (b *Bot) NotifyUser(user *model.User, success bool, tariffName string, isTopUp bool, orderID string) {
	if user.TelegramID == nil {
		return
	}

	var text string
	switch {
	case !success:
		text = fmt.Sprintf("❌ Payment %s could not be processed. Support has been notified.", orderID)
	case isTopUp:
		text = "✅ Your balance has been topped up."
	default:
		text = fmt.Sprintf("✅ Subscription «%s» is active. Enjoy!", tariffName)
	}

	if _, err := b.bot.Send(tele.ChatID(*user.TelegramID), text); err != nil {
		b.log.Warn("user notification failed",
			zap.Int64("telegram_id", *user.TelegramID), zap.Error(err))
	}
}

// AnswerPreCheckout confirms or declines a Stars pre-checkout query.
// Telegram cancels the payment if nothing answers within ten seconds.
func (b *Bot) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	params := map[string]interface{}{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok && errorMessage != "" {
		params["error_message"] = errorMessage
	}
	_, err := b.bot.Raw("answerPreCheckoutQuery", params)
	return err
}
