// Package telegram pushes offer-event notices to an operations channel.
// Delivery is best effort: a failed notice is logged and dropped, it never
// blocks or fails the mutation that triggered it.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alacritas/backend/internal/models"
)

type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier connects the bot. An empty token yields a nil notifier, which
// every method tolerates.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// OfferEvent announces a completed lifecycle transition.
func (n *Notifier) OfferEvent(o models.Offer, actorID string) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("Offer %d on request %d is now %s (by %s, amount %s)",
		o.ID, o.RequestID, o.Status, actorID, o.Amount)
	n.send(text)
}

// RequestDeleted announces a hard delete, since providers lose sight of the
// request without any tombstone.
func (n *Notifier) RequestDeleted(requestID int, actorID string) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf("Request %d deleted by %s", requestID, actorID))
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("telegram: notice dropped: %v", err)
	}
}
