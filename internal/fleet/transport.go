package fleet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Update is one raw message as seen by a bot, before the routing table has
// resolved it to a team.
type Update struct {
	ChatID     string
	TelegramID int64
	Username   string
	Name       string
	Text       string
	MessageID  int
}

// Transport is one bot credential's connection to Telegram. Start begins
// long polling; the returned channel closes when the connection drops or the
// context is cancelled.
type Transport interface {
	Start(ctx context.Context) (<-chan Update, error)
	Send(ctx context.Context, chatID, text string) error
}

// TransportFactory builds a Transport for one bot token. Tests substitute a
// fake; production uses NewTelegoTransport.
type TransportFactory func(token string) (Transport, error)

type telegoTransport struct {
	bot *telego.Bot
}

// NewTelegoTransport connects one bot token via the Telegram Bot API.
func NewTelegoTransport(token string) (Transport, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &telegoTransport{bot: bot}, nil
}

func (t *telegoTransport) Start(ctx context.Context) (<-chan Update, error) {
	updates, err := t.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}

	out := make(chan Update)
	go func() {
		defer close(out)
		for update := range updates {
			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}
			u := Update{
				ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
				TelegramID: msg.From.ID,
				Username:   msg.From.Username,
				Name:       strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
				Text:       msg.Text,
				MessageID:  msg.MessageID,
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Send delivers plain text. No parse mode is ever set; replies have already
// been through the sanitizer and markup must not be reinterpreted.
func (t *telegoTransport) Send(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q: %w", chatID, err)
	}
	if _, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(id), text)); err != nil {
		return fmt.Errorf("send to %s: %w", chatID, err)
	}
	return nil
}
