// Package bus defines the message value passed from the fleet manager to the
// orchestrator. The fleet translates raw Telegram updates into InboundMessage
// values; replies travel back as plain text on the same chat.
package bus

import (
	"time"

	"github.com/kickai-team/kickai/internal/domain"
)

// InboundMessage is one user update, already resolved to a team and chat kind
// by the fleet routing table.
type InboundMessage struct {
	TeamID     string          `json:"team_id"`
	ChatKind   domain.ChatKind `json:"chat_kind"`
	ChatID     string          `json:"chat_id"`
	TelegramID int64           `json:"telegram_id"`
	Username   string          `json:"username,omitempty"`
	Name       string          `json:"name,omitempty"` // sender display name
	Text       string          `json:"text"`
	MessageID  int             `json:"message_id"`
	ReceivedAt time.Time       `json:"received_at"`
}
