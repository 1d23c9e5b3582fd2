package domain

import "time"

// Team is a tenant. It owns exactly two chats (main, leadership) and two bot
// credentials, one per chat.
type Team struct {
	TeamID             string    `bson:"team_id" json:"team_id" validate:"required"`
	Name               string    `bson:"name" json:"name"`
	MainChatID         string    `bson:"main_chat_id" json:"main_chat_id" validate:"required"`
	LeadershipChatID   string    `bson:"leadership_chat_id" json:"leadership_chat_id" validate:"required,nefield=MainChatID"`
	BotMainToken       string    `bson:"bot_main_token" json:"-" validate:"required"`
	BotLeadershipToken string    `bson:"bot_leadership_token" json:"-" validate:"required"`
	Disabled           bool      `bson:"disabled" json:"disabled"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// ChatID returns the chat id for the given kind.
func (t *Team) ChatID(kind ChatKind) string {
	if kind == ChatLeadership {
		return t.LeadershipChatID
	}
	return t.MainChatID
}

// BotToken returns the bot credential for the given chat kind.
func (t *Team) BotToken(kind ChatKind) string {
	if kind == ChatLeadership {
		return t.BotLeadershipToken
	}
	return t.BotMainToken
}
