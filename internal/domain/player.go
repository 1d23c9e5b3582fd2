package domain

import "time"

// Player belongs to one team. TelegramID stays nil until the player redeems
// an invite; an active player always has a non-nil TelegramID.
type Player struct {
	TeamID     string    `bson:"team_id" json:"team_id"`
	PlayerID   string    `bson:"player_id" json:"player_id"` // team-scoped short code, e.g. "01JS"
	TelegramID *int64    `bson:"telegram_id,omitempty" json:"telegram_id,omitempty"`
	Name       string    `bson:"name" json:"name"`
	Phone      string    `bson:"phone" json:"phone"` // E.164
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	Position   Position  `bson:"position" json:"position"`
	Status     Status    `bson:"status" json:"status"`

	EmergencyContact string `bson:"emergency_contact,omitempty" json:"emergency_contact,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Member is team staff (manager, coach, treasurer, ...). Role is free text;
// IsAdmin grants the admin permission tier.
type Member struct {
	TeamID     string    `bson:"team_id" json:"team_id"`
	MemberID   string    `bson:"member_id" json:"member_id"` // e.g. "M01JK"
	TelegramID *int64    `bson:"telegram_id,omitempty" json:"telegram_id,omitempty"`
	Name       string    `bson:"name" json:"name"`
	Phone      string    `bson:"phone" json:"phone"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	Role       string    `bson:"role" json:"role"`
	IsAdmin    bool      `bson:"is_admin" json:"is_admin"`
	Status     Status    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
