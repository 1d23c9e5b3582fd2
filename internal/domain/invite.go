package domain

import "time"

// Invite is a single-use token that binds a pending player or member to a
// Telegram identity on first use. Invites are retained after redemption or
// expiry for audit.
type Invite struct {
	InviteID    string      `bson:"invite_id" json:"invite_id"` // UUIDv4
	TeamID      string      `bson:"team_id" json:"team_id"`
	ChatKind    ChatKind    `bson:"chat_kind" json:"chat_kind"`
	SubjectKind SubjectKind `bson:"subject_kind" json:"subject_kind"`
	SubjectID   string      `bson:"subject_id" json:"subject_id"` // player_id or member_id
	IssuerID    string      `bson:"issuer_id" json:"issuer_id"`   // member_id of the issuing admin
	IssuedAt    time.Time   `bson:"issued_at" json:"issued_at"`
	ExpiresAt   time.Time   `bson:"expires_at" json:"expires_at"`
	UsedAt      *time.Time  `bson:"used_at,omitempty" json:"used_at,omitempty"`
}

// Expired reports whether the invite is past its TTL at the given instant.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Used reports whether the invite has been redeemed.
func (i *Invite) Used() bool {
	return i.UsedAt != nil
}
