package domain

import "time"

// MatchStatus is the lifecycle of a fixture.
type MatchStatus string

const (
	MatchScheduled     MatchStatus = "scheduled"
	MatchSquadSelected MatchStatus = "squad_selected"
	MatchPlayed        MatchStatus = "played"
	MatchCancelled     MatchStatus = "cancelled"
)

// Match is a scheduled fixture for a team.
type Match struct {
	TeamID    string      `bson:"team_id" json:"team_id"`
	MatchID   string      `bson:"match_id" json:"match_id"` // e.g. "M01"
	Opponent  string      `bson:"opponent" json:"opponent"`
	KickoffAt time.Time   `bson:"kickoff_at" json:"kickoff_at"`
	Venue     string      `bson:"venue" json:"venue"`
	Status    MatchStatus `bson:"status" json:"status"`
	Squad     []string    `bson:"squad,omitempty" json:"squad,omitempty"` // selected player_ids
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}

// AvailabilityStatus is a player's declared availability for a match.
type AvailabilityStatus string

const (
	Available   AvailabilityStatus = "available"
	Unavailable AvailabilityStatus = "unavailable"
	Maybe       AvailabilityStatus = "maybe"
)

// Availability records one player's availability for one match.
type Availability struct {
	TeamID    string             `bson:"team_id" json:"team_id"`
	MatchID   string             `bson:"match_id" json:"match_id"`
	PlayerID  string             `bson:"player_id" json:"player_id"`
	Status    AvailabilityStatus `bson:"status" json:"status"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
