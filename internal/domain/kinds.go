package domain

// ChatKind distinguishes the two chats a team owns.
type ChatKind string

const (
	ChatMain       ChatKind = "main"
	ChatLeadership ChatKind = "leadership"
)

// Valid reports whether the chat kind is one of the two known values.
func (k ChatKind) Valid() bool {
	return k == ChatMain || k == ChatLeadership
}

// Status is the lifecycle state shared by players and members.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// SubjectKind identifies what an invite promotes.
type SubjectKind string

const (
	SubjectPlayer SubjectKind = "player"
	SubjectMember SubjectKind = "member"
)

// Classification is the transient role of a sender for one update.
// It is chat-dependent: the same person is a player in the main chat and a
// leader or admin in the leadership chat.
type Classification string

const (
	ClassUnregistered Classification = "unregistered"
	ClassPlayer       Classification = "player"
	ClassMember       Classification = "member"
	ClassLeader       Classification = "leader"
	ClassAdmin        Classification = "admin"
)

// Permission is the access level a command requires.
type Permission string

const (
	PermPublic Permission = "public"
	PermPlayer Permission = "player"
	PermLeader Permission = "leader"
	PermAdmin  Permission = "admin"
)

// ChatScope restricts where a command is visible and executable.
type ChatScope string

const (
	ScopeMainOnly       ChatScope = "main_only"
	ScopeLeadershipOnly ChatScope = "leadership_only"
	ScopeAny            ChatScope = "any"
)

// Admits reports whether the scope allows execution in the given chat.
func (s ChatScope) Admits(kind ChatKind) bool {
	switch s {
	case ScopeMainOnly:
		return kind == ChatMain
	case ScopeLeadershipOnly:
		return kind == ChatLeadership
	default:
		return true
	}
}

// Position is a player's field position.
type Position string

const (
	PositionGoalkeeper Position = "goalkeeper"
	PositionDefender   Position = "defender"
	PositionMidfielder Position = "midfielder"
	PositionForward    Position = "forward"
	PositionUtility    Position = "utility"
	PositionWinger     Position = "winger"
	PositionStriker    Position = "striker"
)

var positions = map[Position]bool{
	PositionGoalkeeper: true,
	PositionDefender:   true,
	PositionMidfielder: true,
	PositionForward:    true,
	PositionUtility:    true,
	PositionWinger:     true,
	PositionStriker:    true,
}

// ParsePosition validates a position string (case-insensitive handled by caller).
func ParsePosition(s string) (Position, bool) {
	p := Position(s)
	return p, positions[p]
}

// Positions returns all valid positions, for help text and validation messages.
func Positions() []Position {
	return []Position{
		PositionGoalkeeper, PositionDefender, PositionMidfielder,
		PositionForward, PositionUtility, PositionWinger, PositionStriker,
	}
}
