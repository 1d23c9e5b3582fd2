package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// PlayerCode builds a team-scoped short code from a creation ordinal and the
// player's name: ordinal 1 + "John Smith" → "01JS". Ordinals past 99 widen
// naturally ("100JS").
func PlayerCode(ordinal int, name string) string {
	return fmt.Sprintf("%02d%s", ordinal, initials(name))
}

// MemberCode is the member variant with an "M" prefix: "M01JK".
func MemberCode(ordinal int, name string) string {
	return "M" + PlayerCode(ordinal, name)
}

// MatchCode builds a match short code: "M01". Matches share the team scope
// with members but live in a separate collection, so the overlap is harmless.
func MatchCode(ordinal int) string {
	return fmt.Sprintf("M%02d", ordinal)
}

// initials extracts up to two uppercase initials from a full name.
// "Mohamed Salah" → "MS", "Ronaldinho" → "R", "" → "X".
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				out = append(out, unicode.ToUpper(r))
			}
			break
		}
		if len(out) >= 2 {
			break
		}
	}
	if len(out) == 0 {
		return "X"
	}
	return string(out)
}
