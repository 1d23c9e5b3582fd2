// Package format turns internal replies into the plain text that goes to
// Telegram. The plain-text policy is absolute: no parse mode is ever enabled
// on the transport, and this package strips whatever markup a model or tool
// message smuggled in.
package format

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>\n]+>`)
	// Emphasis underscores sit at word edges; underscores inside identifiers
	// like emergency_contact stay.
	edgeUnderscoreRe = regexp.MustCompile(`(^|[\s])_+|_+([\s]|$)`)
	spaceRunRe       = regexp.MustCompile(`[ \t]+`)
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips markup and normalizes whitespace. Newlines survive; runs
// of blank lines collapse to one.
func Sanitize(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "`", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "#", "")
	s = edgeUnderscoreRe.ReplaceAllString(s, "$1$2")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRunRe.ReplaceAllString(line, " "), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
