package domain

import (
	"regexp"
	"strings"

	"github.com/kickai-team/kickai/internal/errs"
)

// e164Pattern is the canonical E.164 shape: + followed by 8 to 15 digits,
// first digit non-zero.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// NormalizePhone strips common separators and validates the result against
// E.164. A leading "00" international prefix is rewritten to "+". Anything
// that does not normalize to international format is InvalidInput.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	if !e164Pattern.MatchString(cleaned) {
		return "", errs.E(errs.InvalidInput,
			"Phone number must be in international format, e.g. +447123456789.")
	}
	return cleaned, nil
}
