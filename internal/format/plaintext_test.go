package format

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"markdown bold", "**Team List**", "Team List"},
		{"backticks", "use `/help` to start", "use /help to start"},
		{"html tags", "<b>Squad</b> selected", "Squad selected"},
		{"html entities", "Smith &amp; Sons FC", "Smith & Sons FC"},
		{"emphasis underscores", "this is _important_ news", "this is important news"},
		{"identifier underscores kept", "update emergency_contact to Jane", "update emergency_contact to Jane"},
		{"heading hashes", "# Players\n- Mo", "Players\n- Mo"},
		{"space runs", "a   lot\t\tof   space", "a lot of space"},
		{"blank line runs", "one\n\n\n\ntwo", "one\n\ntwo"},
		{"trim", "  padded  \n", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeLeavesNoMarkupTokens(t *testing.T) {
	out := Sanitize("**bold** _it_ `code` <i>html</i> &lt;escaped&gt; # heading")
	for _, tok := range []string{"*", "`", "<i>", "&lt;", "#"} {
		if strings.Contains(out, tok) {
			t.Errorf("output %q still contains %q", out, tok)
		}
	}
}
