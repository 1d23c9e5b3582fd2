package invite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// Invite links look like:
//
//	<base>?invite=<uuid>&type=player&chat=<chat_id>&team=<team_id>&sig=<hmac>
//
// The signature covers every other parameter so a link cannot be replayed
// against another team or chat by editing the query string.

var uuidRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

func sign(secret []byte, inviteID, subjectKind, chatID, teamID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(inviteID + "|" + subjectKind + "|" + chatID + "|" + teamID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

func buildURL(base string, secret []byte, inviteID, subjectKind, chatID, teamID string) string {
	q := url.Values{}
	q.Set("invite", inviteID)
	q.Set("type", subjectKind)
	q.Set("chat", chatID)
	q.Set("team", teamID)
	q.Set("sig", sign(secret, inviteID, subjectKind, chatID, teamID))
	return base + "?" + q.Encode()
}

// ExtractToken finds an invite id in free message text. It accepts a full
// invite link (signature verified against the secret) or a bare UUID pasted
// on its own, which is verified against storage instead.
func ExtractToken(secret []byte, text string) (inviteID string, ok bool) {
	for _, field := range strings.Fields(text) {
		if u, err := url.Parse(field); err == nil && u.RawQuery != "" {
			q := u.Query()
			id := q.Get("invite")
			if id == "" {
				continue
			}
			want := sign(secret, id, q.Get("type"), q.Get("chat"), q.Get("team"))
			if hmac.Equal([]byte(want), []byte(q.Get("sig"))) {
				return id, true
			}
			// A tampered link is treated as no token at all.
			return "", false
		}
	}
	if m := uuidRe.FindString(text); m != "" {
		return strings.ToLower(m), true
	}
	return "", false
}
