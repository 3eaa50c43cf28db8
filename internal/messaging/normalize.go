package messaging

import "strings"

// NormalizePhone strips formatting characters from a phone number and keeps a
// single leading +. "00" international prefixes become +. The result is close
// to E.164 but not validated against country numbering plans; Twilio rejects
// numbers it cannot route and that failure is recorded in the message log.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}
