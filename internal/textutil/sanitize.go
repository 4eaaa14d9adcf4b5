package textutil

import "strings"

// Truncate collapses whitespace and shortens text to at most limit runes,
// ending with an ellipsis when cut. A limit <= 0 only collapses whitespace.
func Truncate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit-1]), " ") + "…"
}

// SanitizeToken converts a string to a lowercase filesystem-safe token of at
// most maxLen bytes (no limit when maxLen <= 0). ASCII letters and digits are
// kept, every other run of characters collapses into one hyphen. Returns
// "untitled" for input with nothing usable.
func SanitizeToken(value string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := b.String()
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	out = strings.Trim(out, "-")
	if out == "" {
		return "untitled"
	}
	return out
}
