package phone

import "strings"

// defaultCountryCode is prepended to bare 10-digit subscriber numbers.
const defaultCountryCode = "91"

// Normalize reduces any phone representation (WhatsApp "whatsapp:+91...",
// E.164, local format with a trunk zero) to a canonical digit string with
// country code. The function is idempotent: Normalize(Normalize(p)) == Normalize(p).
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	clean = strings.TrimLeft(clean, "0")
	if len(clean) == 10 {
		clean = defaultCountryCode + clean
	}
	return clean
}

// ToE164 returns the number in E.164 form ("+" plus digits), or "" if the
// normalized number is not plausible.
func ToE164(raw string) string {
	n := Normalize(raw)
	if !IsE164("+" + n) {
		return ""
	}
	return "+" + n
}

// IsE164 reports whether s is "+" followed by 10 to 15 digits.
func IsE164(s string) bool {
	if !strings.HasPrefix(s, "+") {
		return false
	}
	digits := s[1:]
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
