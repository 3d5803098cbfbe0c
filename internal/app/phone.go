package app

import "strings"

const brazilCountryCode = "55"

// NormalizePhone keeps digits only and prefixes the Brazilian country code on
// 10/11-digit national numbers (DDD + 8 or 9 digits). It returns "" for anything
// that cannot be dialed.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	switch {
	case len(digits) < 10, len(digits) > 15:
		return ""
	case len(digits) <= 11:
		return brazilCountryCode + digits
	default:
		return digits
	}
}
