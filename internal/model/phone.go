package model

import "strings"

// NormalizePhone reduces a raw phone value to bare digits and rewrites
// Russian domestic formats onto the country code: an 11-digit number led by
// the trunk "8" becomes "7" plus the rest, and a bare 10-digit subscriber
// number gets "7" prepended. Anything else passes through digits-only, so
// the function is total and idempotent.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && digits[0] == '8':
		return "7" + digits[1:]
	case len(digits) == 10:
		return "7" + digits
	default:
		return digits
	}
}
