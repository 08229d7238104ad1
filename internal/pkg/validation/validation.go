package validation

import (
	"regexp"
	"unicode"
)

// Account addresses are opaque identifiers: printable, no whitespace, bounded length.
var addressRe = regexp.MustCompile(`^[A-Za-z0-9:_\-.]{1,128}$`)

func IsValidAddress(addr string) bool {
	return addressRe.MatchString(addr)
}

// IsValidPassword requires:
// - at least 8 characters
// - at least one letter
// - at least one number
// - at least one special character
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
