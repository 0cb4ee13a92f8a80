package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail trims surrounding whitespace and applies Unicode NFC so
// that visually identical addresses compare equal for the uniqueness check.
// Case is preserved.
func NormalizeEmail(email string) string {
	return norm.NFC.String(strings.TrimSpace(email))
}
