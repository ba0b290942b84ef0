// Package email holds helpers for working with account email addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayName derives a display name from the local part of an address:
// "jane.doe@example.com" becomes "Jane Doe". Addresses without a usable
// local part yield "User".
func DisplayName(address string) string {
	local, _, _ := strings.Cut(address, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
