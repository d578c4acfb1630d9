package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "GB"

// NormalizePhone parses a customer phone number and renders it in E.164.
// Numbers without a country prefix are interpreted in the default region.
// Returns the trimmed input unchanged when it cannot be parsed; the
// validators decide whether that is acceptable.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, defaultPhoneRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// IsValidPhone reports whether the value parses as a real phone number.
func IsValidPhone(phone string) bool {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(phone), defaultPhoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}
