package schema

import (
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// FormatValidator checks a string against a named format.
type FormatValidator func(value string) bool

var formatValidators = map[string]FormatValidator{
	"email":     validateEmail,
	"uuid":      validateUUID,
	"date":      validateDate,
	"date-time": validateDateTime,
	"datetime":  validateDateTime, // alias
	"uri":       validateURI,
	"url":       validateURI, // alias
	"ipv4":      validateIPv4,
	"ipv6":      validateIPv6,
	"hostname":  validateHostname,
}

// ValidFormat checks value against the named format. Unknown formats pass:
// a schema may carry semantic tags this engine does not enforce.
func ValidFormat(format, value string) bool {
	v, ok := formatValidators[strings.ToLower(format)]
	if !ok {
		return true
	}
	return v(value)
}

// KnownFormat reports whether the format has a registered validator.
func KnownFormat(format string) bool {
	_, ok := formatValidators[strings.ToLower(format)]
	return ok
}

// RegisterFormat installs a custom format validator. Not safe to call
// concurrently with validation; register formats during setup.
func RegisterFormat(name string, v FormatValidator) {
	formatValidators[strings.ToLower(name)] = v
}

func validateEmail(value string) bool {
	if _, err := mail.ParseAddress(value); err != nil {
		return false
	}
	parts := strings.Split(value, "@")
	return len(parts) == 2 && strings.Contains(parts[1], ".")
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func validateUUID(value string) bool {
	return uuidPattern.MatchString(value)
}

func validateDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func validateDateTime(value string) bool {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func validateURI(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func validateIPv4(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() != nil
}

func validateIPv6(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() == nil
}

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(value string) bool {
	return len(value) <= 253 && hostnamePattern.MatchString(value)
}
