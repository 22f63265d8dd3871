package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ttlpanel/internal/config"
)

// Optional sign followed by decimal digits only
var integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

// ParseCustomTTL parses free-form draft text as a TTL and checks it
// against the accepted range
func ParseCustomTTL(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, fmt.Errorf("TTL cannot be empty")
	}

	if !integerPattern.MatchString(text) {
		return 0, fmt.Errorf("TTL must be a whole number, got %q", text)
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("TTL %q is out of range", text)
	}

	if err := ValidateTTL(value); err != nil {
		return 0, err
	}

	return value, nil
}

// ValidateTTL checks a TTL against the custom range (inclusive)
func ValidateTTL(value int) error {
	if value < config.MinCustomTTL || value > config.MaxCustomTTL {
		return fmt.Errorf("TTL must be between %d and %d, got %d", config.MinCustomTTL, config.MaxCustomTTL, value)
	}
	return nil
}
