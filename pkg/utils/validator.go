package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateRUT validates a Chilean RUT in "12345678-K" form, including the
// modulo-11 check digit
func ValidateRUT(rut string) error {
	cleaned := strings.ToUpper(strings.ReplaceAll(rut, ".", ""))
	parts := strings.Split(cleaned, "-")
	if len(parts) != 2 || len(parts[1]) != 1 {
		return fmt.Errorf("invalid RUT format: %s", rut)
	}

	body, err := strconv.Atoi(parts[0])
	if err != nil || body <= 0 {
		return fmt.Errorf("invalid RUT number: %s", rut)
	}

	sum, factor := 0, 2
	for n := body; n > 0; n /= 10 {
		sum += (n % 10) * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}

	var expected string
	switch rem := 11 - sum%11; rem {
	case 11:
		expected = "0"
	case 10:
		expected = "K"
	default:
		expected = strconv.Itoa(rem)
	}

	if parts[1] != expected {
		return fmt.Errorf("invalid RUT check digit: %s", rut)
	}
	return nil
}

// SanitizeString removes potentially harmful characters
func SanitizeString(s string) string {
	sanitized := regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
	return sanitized
}
