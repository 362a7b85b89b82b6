package app

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidatePassword requires MinPasswordLength characters including an
// uppercase letter, a lowercase letter and a digit.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "uppercase letter")
	}
	if !lower {
		missing = append(missing, "lowercase letter")
	}
	if !digit {
		missing = append(missing, "number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.New("please enter a valid email")
	}
	return nil
}
