// Package credentials holds the format rules applied to sign-up credentials.
package credentials

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 12
	passwordDigits    = 2
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}$`)

// PasswordPolicy selects the password composition rule.
type PasswordPolicy string

const (
	// PolicyStandard requires 8-12 characters, at least one uppercase letter
	// and exactly two digits.
	PolicyStandard PasswordPolicy = "standard"
	// PolicyStrict additionally restricts the password to letters and digits,
	// exactly one uppercase letter and no two adjacent digits.
	PolicyStrict PasswordPolicy = "strict"
)

// ParsePolicy maps a configuration value onto a PasswordPolicy. An empty
// value selects PolicyStandard.
func ParsePolicy(s string) (PasswordPolicy, error) {
	switch PasswordPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyStandard:
		return PolicyStandard, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown password policy %q", s)
	}
}

// IsValidEmail reports whether s looks like local@domain.tld. The value is
// neither trimmed nor case folded.
func IsValidEmail(s string) bool {
	return validation.Validate(s, validation.Required, validation.Match(emailPattern)) == nil
}

// IsValidPassword checks s against the standard policy.
func IsValidPassword(s string) bool {
	return PolicyStandard.Allows(s)
}

// Allows reports whether s satisfies the policy.
func (p PasswordPolicy) Allows(s string) bool {
	return p.Validate(s) == nil
}

// Validate returns the first rule s breaks, or nil.
func (p PasswordPolicy) Validate(s string) error {
	return validation.Validate(s,
		validation.Required,
		validation.Length(passwordMinLength, passwordMaxLength),
		validation.By(p.composition),
	)
}

func (p PasswordPolicy) composition(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("must be a string")
	}

	var upper, digits int
	prevDigit := false
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case isDigit:
			digits++
		}
		if p == PolicyStrict {
			if !isASCIIAlnum(r) {
				return errors.New("must contain only letters and digits")
			}
			if isDigit && prevDigit {
				return errors.New("must not contain adjacent digits")
			}
		}
		prevDigit = isDigit
	}

	if digits != passwordDigits {
		return fmt.Errorf("must contain exactly %d digits", passwordDigits)
	}
	if upper == 0 {
		return errors.New("must contain an uppercase letter")
	}
	if p == PolicyStrict && upper != 1 {
		return errors.New("must contain exactly one uppercase letter")
	}
	return nil
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
