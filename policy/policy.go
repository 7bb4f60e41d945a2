// Package policy - password acceptability rules shared by registration and
// password reset
package policy

import (
	"fmt"
	"unicode"

	"github.com/alwitt/securepass/models"
)

const (
	// MinLength shortest acceptable password
	MinLength = 8
	// MaxLength longest acceptable password
	MaxLength = 20
	// MinStrength lowest acceptable strength score
	MinStrength = 3
	// MaxStrength highest reported strength score
	MaxStrength = 5
)

// isCJK whether the rune falls in the CJK Unified Ideographs block
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

/*
Strength score a password on a 0 to 5 scale.

The score is advisory display feedback. +1 each for: length >= 8, length >= 12,
a lowercase letter, an uppercase letter, a digit, a non-alphanumeric symbol;
capped at 5. Any CJK ideograph forces the score to 0.

	@param password string - the candidate password
	@return strength score in [0, 5]
*/
func Strength(password string) int {
	if password == "" {
		return 0
	}

	score := 0
	runes := []rune(password)

	if len(runes) >= MinLength {
		score++
	}
	if len(runes) >= 12 {
		score++
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range runes {
		if isCJK(r) {
			return 0
		}
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	for _, hit := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if hit {
			score++
		}
	}

	if score > MaxStrength {
		return MaxStrength
	}
	return score
}

/*
Check apply the hard acceptability gate.

A password is acceptable iff its length is within [8, 20], it contains no CJK
ideograph, it contains at least one letter and one digit, and its strength
score is at least 3. The strength score alone is not the gate; both checks
apply before a password may be stored.

	@param password string - the candidate password
	@return nil when acceptable, otherwise an error wrapping ErrPolicyViolation
*/
func Check(password string) error {
	runes := []rune(password)

	if len(runes) < MinLength || len(runes) > MaxLength {
		return fmt.Errorf(
			"password length must be between %d and %d characters [%w]",
			MinLength, MaxLength, models.ErrPolicyViolation,
		)
	}

	var hasLetter, hasDigit bool
	for _, r := range runes {
		if isCJK(r) {
			return fmt.Errorf(
				"password must not contain CJK characters [%w]", models.ErrPolicyViolation,
			)
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf(
			"password must contain at least one letter and one digit [%w]",
			models.ErrPolicyViolation,
		)
	}

	if Strength(password) < MinStrength {
		return fmt.Errorf(
			"password strength must be at least %d of %d [%w]",
			MinStrength, MaxStrength, models.ErrPolicyViolation,
		)
	}

	return nil
}
