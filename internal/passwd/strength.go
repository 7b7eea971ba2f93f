// Package passwd scores password strength for the registration form.
// The score is advisory and client-side only; the server enforces just
// the minimum length.
package passwd

import (
	"strings"
	"unicode"
)

// Level is a qualitative strength band derived from the score.
type Level string

const (
	VeryWeak Level = "very-weak"
	Weak     Level = "weak"
	Medium   Level = "medium"
	Strong   Level = "strong"
)

// MinLength mirrors the server-side minimum.
const MinLength = 8

// specialChars is the fixed set that counts toward the special-character point.
const specialChars = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// Result carries the score, its band, and what is still missing.
type Result struct {
	Score    int
	Level    Level
	Feedback []string
}

// Check scores a password 0-4: one point each for minimum length, mixed
// case, a digit, and a special character. Feedback lists every
// requirement the password does not meet.
func Check(password string) Result {
	var (
		score    int
		feedback []string
	)

	if len(password) >= MinLength {
		score++
	} else {
		feedback = append(feedback, "at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}

	if hasUpper && hasLower {
		score++
	} else {
		feedback = append(feedback, "upper and lower case letters")
	}
	if hasDigit {
		score++
	} else {
		feedback = append(feedback, "at least one digit")
	}
	if hasSpecial {
		score++
	} else {
		feedback = append(feedback, "at least one special character")
	}

	return Result{Score: score, Level: levelFor(score), Feedback: feedback}
}

func levelFor(score int) Level {
	switch {
	case score < 2:
		return VeryWeak
	case score < 3:
		return Weak
	case score < 4:
		return Medium
	default:
		return Strong
	}
}

// AcceptableForRegistration reports whether the client lets the
// password through to the server. Weak and very-weak are blocked.
func (r Result) AcceptableForRegistration() bool {
	return r.Level == Medium || r.Level == Strong
}
