// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sanitize cleans and checks untrusted text before it reaches the services.

Architecture:

  - Input: Unicode normalization, control-character stripping and truncation.
  - Identity fields: username and email rules used by registration and profile updates.
  - Uploads: file name, extension, content type and size checks, plus collision-free
    storage names.

Checks return human-readable messages rather than errors. Callers decide how to
surface them (usually through [validate.Validator]).
*/
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// # Free Text

// DefaultMaxInputLength bounds Input when no explicit limit is given.
const DefaultMaxInputLength = 1000

// Input returns text in NFC form with NUL and control characters removed
// (newline and tab survive), surrounding whitespace trimmed and at most
// maxLength runes kept. A maxLength of zero or less uses [DefaultMaxInputLength].
func Input(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxInputLength
	}

	normalized := norm.NFC.String(text)
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == utf8.RuneError || unicode.IsControl(r) {
			return -1
		}
		return r
	}, normalized)

	cleaned = strings.TrimSpace(cleaned)
	if utf8.RuneCountInString(cleaned) <= maxLength {
		return cleaned
	}

	runes := []rune(cleaned)
	return string(runes[:maxLength])
}

// # Usernames

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	reservedUsernames = map[string]struct{}{
		"admin": {}, "root": {}, "administrator": {}, "system": {},
		"user": {}, "test": {}, "guest": {}, "null": {},
	}
)

// ValidateUsername returns every rule username breaks, in check order.
// An empty result means the username is acceptable.
func ValidateUsername(username string) []string {
	var problems []string
	length := utf8.RuneCountInString(username)

	if length < MinUsernameLength {
		problems = append(problems, "Username must be at least 3 characters long")
	}
	if length > MaxUsernameLength {
		problems = append(problems, "Username must be less than 50 characters")
	}
	if username != "" && !usernamePattern.MatchString(username) {
		problems = append(problems, "Username can only contain letters, numbers, and underscores")
	}
	if strings.HasPrefix(username, "_") || strings.HasSuffix(username, "_") {
		problems = append(problems, "Username cannot start or end with underscore")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		problems = append(problems, "Username is too common, please choose a different one")
	}

	return problems
}

// # Emails

// MaxEmailLength is the RFC 5321 path limit.
const MaxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidateEmail reports whether email is a plausible mailbox address.
// It is stricter than RFC 5322 parsing: quoted local parts, consecutive dots
// and dotted domain edges are all refused.
func ValidateEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	if strings.Count(email, "@") != 1 || strings.Contains(email, "..") {
		return false
	}

	local, domain, _ := strings.Cut(email, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasPrefix(domain, "-") {
		return false
	}

	return emailPattern.MatchString(email)
}

// # Registration

// RegistrationCheck is the combined verdict on a sign-up form.
type RegistrationCheck struct {
	IsValid          bool               `json:"is_valid"`
	Errors           []string           `json:"errors"`
	PasswordStrength sec.StrengthReport `json:"password_strength"`
}

// ValidateRegistration checks username, email and password together.
// Errors are ordered username, email, password.
func ValidateRegistration(username, email, password string) RegistrationCheck {
	problems := ValidateUsername(username)
	if !ValidateEmail(email) {
		problems = append(problems, "Invalid email format")
	}

	report := sec.AnalyzeStrength(password)
	if !report.IsAcceptable {
		problems = append(problems, "Password is too weak")
	}

	if problems == nil {
		problems = []string{}
	}
	return RegistrationCheck{
		IsValid:          len(problems) == 0,
		Errors:           problems,
		PasswordStrength: report,
	}
}
