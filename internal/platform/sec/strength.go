// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// # Password Strength

// Strength is the qualitative bucket of a [StrengthReport].
type Strength string

const (
	StrengthVeryWeak   Strength = "very_weak"
	StrengthWeak       Strength = "weak"
	StrengthMedium     Strength = "medium"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

var strengthRank = map[Strength]int{
	StrengthVeryWeak:   0,
	StrengthWeak:       1,
	StrengthMedium:     2,
	StrengthStrong:     3,
	StrengthVeryStrong: 4,
}

// AtLeast checks if the strength meets or exceeds target.
func (s Strength) AtLeast(target Strength) bool {
	return strengthRank[s] >= strengthRank[target]
}

const (
	// MinPasswordLength is the baseline below which a password is always very weak.
	MinPasswordLength = 8

	// LongPasswordLength earns an extra point.
	LongPasswordLength = 16

	maxScore = 5

	// SpecialCharacters is the class counted as "special".
	SpecialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

const (
	feedbackTooCommon  = "Password is too common"
	feedbackTooShort   = "Password is too short (minimum 8 characters)"
	feedbackUpper      = "Missing uppercase letters"
	feedbackLower      = "Missing lowercase letters"
	feedbackDigits     = "Missing numbers"
	feedbackSpecial    = "Missing special characters"
	feedbackSequential = "Contains sequential characters"
	feedbackRepeated   = "Contains repeated characters"
)

// commonPasswords is matched case-insensitively.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "123456": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "12345": {}, "1234": {}, "111111": {},
	"000000": {}, "qwerty": {}, "qwerty123": {}, "abc123": {}, "admin": {},
	"admin123": {}, "letmein": {}, "welcome": {}, "welcome1": {}, "monkey": {},
	"dragon": {}, "master": {}, "iloveyou": {}, "sunshine": {}, "princess": {},
	"football": {}, "baseball": {}, "trustno1": {}, "passw0rd": {}, "changeme": {},
}

// StrengthReport is the result of [AnalyzeStrength].
type StrengthReport struct {
	Strength     Strength `json:"strength"`
	Score        int      `json:"score"`
	Feedback     []string `json:"feedback"`
	IsAcceptable bool     `json:"is_acceptable"`
}

// AnalyzeStrength scores password on a 0..5 scale.
//
// Dictionary matches and short passwords are rejected outright. Otherwise points
// are earned for length and for each character class, and lost for sequential
// or repeated runs. Feedback lists every finding in the order it was checked.
func AnalyzeStrength(password string) StrengthReport {
	length := utf8.RuneCountInString(password)

	// 1. Dictionary
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return StrengthReport{Strength: StrengthWeak, Score: 0, Feedback: []string{feedbackTooCommon}}
	}

	// 2. Baseline length
	if length < MinPasswordLength {
		return StrengthReport{Strength: StrengthVeryWeak, Score: 0, Feedback: []string{feedbackTooShort}}
	}

	// 3. Length points
	score := 1
	if length >= LongPasswordLength {
		score++
	}

	// 4. Character classes
	feedback := []string{}
	classes := []struct {
		present bool
		message string
	}{
		{containsFunc(password, unicode.IsUpper), feedbackUpper},
		{containsFunc(password, unicode.IsLower), feedbackLower},
		{containsFunc(password, unicode.IsDigit), feedbackDigits},
		{strings.ContainsAny(password, SpecialCharacters), feedbackSpecial},
	}
	for _, class := range classes {
		if class.present {
			score++
			continue
		}
		feedback = append(feedback, class.message)
	}

	// 5. Anti-patterns
	if hasSequentialRun(password) {
		score--
		feedback = append(feedback, feedbackSequential)
	}
	if hasRepeatedRun(password) {
		score--
		feedback = append(feedback, feedbackRepeated)
	}

	score = max(0, min(score, maxScore))
	strength := strengthForScore(score)

	return StrengthReport{
		Strength:     strength,
		Score:        score,
		Feedback:     feedback,
		IsAcceptable: strength.AtLeast(StrengthMedium) && length >= MinPasswordLength,
	}
}

func strengthForScore(score int) Strength {
	switch {
	case score >= 5:
		return StrengthVeryStrong
	case score == 4:
		return StrengthStrong
	case score == 3:
		return StrengthMedium
	case score == 2:
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

func containsFunc(s string, predicate func(rune) bool) bool {
	return strings.IndexFunc(s, predicate) >= 0
}

// hasSequentialRun detects three ascending neighbours such as "abc" or "123".
func hasSequentialRun(password string) bool {
	runes := []rune(strings.ToLower(password))
	for i := 0; i+2 < len(runes); i++ {
		first := runes[i]
		if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
			continue
		}
		if runes[i+1] == first+1 && runes[i+2] == first+2 {
			return true
		}
	}
	return false
}

// hasRepeatedRun detects the same character three times in a row.
func hasRepeatedRun(password string) bool {
	runes := []rune(password)
	for i := 0; i+2 < len(runes); i++ {
		if runes[i] == runes[i+1] && runes[i] == runes[i+2] {
			return true
		}
	}
	return false
}
