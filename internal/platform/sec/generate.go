// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// DefaultGeneratedLength is used when GenerateSecurePassword receives a non-positive length.
	DefaultGeneratedLength = 16

	minGeneratedLength = 4

	upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
	digitAlphabet = "0123456789"
)

// GenerateSecurePassword returns a random password with at least one character
// from each class (upper, lower, digit, special). Lengths below 4 are raised to 4.
func GenerateSecurePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultGeneratedLength
	}
	length = max(length, minGeneratedLength)

	classes := []string{upperAlphabet, lowerAlphabet, digitAlphabet, SpecialCharacters}
	fullAlphabet := upperAlphabet + lowerAlphabet + digitAlphabet + SpecialCharacters

	password := make([]byte, 0, length)

	// 1. One guaranteed character per class
	for _, alphabet := range classes {
		character, err := randomByte(alphabet)
		if err != nil {
			return "", err
		}
		password = append(password, character)
	}

	// 2. Fill the rest from the full alphabet
	for len(password) < length {
		character, err := randomByte(fullAlphabet)
		if err != nil {
			return "", err
		}
		password = append(password, character)
	}

	// 3. Fisher-Yates so the guaranteed characters are not always in front
	for i := len(password) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randomByte(alphabet string) (byte, error) {
	index, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[index], nil
}

func randomIndex(upper int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(upper)))
	if err != nil {
		return 0, fmt.Errorf("sec: entropy source failed: %w", err)
	}
	return int(n.Int64()), nil
}
