// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid issues the identifiers used across the API.

Every id is a UUIDv7: time-ordered, so primary keys, token ids (jti) and
generated correlation ids sort by creation time and stay friendly to B-tree
indexes.
*/
package uuid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new UUIDv7 string.
// It panics only if the system entropy source fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Compact returns a new UUIDv7 without hyphens, for use in file names.
func Compact() string {
	return strings.ReplaceAll(New(), "-", "")
}

// IsValid reports whether value parses as a UUID of any version.
func IsValid(value string) bool {
	return uuid.Validate(value) == nil
}
