// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Identity is the authenticated subject of one request.
//
// It is built from verified access-token claims and discarded when the request
// ends. RoleID is nil when the subject has no role assigned.
type Identity struct {
	SubjectID string  `json:"subject_id"`
	Username  string  `json:"username"`
	RoleID    *string `json:"role_id"`
}

// HasRole reports whether a role is assigned.
func (identity *Identity) HasRole() bool {
	return identity != nil && identity.RoleID != nil && *identity.RoleID != ""
}
