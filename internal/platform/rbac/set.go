// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"encoding/json"
	"sort"
)

// PermissionSet is a read-only set of permission names.
//
// The zero value is the empty set. Sets are never mutated after construction,
// so they can be shared between goroutines freely.
type PermissionSet struct {
	names map[string]struct{}
}

// NewPermissionSet builds a set from names. Duplicates collapse.
func NewPermissionSet(names ...string) PermissionSet {
	set := PermissionSet{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		set.names[name] = struct{}{}
	}
	return set
}

// Has reports whether permission is in the set.
func (set PermissionSet) Has(permission string) bool {
	_, ok := set.names[permission]
	return ok
}

// HasAny reports whether at least one of permissions is in the set.
// An empty argument list yields false.
func (set PermissionSet) HasAny(permissions ...string) bool {
	for _, permission := range permissions {
		if set.Has(permission) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of permissions is in the set.
// An empty argument list yields true.
func (set PermissionSet) HasAll(permissions ...string) bool {
	for _, permission := range permissions {
		if !set.Has(permission) {
			return false
		}
	}
	return true
}

// Len returns the number of permissions.
func (set PermissionSet) Len() int { return len(set.names) }

// Names returns the permissions sorted alphabetically.
func (set PermissionSet) Names() []string {
	names := make([]string, 0, len(set.names))
	for name := range set.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets hold the same permissions.
func (set PermissionSet) Equal(other PermissionSet) bool {
	return set.Len() == other.Len() && set.HasAll(other.Names()...)
}

// MarshalJSON renders the set as a sorted array.
func (set PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Names())
}
