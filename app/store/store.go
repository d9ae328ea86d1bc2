// Package store provides the two share-channel storage backends: a per-key
// store for one share of each field and a single-slot document store for the
// other. Both are SQL-backed and a process normally opens them on two
// independent databases so neither location alone reveals anything.
package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a key or document slot is not in the store.
var ErrNotFound = errors.New("key not found")

// NormalizeKey normalizes a key by trimming spaces, leading/trailing slashes,
// and replacing spaces with underscores.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, "/")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}
