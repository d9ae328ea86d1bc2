// Package enum defines enumerated types shared across the application.
package enum

import (
	"fmt"
	"strings"
)

// Permission is an access level granted by an ACL entry.
type Permission int

// permission values, from no access to full access.
const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionWrite
	PermissionReadWrite
)

// permissionNames maps values to their canonical string form.
var permissionNames = map[Permission]string{
	PermissionNone:      "none",
	PermissionRead:      "r",
	PermissionWrite:     "w",
	PermissionReadWrite: "rw",
}

// permissionAliases maps accepted spellings to values.
var permissionAliases = map[string]Permission{
	"none":       PermissionNone,
	"r":          PermissionRead,
	"read":       PermissionRead,
	"w":          PermissionWrite,
	"write":      PermissionWrite,
	"rw":         PermissionReadWrite,
	"readwrite":  PermissionReadWrite,
	"read-write": PermissionReadWrite,
}

// String returns the canonical string form of the permission.
func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// ParsePermission converts a string to a Permission, accepting the common
// aliases (r/read, w/write, rw/readwrite/read-write, none).
func ParsePermission(s string) (Permission, error) {
	if p, ok := permissionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return PermissionNone, fmt.Errorf("invalid permission %q", s)
}
