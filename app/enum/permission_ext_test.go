package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermission_CanRead(t *testing.T) {
	tests := []struct {
		perm     Permission
		expected bool
	}{
		{PermissionNone, false},
		{PermissionRead, true},
		{PermissionWrite, false},
		{PermissionReadWrite, true},
	}

	for _, tc := range tests {
		t.Run(tc.perm.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.perm.CanRead())
		})
	}
}

func TestPermission_CanWrite(t *testing.T) {
	tests := []struct {
		perm     Permission
		expected bool
	}{
		{PermissionNone, false},
		{PermissionRead, false},
		{PermissionWrite, true},
		{PermissionReadWrite, true},
	}

	for _, tc := range tests {
		t.Run(tc.perm.String(), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.perm.CanWrite())
		})
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in       string
		expected Permission
	}{
		{"r", PermissionRead},
		{"read", PermissionRead},
		{"w", PermissionWrite},
		{"write", PermissionWrite},
		{"rw", PermissionReadWrite},
		{"read-write", PermissionReadWrite},
		{"readwrite", PermissionReadWrite},
		{"RW", PermissionReadWrite},
		{" r ", PermissionRead},
		{"none", PermissionNone},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParsePermission(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := ParsePermission("admin")
		require.Error(t, err)
	})
}
