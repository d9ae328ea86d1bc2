package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAuthConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		data := []byte(`
users:
  - name: admin
    password: "$2a$10$hash"
    permissions:
      - prefix: "*"
        access: rw
tokens:
  - token: "apitoken"
    permissions:
      - prefix: "checkout/"
        access: r
`)
		assert.NoError(t, VerifyAuthConfig(data))
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		data := []byte(`
users:
  - name: admin
    password: "$2a$10$hash"
    unknown_field: true
`)
		err := VerifyAuthConfig(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})

	t.Run("missing required field rejected", func(t *testing.T) {
		data := []byte(`
users:
  - name: admin
`)
		err := VerifyAuthConfig(data)
		require.Error(t, err)
	})

	t.Run("invalid access value rejected", func(t *testing.T) {
		data := []byte(`
tokens:
  - token: "apitoken"
    permissions:
      - prefix: "*"
        access: superuser
`)
		err := VerifyAuthConfig(data)
		require.Error(t, err)
	})
}

func TestVerifyAuthConfig_InvalidYAML(t *testing.T) {
	err := VerifyAuthConfig([]byte("users: [broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse auth config file")
}

func TestGenerateAuthSchema(t *testing.T) {
	data, err := GenerateAuthSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), "Secsplit Auth Configuration")
	assert.Contains(t, string(data), "UserConfig")
	assert.Contains(t, string(data), "TokenConfig")
}
