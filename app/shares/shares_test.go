package shares

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroSource returns all-zero bytes, making share A a no-op pad.
type zeroSource struct{}

func (zeroSource) Bytes(n int) ([]byte, error) { return make([]byte, n), nil }

// shortSource returns fewer bytes than requested.
type shortSource struct{}

func (shortSource) Bytes(n int) ([]byte, error) { return make([]byte, n-1), nil }

// failSource always fails.
type failSource struct{}

func (failSource) Bytes(int) ([]byte, error) { return nil, errors.New("entropy exhausted") }

func TestNew(t *testing.T) {
	t.Run("default random source", func(t *testing.T) {
		c, err := New(DefaultCapacity, nil)
		require.NoError(t, err)
		assert.Equal(t, 512, c.Capacity())
		assert.Equal(t, 510, c.MaxValueSize())
	})

	t.Run("capacity too small", func(t *testing.T) {
		_, err := New(2, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too small")
	})

	t.Run("minimal capacity", func(t *testing.T) {
		c, err := New(3, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, c.MaxValueSize())
	})

	t.Run("capacity exceeds prefix range", func(t *testing.T) {
		_, err := New(0xFFFF+3, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := New(DefaultCapacity, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"simple", "bar"},
		{"empty", ""},
		{"unicode", "пароль-秘密-🔑"},
		{"embedded nul", "abc\x00def"},
		{"trailing nul", "token\x00"},
		{"max size", strings.Repeat("x", c.MaxValueSize())},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plain, err := c.Encode(tc.value)
			require.NoError(t, err)
			assert.Len(t, plain, c.Capacity())

			a, b, err := c.Split(plain)
			require.NoError(t, err)

			combined, err := c.Combine(a, b)
			require.NoError(t, err)
			assert.Equal(t, plain, combined)

			decoded, err := c.Decode(combined)
			require.NoError(t, err)
			assert.Equal(t, tc.value, decoded)
		})
	}
}

func TestCodec_Encode(t *testing.T) {
	c, err := New(16, nil)
	require.NoError(t, err)

	t.Run("pads to capacity", func(t *testing.T) {
		buf, err := c.Encode("hi")
		require.NoError(t, err)
		require.Len(t, buf, 16)
		assert.Equal(t, []byte{0, 2, 'h', 'i'}, buf[:4])
		assert.Equal(t, make([]byte, 12), buf[4:], "padding must be zero bytes")
	})

	t.Run("overflow rejected, not truncated", func(t *testing.T) {
		_, err := c.Encode(strings.Repeat("x", 15))
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("exact fit accepted", func(t *testing.T) {
		buf, err := c.Encode(strings.Repeat("x", 14))
		require.NoError(t, err)
		assert.Len(t, buf, 16)
	})
}

func TestCodec_Decode(t *testing.T) {
	c, err := New(16, nil)
	require.NoError(t, err)

	t.Run("wrong buffer length", func(t *testing.T) {
		_, err := c.Decode(make([]byte, 15))
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("corrupted length prefix", func(t *testing.T) {
		buf := make([]byte, 16)
		buf[0], buf[1] = 0xFF, 0xFF
		_, err := c.Decode(buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid length prefix")
	})
}

func TestCodec_Split(t *testing.T) {
	c, err := New(DefaultCapacity, nil)
	require.NoError(t, err)

	t.Run("fresh randomness per call", func(t *testing.T) {
		plain, err := c.Encode("same value")
		require.NoError(t, err)

		a1, b1, err := c.Split(plain)
		require.NoError(t, err)
		a2, b2, err := c.Split(plain)
		require.NoError(t, err)

		// with a 512-byte CSPRNG pad a collision is not going to happen
		assert.False(t, bytes.Equal(a1, a2), "share A must differ between splits")
		assert.False(t, bytes.Equal(b1, b2), "share B must differ between splits")
	})

	t.Run("wrong plain length", func(t *testing.T) {
		_, _, err := c.Split([]byte("too short"))
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("random source failure", func(t *testing.T) {
		fc, err := New(16, failSource{})
		require.NoError(t, err)
		_, _, err = fc.Split(make([]byte, 16))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entropy exhausted")
	})

	t.Run("short random source rejected", func(t *testing.T) {
		sc, err := New(16, shortSource{})
		require.NoError(t, err)
		_, _, err = sc.Split(make([]byte, 16))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "random source returned")
	})
}

func TestCodec_Combine(t *testing.T) {
	c, err := New(DefaultCapacity, nil)
	require.NoError(t, err)

	t.Run("commutative", func(t *testing.T) {
		plain, err := c.Encode("order independent")
		require.NoError(t, err)
		a, b, err := c.Split(plain)
		require.NoError(t, err)

		ab, err := c.Combine(a, b)
		require.NoError(t, err)
		ba, err := c.Combine(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("share A wrong length", func(t *testing.T) {
		_, err := c.Combine(make([]byte, 10), make([]byte, DefaultCapacity))
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("share B wrong length", func(t *testing.T) {
		_, err := c.Combine(make([]byte, DefaultCapacity), make([]byte, DefaultCapacity+1))
		require.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestCodec_DeterministicZeroPad(t *testing.T) {
	// with an all-zero pad, share A is all zeros and share B equals the
	// encoded buffer; merging must still restore the original values
	c, err := New(DefaultCapacity, zeroSource{})
	require.NoError(t, err)

	fields := map[string]string{"a": "123", "b": "456"}
	padded := make(map[string][]byte, len(fields))
	for k, v := range fields {
		buf, err := c.Encode(v)
		require.NoError(t, err)
		padded[k] = buf
	}

	sharesA, sharesB, err := c.SplitFields(padded)
	require.NoError(t, err)

	for k := range fields {
		assert.Equal(t, make([]byte, DefaultCapacity), sharesA[k], "share A for %q must be all zeros", k)
		assert.Equal(t, padded[k], sharesB[k], "share B for %q must equal the encoded buffer", k)
	}

	merged, err := c.MergeFields(sharesA, sharesB)
	require.NoError(t, err)
	for k, v := range fields {
		decoded, err := c.Decode(merged[k])
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestCodec_FieldsPartialPresence(t *testing.T) {
	c, err := New(32, nil)
	require.NoError(t, err)

	padded := map[string][]byte{}
	for _, k := range []string{"one", "two", "three"} {
		buf, err := c.Encode(k)
		require.NoError(t, err)
		padded[k] = buf
	}

	sharesA, sharesB, err := c.SplitFields(padded)
	require.NoError(t, err)
	require.Len(t, sharesA, 3)
	require.Len(t, sharesB, 3)

	t.Run("key missing from B side omitted", func(t *testing.T) {
		delete(sharesB, "two")
		merged, err := c.MergeFields(sharesA, sharesB)
		require.NoError(t, err)
		assert.Len(t, merged, 2)
		assert.NotContains(t, merged, "two")
	})

	t.Run("corrupt share fails merge", func(t *testing.T) {
		sharesB["one"] = []byte("short")
		_, err := c.MergeFields(sharesA, sharesB)
		require.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestCodec_SplitFieldsBadInput(t *testing.T) {
	c, err := New(32, nil)
	require.NoError(t, err)

	_, _, err = c.SplitFields(map[string][]byte{"bad": []byte("unpadded")})
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), `field "bad"`)
}
