// Package shares implements the split-knowledge codec: a string value is
// padded to a fixed-capacity buffer and split into two equal-length shares
// such that either share alone is indistinguishable from random bytes, while
// XOR-combining both recovers the original value exactly.
package shares

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// DefaultCapacity is the fixed buffer size used when no explicit capacity is given.
// It bounds the maximum value size: capacity minus the length prefix.
const DefaultCapacity = 512

// lengthPrefixSize is the number of bytes reserved at the start of a padded
// buffer for the big-endian byte length of the original value. An explicit
// length makes decoding unambiguous even for values ending in NUL bytes.
const lengthPrefixSize = 2

// ErrOverflow is returned when a value does not fit into the codec capacity.
var ErrOverflow = errors.New("value exceeds capacity")

// ErrLengthMismatch is returned when buffers passed to Combine or Decode
// don't have the exact capacity length.
var ErrLengthMismatch = errors.New("buffer length mismatch")

// Codec encodes, splits, combines and decodes fixed-capacity buffers.
// Safe for concurrent use as long as the random source is.
type Codec struct {
	capacity int
	rnd      RandomSource
}

// New creates a Codec with the given capacity and random source.
// Capacity must leave room for the length prefix and at least one byte of
// content, and the prefix must be able to express the maximum content length.
// A nil random source defaults to the crypto/rand backed CryptoSource.
func New(capacity int, rnd RandomSource) (*Codec, error) {
	if capacity < lengthPrefixSize+1 {
		return nil, fmt.Errorf("capacity %d too small, need at least %d", capacity, lengthPrefixSize+1)
	}
	if capacity-lengthPrefixSize > 0xFFFF {
		return nil, fmt.Errorf("capacity %d too large, content length must fit in %d bytes", capacity, lengthPrefixSize)
	}
	if rnd == nil {
		rnd = CryptoSource{}
	}
	return &Codec{capacity: capacity, rnd: rnd}, nil
}

// Capacity returns the fixed buffer size. It is part of the public contract,
// the maximum value size is Capacity() minus the internal length prefix.
func (c *Codec) Capacity() int { return c.capacity }

// MaxValueSize returns the largest value byte length Encode accepts.
func (c *Codec) MaxValueSize() int { return c.capacity - lengthPrefixSize }

// Encode converts a string value to a fixed-capacity buffer: a 2-byte
// big-endian length prefix, the raw bytes, then zero padding to capacity.
// Returns ErrOverflow if the value doesn't fit, never truncates.
func (c *Codec) Encode(value string) ([]byte, error) {
	if len(value) > c.MaxValueSize() {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrOverflow, len(value), c.MaxValueSize())
	}
	buf := make([]byte, c.capacity)
	binary.BigEndian.PutUint16(buf[:lengthPrefixSize], uint16(len(value))) //nolint:gosec // bounded by MaxValueSize check above
	copy(buf[lengthPrefixSize:], value)
	return buf, nil
}

// Decode recovers the original string from a fixed-capacity buffer.
// The buffer must be exactly capacity bytes and carry a valid length prefix.
func (c *Codec) Decode(buf []byte) (string, error) {
	if len(buf) != c.capacity {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(buf), c.capacity)
	}
	size := int(binary.BigEndian.Uint16(buf[:lengthPrefixSize]))
	if size > c.MaxValueSize() {
		return "", fmt.Errorf("invalid length prefix %d, max %d", size, c.MaxValueSize())
	}
	return string(buf[lengthPrefixSize : lengthPrefixSize+size]), nil
}

// Split produces two shares from a padded buffer. Share A is drawn from the
// random source, share B is the byte-wise XOR of the buffer with share A.
// Each call draws fresh randomness, reusing a pad across values would leak
// the XOR of the plaintexts.
func (c *Codec) Split(plain []byte) (shareA, shareB []byte, err error) {
	if len(plain) != c.capacity {
		return nil, nil, fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(plain), c.capacity)
	}
	shareA, err = c.rnd.Bytes(c.capacity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to draw random share: %w", err)
	}
	if len(shareA) != c.capacity {
		return nil, nil, fmt.Errorf("random source returned %d bytes, want %d", len(shareA), c.capacity)
	}
	shareB = make([]byte, c.capacity)
	for i := range plain {
		shareB[i] = plain[i] ^ shareA[i]
	}
	return shareA, shareB, nil
}

// Combine reconstructs the padded buffer from two shares. Pure XOR, so it is
// commutative in its arguments. Returns ErrLengthMismatch unless both shares
// are exactly capacity bytes.
func (c *Codec) Combine(shareA, shareB []byte) ([]byte, error) {
	if len(shareA) != c.capacity {
		return nil, fmt.Errorf("%w: share A is %d bytes, want %d", ErrLengthMismatch, len(shareA), c.capacity)
	}
	if len(shareB) != c.capacity {
		return nil, fmt.Errorf("%w: share B is %d bytes, want %d", ErrLengthMismatch, len(shareB), c.capacity)
	}
	plain := make([]byte, c.capacity)
	for i := range shareA {
		plain[i] = shareA[i] ^ shareB[i]
	}
	return plain, nil
}
