// Package session implements the persistence adapter: it splits session field
// values into two shares and spreads them across two independent storage
// channels, reconstructing the values only when both channels are readable.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/secsplit/app/shares"
	"github.com/umputun/secsplit/app/store"
)

//go:generate moq -out mocks/docstore.go -pkg mocks -skip-ensure -fmt goimports . DocStore
//go:generate moq -out mocks/keystore.go -pkg mocks -skip-ensure -fmt goimports . KeyStore

// DocStore is channel 1: a single-slot store holding the whole field-to-shareA
// mapping as one JSON document. Defined here (consumer side) to allow
// different store implementations.
type DocStore interface {
	GetDoc(ctx context.Context, slot string) ([]byte, error)
	SetDoc(ctx context.Context, slot string, doc []byte) error
	DeleteDoc(ctx context.Context, slot string) error
	ListDocs(ctx context.Context) ([]store.DocInfo, error)
}

// KeyStore is channel 2: an independently keyed store holding one shareB per
// field. Defined here (consumer side) to allow different store implementations.
type KeyStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, share []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Manager saves and loads session field mappings across the two channels.
// Each call is self-contained; concurrent Save/Load on the same session id
// must be serialized by the caller.
type Manager struct {
	doc   DocStore
	keys  KeyStore
	codec *shares.Codec
}

// NewManager creates a Manager over the given channels and codec.
func NewManager(doc DocStore, keys KeyStore, codec *shares.Codec) *Manager {
	return &Manager{doc: doc, keys: keys, codec: codec}
}

// Save encodes and splits every requested field present in data, then writes
// share A into the channel-1 document under slot id and share B per-key into
// channel 2. The channel-1 document is replaced wholesale, so fields not in
// keys are dropped unless the caller re-supplies them. An empty keys slice
// means all fields of data. Any channel write failure propagates, a silently
// dropped save would leave stale session data behind.
func (m *Manager) Save(ctx context.Context, id string, keys []string, data map[string]string) error {
	if id == "" {
		return errors.New("session id is required")
	}
	if len(keys) == 0 {
		keys = make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	doc := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok := data[key]
		if !ok {
			continue
		}
		plain, err := m.codec.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %q: %w", key, err)
		}
		shareA, shareB, err := m.codec.Split(plain)
		if err != nil {
			return fmt.Errorf("failed to split field %q: %w", key, err)
		}
		doc[key] = base64.StdEncoding.EncodeToString(shareA)
		b64b := base64.StdEncoding.EncodeToString(shareB)
		if err := m.keys.Set(ctx, shareKey(id, key), []byte(b64b)); err != nil {
			return fmt.Errorf("failed to write share for field %q: %w", key, err)
		}
	}

	serialized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	if err := m.doc.SetDoc(ctx, id, serialized); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}

	log.Printf("[DEBUG] saved session %q, %d of %d requested fields", id, len(doc), len(keys))
	return nil
}

// Load reads both channels and reconstructs the requested fields. A missing
// document means an empty result. Fields missing from either channel are
// omitted. A field with malformed base64 or a mismatched share length is
// skipped with a warning, preserving the rest of the batch; storage failures
// and an unparseable document abort the whole load.
func (m *Manager) Load(ctx context.Context, id string, keys []string) (map[string]string, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}

	raw, err := m.doc.GetDoc(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document for session %q: %w", id, err)
	}

	if len(keys) == 0 {
		keys = make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		b64a, ok := doc[key]
		if !ok {
			continue
		}
		rawB, err := m.keys.Get(ctx, shareKey(id, key))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read share for field %q: %w", key, err)
		}

		value, err := m.reconstruct(b64a, string(rawB))
		if err != nil {
			log.Printf("[WARN] skipping field %q of session %q: %v", key, id, err)
			continue
		}
		result[key] = value
	}
	return result, nil
}

// reconstruct decodes both base64 shares, combines them and strips the padding.
func (m *Manager) reconstruct(b64a, b64b string) (string, error) {
	shareA, err := base64.StdEncoding.DecodeString(b64a)
	if err != nil {
		return "", fmt.Errorf("malformed share A: %w", err)
	}
	shareB, err := base64.StdEncoding.DecodeString(b64b)
	if err != nil {
		return "", fmt.Errorf("malformed share B: %w", err)
	}
	plain, err := m.codec.Combine(shareA, shareB)
	if err != nil {
		return "", err //nolint:wrapcheck // codec errors are already descriptive
	}
	value, err := m.codec.Decode(plain)
	if err != nil {
		return "", err //nolint:wrapcheck // codec errors are already descriptive
	}
	return value, nil
}

// Clear removes the channel-1 document and every channel-2 share of the
// session. Missing entries are not an error, clearing is idempotent.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("session id is required")
	}

	keys, err := m.keys.Keys(ctx, sharePrefix(id))
	if err != nil {
		return fmt.Errorf("failed to list shares for session %q: %w", id, err)
	}
	for _, key := range keys {
		if err := m.keys.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to delete share %q: %w", key, err)
		}
	}

	if err := m.doc.DeleteDoc(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete document for session %q: %w", id, err)
	}

	log.Printf("[INFO] cleared session %q, removed %d shares", id, len(keys))
	return nil
}

// List returns metadata for all stored sessions, newest first.
func (m *Manager) List(ctx context.Context) ([]store.DocInfo, error) {
	docs, err := m.doc.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return docs, nil
}

// shareKey builds the channel-2 key for a session field. Both segments are
// path-escaped so ids and fields containing "/" cannot collide across
// sessions: (id="a", field="b/c") and (id="a/b", field="c") must map to
// different keys.
func shareKey(id, field string) string {
	return url.PathEscape(id) + "/" + url.PathEscape(field)
}

// sharePrefix is the channel-2 key prefix covering every field of a session.
func sharePrefix(id string) string {
	return url.PathEscape(id) + "/"
}
