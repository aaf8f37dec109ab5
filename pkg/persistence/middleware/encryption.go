package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals every saved snapshot. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys still open snapshots sealed before a key rotation.
	FallbackKeys [][]byte
}

// envelopeKey holds the ciphertext inside the envelope snapshot.
const envelopeKey = "__encrypted__"

// ErrUndecryptable is returned when no configured key opens a stored snapshot,
// including a snapshot moved over from another session.
var ErrUndecryptable = errors.New("snapshot cannot be decrypted with the configured keys")

type encryptionMiddleware struct {
	next ports.SnapshotStore

	// keys[0] seals; every entry is tried when opening.
	keys []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that seals snapshots with AES-GCM.
// Parked params and locals often carry user data; the stored envelope exposes none
// of it, only the time of the last save.
//
// The session ID is bound as additional data, so a sealed snapshot only opens
// under the session it was saved for. It panics on a key that is not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys := make([]cipher.AEAD, 0, 1+len(config.FallbackKeys))
	for i, k := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		aead, err := newAEAD(k)
		if err != nil {
			if i == 0 {
				panic(fmt.Sprintf("active key: %v", err))
			}
			panic(fmt.Sprintf("fallback key %d: %v", i-1, err))
		}
		keys = append(keys, aead)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (AES-256), got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	plain, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	sealed, err := seal(m.keys[0], plain, sessionID)
	if err != nil {
		return fmt.Errorf("failed to encrypt snapshot: %w", err)
	}

	envelope := domain.NewSnapshot()
	envelope.UpdatedAt = snap.UpdatedAt
	envelope.Params = domain.Params{
		envelopeKey: base64.StdEncoding.EncodeToString(sealed),
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Fail secure: with encryption configured, a plain snapshot is an error.
	encoded, ok := envelope.Params[envelopeKey].(string)
	if !ok {
		return nil, errors.New("snapshot is missing encrypted data envelope")
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := m.open(sealed, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted snapshot: %w", err)
	}
	return &snap, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// open tries the active key first, then the fallbacks in order.
func (m *encryptionMiddleware) open(sealed []byte, sessionID string) ([]byte, error) {
	for _, aead := range m.keys {
		if plain, err := unseal(aead, sealed, sessionID); err == nil {
			return plain, nil
		}
	}
	return nil, ErrUndecryptable
}

func associatedData(sessionID string) []byte {
	return []byte("sticky/session/" + sessionID)
}

// seal returns nonce || ciphertext.
func seal(aead cipher.AEAD, plain []byte, sessionID string) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, associatedData(sessionID)), nil
}

func unseal(aead cipher.AEAD, sealed []byte, sessionID string) ([]byte, error) {
	n := aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("ciphertext too short")
	}
	return aead.Open(nil, sealed[:n], sealed[n:], associatedData(sessionID))
}
