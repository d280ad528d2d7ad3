package transport

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	apperrors "voicenet/errors"
)

// secureKey derives the shared sealing key for a secure-mode key version.
// All participants of a secure net derive the same key; rotating the
// version on the net record rotates the key everywhere.
func secureKey(keyVersion int) []byte {
	sum := sha256.Sum256([]byte(fmt.Sprintf("voicenet-secure-k%d", keyVersion)))
	return sum[:]
}

// sealPayload encrypts a control packet payload under the net's secure key.
// The sealed form replaces the clear payload on the wire.
func sealPayload(payload map[string]any, keyVersion int) (map[string]any, error) {
	aead, err := chacha20poly1305.New(secureKey(keyVersion))
	if err != nil {
		return nil, err
	}
	clear, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, clear, nil)
	return map[string]any{
		"sealed":      base64.StdEncoding.EncodeToString(sealed),
		"nonce":       base64.StdEncoding.EncodeToString(nonce),
		"key_version": keyVersion,
	}, nil
}

// openPayload reverses sealPayload.
func openPayload(sealed map[string]any, keyVersion int) (map[string]any, error) {
	cipherB64, ok := sealed["sealed"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing sealed payload", apperrors.ErrSecureKeyUnknown)
	}
	nonceB64, ok := sealed["nonce"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing nonce", apperrors.ErrSecureKeyUnknown)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return nil, err
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(secureKey(keyVersion))
	if err != nil {
		return nil, err
	}
	clear, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSecureKeyUnknown, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(clear, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
