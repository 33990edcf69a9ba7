package booking

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Ciphertext envelope: "ENCv1:" + base64(IV(12) || TAG(16) || ciphertext).
// Files without the marker are plaintext, which keeps old unencrypted
// stores readable.
const encMarker = "ENCv1:"

const (
	ivSize  = 12
	tagSize = 16
)

// DeriveKey turns configured key material into a 256-bit key. A "base64:"
// prefix marks pre-encoded material; anything that is not exactly 32 bytes
// is hashed down with SHA-256.
func DeriveKey(material string) []byte {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil
	}

	raw := []byte(material)
	if encoded, ok := strings.CutPrefix(material, "base64:"); ok {
		if decoded, err := base64.StdEncoding.DecodeString(encoded); err == nil && len(decoded) > 0 {
			raw = decoded
		}
	}

	if len(raw) != 32 {
		sum := sha256.Sum256(raw)
		return sum[:]
	}
	return raw
}

func encryptPayload(plain, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return plain, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plain, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	packed := make([]byte, 0, ivSize+tagSize+len(ciphertext))
	packed = append(packed, iv...)
	packed = append(packed, tag...)
	packed = append(packed, ciphertext...)

	return []byte(encMarker + base64.StdEncoding.EncodeToString(packed)), nil
}

func decryptPayload(raw, key []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, []byte(encMarker)) {
		return raw, nil
	}
	if len(key) == 0 {
		return nil, ErrNoEncryptionKey
	}

	encoded := strings.TrimSpace(string(raw[len(encMarker):]))
	packed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64: %v", ErrDecryptFailed, err)
	}
	if len(packed) <= ivSize+tagSize {
		return nil, fmt.Errorf("%w: payload too short", ErrDecryptFailed)
	}

	iv := packed[:ivSize]
	tag := packed[ivSize : ivSize+tagSize]
	ciphertext := packed[ivSize+tagSize:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plain, nil
}
