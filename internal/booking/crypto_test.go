package booking

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	if got := DeriveKey(""); got != nil {
		t.Fatalf("empty material should yield no key, got %d bytes", len(got))
	}
	if got := DeriveKey("   "); got != nil {
		t.Fatalf("blank material should yield no key, got %d bytes", len(got))
	}

	exact := strings.Repeat("k", 32)
	if got := DeriveKey(exact); !bytes.Equal(got, []byte(exact)) {
		t.Fatalf("32-byte material should pass through unchanged")
	}

	short := "not-32-bytes"
	want := sha256.Sum256([]byte(short))
	if got := DeriveKey(short); !bytes.Equal(got, want[:]) {
		t.Fatalf("short material should be hashed down to 32 bytes")
	}

	raw := bytes.Repeat([]byte{0xAB}, 32)
	encoded := "base64:" + base64.StdEncoding.EncodeToString(raw)
	if got := DeriveKey(encoded); !bytes.Equal(got, raw) {
		t.Fatalf("base64 material should decode before use")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveKey("test-key")
	plain := []byte(`{"appointments":[]}`)

	sealed, err := encryptPayload(plain, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !bytes.HasPrefix(sealed, []byte(encMarker)) {
		t.Fatalf("ciphertext missing %q marker: %q", encMarker, sealed[:10])
	}

	got, err := decryptPayload(sealed, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plain)
	}
}

func TestEncryptWithoutKeyIsPlaintext(t *testing.T) {
	plain := []byte(`{"appointments":[]}`)
	out, err := encryptPayload(plain, nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("nil key must keep the payload as-is")
	}
}

func TestDecryptPlaintextPassthrough(t *testing.T) {
	plain := []byte(`{"appointments":[]}`)
	got, err := decryptPayload(plain, DeriveKey("whatever"))
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("unmarked payload should be returned untouched")
	}
}

func TestDecryptWithoutKeyFailsClosed(t *testing.T) {
	sealed, err := encryptPayload([]byte("secret"), DeriveKey("k1"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, err = decryptPayload(sealed, nil)
	if !errors.Is(err, ErrNoEncryptionKey) {
		t.Fatalf("want ErrNoEncryptionKey, got %v", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := encryptPayload([]byte("secret"), DeriveKey("k1"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, err = decryptPayload(sealed, DeriveKey("k2"))
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("want ErrDecryptFailed, got %v", err)
	}
}

func TestDecryptTruncatedPayload(t *testing.T) {
	_, err := decryptPayload([]byte(encMarker+"AAAA"), DeriveKey("k1"))
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("want ErrDecryptFailed, got %v", err)
	}
}
