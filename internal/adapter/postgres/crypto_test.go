package postgres

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveKey("test-secret")
	plaintext := []byte("lin_oauth_abc123")

	ct, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ct, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := Decrypt(ct, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	ct, err := Encrypt([]byte("secret value"), DeriveKey("key-one"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ct, DeriveKey("key-two")); err == nil {
		t.Fatal("expected error decrypting with wrong key")
	}
}

func TestDecryptShortCiphertext(t *testing.T) {
	if _, err := Decrypt([]byte("short"), DeriveKey("k")); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	a := DeriveKey("same")
	b := DeriveKey("same")
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical keys for identical secrets")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(a))
	}
}
