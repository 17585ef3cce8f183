package utils

import (
	"errors"
	"testing"

	"telereach/config"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"

	plain := "1BVtsOKABu...telegram-session-blob"
	sealed, err := Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == plain {
		t.Fatal("ciphertext equals plaintext")
	}

	got, err := Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != plain {
		t.Fatalf("round trip mismatch: got %q want %q", got, plain)
	}
}

func TestEncryptEmptyStringPassesThrough(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"

	sealed, err := Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("empty encrypt: got (%q, %v)", sealed, err)
	}
	plain, err := Decrypt("")
	if err != nil || plain != "" {
		t.Fatalf("empty decrypt: got (%q, %v)", plain, err)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"

	sealed, err := Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip a character in the base64 envelope
	tampered := []byte(sealed)
	if tampered[len(tampered)-5] == 'A' {
		tampered[len(tampered)-5] = 'B'
	} else {
		tampered[len(tampered)-5] = 'A'
	}

	if _, err := Decrypt(string(tampered)); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("tampered decrypt: got %v, want ErrCiphertextInvalid", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	config.AppConfig.EncryptionKey = "first-key"
	sealed, err := Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	config.AppConfig.EncryptionKey = "second-key"
	if _, err := Decrypt(sealed); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("wrong-key decrypt: got %v, want ErrCiphertextInvalid", err)
	}
}

func TestDecryptGarbageInput(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-key"

	for _, input := range []string{"not base64 at all!!!", "QQ=="} {
		if _, err := Decrypt(input); !errors.Is(err, ErrCiphertextInvalid) {
			t.Fatalf("garbage decrypt %q: got %v, want ErrCiphertextInvalid", input, err)
		}
	}
}
