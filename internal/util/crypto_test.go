package util

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("4821")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if parts := strings.Split(hashed, "$"); len(parts) != 4 || parts[0] != "pbkdf2-sha256" || parts[1] != "100000" {
		t.Errorf("encoded hash = %q", hashed)
	}
	if again, _ := HashPassword("4821"); again == hashed {
		t.Error("same secret hashed twice without a fresh salt")
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("empty secret err = %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hashed, _ := HashPassword("4821")
	parts := strings.Split(hashed, "$")

	tests := []struct {
		name    string
		secret  string
		encoded string
		want    bool
	}{
		{"match", "4821", hashed, true},
		{"wrong secret", "1284", hashed, false},
		{"empty secret", "", hashed, false},
		{"empty hash", "4821", "", false},
		{"old salt$hash form", "4821", parts[2] + "$" + parts[3], false},
		{"other scheme", "4821", "bcrypt$" + strings.Join(parts[1:], "$"), false},
		{"zero iterations", "4821", strings.Join([]string{parts[0], "0", parts[2], parts[3]}, "$"), false},
		{"bad salt", "4821", strings.Join([]string{parts[0], parts[1], "!!", parts[3]}, "$"), false},
	}
	for _, tt := range tests {
		if got := CheckPassword(tt.secret, tt.encoded); got != tt.want {
			t.Errorf("%s: CheckPassword = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEncryptDecryptAES(t *testing.T) {
	key := "ledger-key"
	for _, plaintext := range []string{
		`{"transactions":[],"currency":"₹"}`,
		"₹1,250 debited at Swiggy",
		"",
		strings.Repeat("A", 1000),
	} {
		sealed, err := EncryptAES(key, []byte(plaintext))
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}
		if plaintext != "" && bytes.Contains(sealed, []byte(plaintext)) {
			t.Errorf("plaintext visible in ciphertext: %q", plaintext)
		}
		opened, err := DecryptAES(key, sealed)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plaintext, err)
		}
		if string(opened) != plaintext {
			t.Errorf("round trip = %q, want %q", opened, plaintext)
		}
	}
}

func TestEncryptAES_FreshNonce(t *testing.T) {
	a, _ := EncryptAES("k", []byte("same"))
	b, _ := EncryptAES("k", []byte("same"))
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext are identical")
	}
}

func TestDecryptAES_Rejects(t *testing.T) {
	sealed, _ := EncryptAES("right", []byte("data"))

	if _, err := DecryptAES("wrong", sealed); err == nil {
		t.Error("wrong key accepted")
	}
	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := DecryptAES("right", tampered); err == nil {
		t.Error("tampered ciphertext accepted")
	}
	for _, short := range [][]byte{nil, {1, 2, 3}, sealed[:20]} {
		if _, err := DecryptAES("right", short); !errors.Is(err, ErrShortCiphertext) {
			t.Errorf("len %d: err = %v, want ErrShortCiphertext", len(short), err)
		}
	}
}

func TestEncryptString(t *testing.T) {
	enc, err := EncryptString("log-key", []byte(`["e1: bad amount"]`))
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	plain, err := DecryptString("log-key", enc)
	if err != nil || string(plain) != `["e1: bad amount"]` {
		t.Errorf("DecryptString = %q, %v", plain, err)
	}
	if _, err := DecryptString("log-key", `["e1: bad amount"]`); err == nil {
		t.Error("plain JSON accepted as ciphertext")
	}
}

// ==================== benchmarks ====================

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashPassword("4821")
	}
}

func BenchmarkEncryptAES(b *testing.B) {
	data := bytes.Repeat([]byte("x"), 4096)
	for i := 0; i < b.N; i++ {
		EncryptAES("bench-key", data)
	}
}
