package pbemarker

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestPKCS12Derive(t *testing.T) {
	tests := []struct {
		name       string
		password   []byte
		salt       string
		iterations int
		id         byte
		size       int
		want       string
	}{
		{
			name:       "sesame",
			password:   bmpPassword("sesame"),
			salt:       "ffffffffffffffff",
			iterations: 2048,
			id:         pkcs12KeyID,
			size:       24,
			want:       "7cd9fd3e2b3be7691a44e3bef0f9ea0fb9b897d4e325d9d1",
		},
		{
			name:       "bmp terminator only",
			password:   []byte{0, 0},
			salt:       "f37e05b518324b4b",
			iterations: 2048,
			id:         pkcs12KeyID,
			size:       24,
			want:       "00f759ff47d14dd03665d5943cb3c4a39a2555c02aed66e1",
		},
		{
			name:       "password key",
			password:   bmpPassword("password"),
			salt:       "0102030405060708",
			iterations: 1000,
			id:         pkcs12KeyID,
			size:       24,
			want:       "e80bdd020155317f30b854cb9f7811817672285bf09ef90f",
		},
		{
			name:       "password iv",
			password:   bmpPassword("password"),
			salt:       "0102030405060708",
			iterations: 1000,
			id:         pkcs12IVID,
			size:       8,
			want:       "2768917cf9f433b0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pkcs12Derive(sha1.New, tt.id, tt.password, mustHex(t, tt.salt), tt.iterations, tt.size)
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("pkcs12Derive() = %x, want %s", got, tt.want)
			}
		})
	}
}

func TestPKCS12Deriver(t *testing.T) {
	d := &pkcs12Deriver{hash: sha1.New, iterations: 1000}
	salt := mustHex(t, "0102030405060708")

	key, iv, err := d.DeriveKey("password", salt, 24, 8)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if hex.EncodeToString(key) != "e80bdd020155317f30b854cb9f7811817672285bf09ef90f" {
		t.Errorf("key = %x", key)
	}
	if hex.EncodeToString(iv) != "2768917cf9f433b0" {
		t.Errorf("iv = %x", iv)
	}

	// A shorter key is a prefix of the longer one
	key5, _, err := d.DeriveKey("password", salt, 5, 0)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if hex.EncodeToString(key5) != "e80bdd0201" {
		t.Errorf("40-bit key = %x, want e80bdd0201", key5)
	}
}

func TestPBKDF1Deriver(t *testing.T) {
	d := &pbkdf1Deriver{hash: md5.New, iterations: 1000}

	key, iv, err := d.DeriveKey("password", mustHex(t, "78578e5a5d63cb06"), 8, 8)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if hex.EncodeToString(key) != "c11246e6b87e77a0" {
		t.Errorf("key = %x, want c11246e6b87e77a0", key)
	}
	if hex.EncodeToString(iv) != "9ab0643de76e1ea7" {
		t.Errorf("iv = %x, want 9ab0643de76e1ea7", iv)
	}

	if _, _, err := d.DeriveKey("password", mustHex(t, "78578e5a5d63cb06"), 16, 8); err == nil {
		t.Error("expected error when asking md5 for 24 bytes")
	}
}

func TestMD5TripleDESDeriver(t *testing.T) {
	d := &md5TripleDESDeriver{iterations: 1000}

	tests := []struct {
		name string
		salt string
		key  string
		iv   string
	}{
		{
			name: "distinct halves",
			salt: "0102030405060708",
			key:  "d5eaafce923b5a7fabaeedf0d6654caa9f7b8b7e09fdbd81",
			iv:   "f455eaae71c8eea3",
		},
		{
			name: "identical halves",
			salt: "0a0b0c0d0a0b0c0d",
			key:  "1bf1d7b9bf3355e6b49ab1953b1ab41faef098e7f0a855e0",
			iv:   "d0f1495c995e4070",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt := mustHex(t, tt.salt)
			orig := append([]byte(nil), salt...)

			key, iv, err := d.DeriveKey("password", salt, 24, 8)
			if err != nil {
				t.Fatalf("DeriveKey failed: %v", err)
			}
			if hex.EncodeToString(key) != tt.key {
				t.Errorf("key = %x, want %s", key, tt.key)
			}
			if hex.EncodeToString(iv) != tt.iv {
				t.Errorf("iv = %x, want %s", iv, tt.iv)
			}
			if !bytes.Equal(salt, orig) {
				t.Error("DeriveKey modified the caller's salt")
			}
		})
	}

	if _, _, err := d.DeriveKey("password", []byte{1, 2, 3}, 24, 8); err == nil {
		t.Error("expected error for short salt")
	}
}

func TestPBKDF2Deriver(t *testing.T) {
	d := &pbkdf2Deriver{hash: sha256.New, iterations: 1000}
	salt := bytes.Repeat([]byte{0x42}, 16)

	key1, iv, err := d.DeriveKey("password", salt, 32, 0)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(key1) != 32 || iv != nil {
		t.Fatalf("got key %d bytes, iv %v", len(key1), iv)
	}

	key2, _, _ := d.DeriveKey("password", salt, 32, 0)
	if !bytes.Equal(key1, key2) {
		t.Error("same password and salt should produce the same key")
	}

	key3, _, _ := d.DeriveKey("different", salt, 32, 0)
	if bytes.Equal(key1, key3) {
		t.Error("different passwords should produce different keys")
	}

	if _, _, err := d.DeriveKey("password", salt, 32, 16); err == nil {
		t.Error("expected error when asking pbkdf2 for an iv")
	}
	if _, _, err := d.DeriveKey("password", nil, 32, 0); err == nil {
		t.Error("expected error for empty salt")
	}
}

func TestArgon2Deriver(t *testing.T) {
	d := &argon2Deriver{params: Argon2idParams{Memory: 64, Iterations: 1, Parallelism: 1}}
	salt := bytes.Repeat([]byte{0x01}, 16)

	key, _, err := d.DeriveKey("password", salt, 32, 0)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}

	if _, _, err := d.DeriveKey("password", salt, 32, 12); err == nil {
		t.Error("expected error when asking argon2id for a nonce")
	}
}

func TestPasswordNormalization(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	if !bytes.Equal(bmpPassword(composed), bmpPassword(decomposed)) {
		t.Error("bmpPassword should normalize to NFC")
	}
	if !bytes.Equal(lowBytePassword(composed), lowBytePassword(decomposed)) {
		t.Error("lowBytePassword should normalize to NFC")
	}

	d := &pbkdf2Deriver{hash: sha256.New, iterations: 10}
	salt := []byte("0123456789abcdef")
	k1, _, _ := d.DeriveKey(composed, salt, 16, 0)
	k2, _, _ := d.DeriveKey(decomposed, salt, 16, 0)
	if !bytes.Equal(k1, k2) {
		t.Error("pbkdf2 keys differ for equivalent passwords")
	}
}

func TestBMPPassword(t *testing.T) {
	if got := bmpPassword(""); got != nil {
		t.Errorf("bmpPassword(\"\") = %x, want empty", got)
	}
	if got := hex.EncodeToString(bmpPassword("ab")); got != "006100620000" {
		t.Errorf("bmpPassword(\"ab\") = %s, want 006100620000", got)
	}
	// Characters outside the BMP become surrogate pairs
	if got := hex.EncodeToString(bmpPassword("\U0001F600")); got != "d83dde000000" {
		t.Errorf("bmpPassword(emoji) = %s", got)
	}
}

func TestLowBytePassword(t *testing.T) {
	if got := hex.EncodeToString(lowBytePassword("a\u0141")); got != "6141" {
		t.Errorf("lowBytePassword = %s, want 6141", got)
	}
}

func TestNewKeyDeriver(t *testing.T) {
	config := DefaultConfig()

	for _, s := range builtinSchemes() {
		t.Run(s.Name, func(t *testing.T) {
			kd, err := NewKeyDeriver(s, config)
			if err != nil {
				t.Fatalf("NewKeyDeriver failed: %v", err)
			}
			if kd == nil {
				t.Fatal("NewKeyDeriver returned nil")
			}
		})
	}

	if _, err := NewKeyDeriver(nil, config); err == nil {
		t.Error("expected error for nil scheme")
	}
	if _, err := NewKeyDeriver(builtinSchemes()[0], nil); err == nil {
		t.Error("expected error for nil config")
	}

	bad := &Config{Argon2: Argon2idParams{}}
	argon := &Scheme{Name: "x", KDF: KDFArgon2id, Cipher: CipherAESGCM, KeySize: 32}
	if _, err := NewKeyDeriver(argon, bad); err == nil {
		t.Error("expected error for zero argon2 params")
	}
}

func TestGenerateSalt(t *testing.T) {
	s1, err := GenerateSalt(16)
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	s2, _ := GenerateSalt(16)
	if len(s1) != 16 {
		t.Errorf("salt length = %d, want 16", len(s1))
	}
	if bytes.Equal(s1, s2) {
		t.Error("two salts should differ")
	}
	if _, err := GenerateSalt(0); !IsValidationError(err) {
		t.Errorf("GenerateSalt(0) error = %v, want validation error", err)
	}
}
