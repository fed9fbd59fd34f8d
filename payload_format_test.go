package pbemarker

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func builtinScheme(t *testing.T, name string) *Scheme {
	t.Helper()

	s, ok := NewBuiltinProvider().Scheme(name)
	if !ok {
		t.Fatalf("builtin scheme %s not found", name)
	}
	return s
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		algorithm string
		saltSize  int
		ivSize    int
	}{
		{PBEWithMD5AndDES, 8, 0},
		{PBEWithSHA1AndRC4_128, 8, 0},
		{PBEWithHmacSHA256AndAES_128, 16, 16},
		{PBEWithArgon2idAndAES_256GCM, 16, 12},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			scheme := builtinScheme(t, tt.algorithm)

			raw := make([]byte, tt.saltSize+tt.ivSize+20)
			for i := range raw {
				raw[i] = byte(i)
			}

			p, err := ParsePayload(" "+base64.StdEncoding.EncodeToString(raw)+"\t", scheme)
			if err != nil {
				t.Fatalf("ParsePayload failed: %v", err)
			}
			if len(p.Salt) != tt.saltSize {
				t.Errorf("salt size = %d, want %d", len(p.Salt), tt.saltSize)
			}
			if len(p.IV) != tt.ivSize {
				t.Errorf("iv size = %d, want %d", len(p.IV), tt.ivSize)
			}
			if len(p.Ciphertext) != 20 {
				t.Errorf("ciphertext size = %d, want 20", len(p.Ciphertext))
			}
			if p.Size() != len(raw) {
				t.Errorf("Size() = %d, want %d", p.Size(), len(raw))
			}

			decoded, err := base64.StdEncoding.DecodeString(p.Encode())
			if err != nil {
				t.Fatalf("Encode produced invalid base64: %v", err)
			}
			if !bytes.Equal(decoded, raw) {
				t.Error("Encode does not reproduce the parsed bytes")
			}
		})
	}
}

func TestParsePayloadErrors(t *testing.T) {
	scheme := builtinScheme(t, PBEWithHmacSHA256AndAES_128)

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "not*base64"},
		{"shorter than salt", base64.StdEncoding.EncodeToString(make([]byte, 10))},
		{"missing iv", base64.StdEncoding.EncodeToString(make([]byte, 20))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload(tt.encoded, scheme)
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("ParsePayload() error = %v, want ErrInvalidPayload", err)
			}
		})
	}
}
