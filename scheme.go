package pbemarker

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
)

// Scheme describes a PBE algorithm: how the password becomes a key and
// which cipher the key drives.
type Scheme struct {
	// Name is the algorithm name the scheme is registered under
	Name string

	// KDF is the key derivation function
	KDF KDFKind

	// Hash is the digest used by the KDF (unused by Argon2id)
	Hash func() hash.Hash

	// Cipher is the cipher the derived key drives
	Cipher CipherKind

	// KeySize is the derived key length in bytes
	KeySize int

	// EffectiveKeyBits is the RC2 effective key length
	EffectiveKeyBits int
}

// SaltSize returns the salt length: the cipher block size, 16 for the
// Argon2id schemes and 8 otherwise.
func (s *Scheme) SaltSize() int {
	if bs := s.Cipher.BlockSize(); bs > 0 {
		return bs
	}
	if s.KDF == KDFArgon2id {
		return 16
	}
	return 8
}

// DerivedIVSize returns how many IV bytes the KDF produces
func (s *Scheme) DerivedIVSize() int {
	if s.KDF.DerivesIV() {
		return s.Cipher.IVSize()
	}
	return 0
}

// StoredIVSize returns how many random IV bytes are stored with the ciphertext
func (s *Scheme) StoredIVSize() int {
	if s.KDF.DerivesIV() {
		return 0
	}
	return s.Cipher.IVSize()
}

// Authenticated reports whether decryption verifies an integrity tag
func (s *Scheme) Authenticated() bool {
	return s.Cipher == CipherAESGCM || s.Cipher == CipherChaCha20Poly1305
}

// Validate checks that the scheme is internally consistent
func (s *Scheme) Validate() error {
	if err := ValidateAlgorithmName(s.Name); err != nil {
		return err
	}
	if s.KDF < KDFPBKDF1 || s.KDF > KDFArgon2id {
		return NewValidationError("kdf", s.KDF, "unsupported key derivation function")
	}
	if s.Cipher < CipherDES || s.Cipher > CipherChaCha20Poly1305 {
		return NewValidationError("cipher", s.Cipher, "unsupported cipher")
	}
	if s.KeySize <= 0 {
		return NewValidationError("key_size", s.KeySize, "key size must be positive")
	}
	if s.KDF != KDFArgon2id && s.KDF != KDFMD5TripleDES && s.Hash == nil {
		return NewValidationError("hash", nil, fmt.Sprintf("%s requires a hash function", s.KDF))
	}
	if s.Cipher == CipherRC2 && s.EffectiveKeyBits <= 0 {
		return NewValidationError("effective_key_bits", s.EffectiveKeyBits, "RC2 requires effective key bits")
	}
	if s.KDF == KDFPBKDF1 && s.KeySize+s.DerivedIVSize() > s.Hash().Size() {
		return NewValidationError("key_size", s.KeySize, "pbkdf1 output too short for key and iv")
	}
	if s.KDF == KDFMD5TripleDES && s.KeySize+s.DerivedIVSize() > 32 {
		return NewValidationError("key_size", s.KeySize, "md5-tripledes output too short for key and iv")
	}
	return nil
}

// builtinSchemes lists every algorithm the built-in provider implements
func builtinSchemes() []*Scheme {
	schemes := []*Scheme{
		{Name: PBEWithMD5AndDES, KDF: KDFPBKDF1, Hash: md5.New, Cipher: CipherDES, KeySize: 8},
		{Name: PBEWithMD5AndTripleDES, KDF: KDFMD5TripleDES, Cipher: CipherDESede, KeySize: 24},
		{Name: PBEWithSHA1AndDESede, KDF: KDFPKCS12, Hash: sha1.New, Cipher: CipherDESede, KeySize: 24},
		{Name: PBEWithSHA1AndRC2_40, KDF: KDFPKCS12, Hash: sha1.New, Cipher: CipherRC2, KeySize: 5, EffectiveKeyBits: 40},
		{Name: PBEWithSHA1AndRC2_128, KDF: KDFPKCS12, Hash: sha1.New, Cipher: CipherRC2, KeySize: 16, EffectiveKeyBits: 128},
		{Name: PBEWithSHA1AndRC4_40, KDF: KDFPKCS12, Hash: sha1.New, Cipher: CipherRC4, KeySize: 5},
		{Name: PBEWithSHA1AndRC4_128, KDF: KDFPKCS12, Hash: sha1.New, Cipher: CipherRC4, KeySize: 16},
		{Name: PBEWithArgon2idAndAES_256GCM, KDF: KDFArgon2id, Cipher: CipherAESGCM, KeySize: 32},
		{Name: PBEWithArgon2idAndChaCha20Poly1305, KDF: KDFArgon2id, Cipher: CipherChaCha20Poly1305, KeySize: 32},
	}

	hmacs := []struct {
		name string
		hash func() hash.Hash
	}{
		{"SHA1", sha1.New},
		{"SHA224", sha256.New224},
		{"SHA256", sha256.New},
		{"SHA384", sha512.New384},
		{"SHA512", sha512.New},
	}
	for _, h := range hmacs {
		for _, bits := range []int{128, 256} {
			schemes = append(schemes, &Scheme{
				Name:    fmt.Sprintf("PBEWithHmac%sAndAES_%d", h.name, bits),
				KDF:     KDFPBKDF2,
				Hash:    h.hash,
				Cipher:  CipherAESCBC,
				KeySize: bits / 8,
			})
		}
	}
	return schemes
}

var errNilScheme = errors.New("scheme cannot be nil")
