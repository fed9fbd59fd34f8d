package pbemarker

import (
	"crypto/rand"
	"errors"
	"fmt"
	"unicode/utf8"
)

// errInvalidUTF8 reports a decrypted payload that is not text
var errInvalidUTF8 = errors.New("decrypted payload is not valid UTF-8")

// Encryptor encrypts and decrypts single payloads for one EncryptionContext.
//
// The algorithm is resolved and the key derived on every call; nothing is
// cached between calls, so an Encryptor is safe for concurrent use.
type Encryptor struct {
	ctx      EncryptionContext
	config   *Config
	registry *Registry
}

// NewEncryptor creates an encryptor for ctx. An unknown algorithm is not an
// error here; it is reported by Encrypt and Decrypt.
func (t *Toggler) NewEncryptor(ctx EncryptionContext) *Encryptor {
	return &Encryptor{
		ctx:      ctx,
		config:   t.config,
		registry: t.registry,
	}
}

// Algorithm returns the algorithm name the encryptor was built with
func (e *Encryptor) Algorithm() string {
	return e.ctx.Algorithm
}

// scheme resolves the algorithm and its key deriver
func (e *Encryptor) scheme() (*Scheme, KeyDeriver, error) {
	scheme, err := e.registry.Resolve(e.ctx.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	kd, err := NewKeyDeriver(scheme, e.config)
	if err != nil {
		return nil, nil, NewAlgorithmError(e.ctx.Algorithm, err)
	}
	return scheme, kd, nil
}

// engine derives the key for salt and creates the cipher engine. The
// returned IV is nil when the scheme stores its IV in the payload. A panic
// while setting up the key is reported as an *AlgorithmError.
func (e *Encryptor) engine(scheme *Scheme, kd KeyDeriver, salt []byte) (engine CipherEngine, iv []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, iv = nil, nil
			err = NewAlgorithmError(e.ctx.Algorithm, fmt.Errorf("panic in key setup: %v", r))
		}
	}()

	key, iv, err := kd.DeriveKey(e.ctx.Password, salt, scheme.KeySize, scheme.DerivedIVSize())
	if err != nil {
		return nil, nil, NewAlgorithmError(e.ctx.Algorithm, fmt.Errorf("failed to derive key: %w", err))
	}
	defer zero(key)

	engine, err = NewCipherEngine(scheme.Cipher, key, scheme.EffectiveKeyBits)
	if err != nil {
		return nil, nil, NewAlgorithmError(e.ctx.Algorithm, err)
	}
	return engine, iv, nil
}

// Encrypt encrypts the UTF-8 bytes of plaintext as given and returns the
// base64 payload. Only the password is NFC-normalised. A fresh salt, and IV
// where the scheme stores one, is drawn for every call.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	scheme, kd, err := e.scheme()
	if err != nil {
		return "", err
	}

	salt, err := GenerateSalt(scheme.SaltSize())
	if err != nil {
		return "", err
	}

	engine, iv, err := e.engine(scheme, kd, salt)
	if err != nil {
		return "", err
	}

	var stored []byte
	if n := scheme.StoredIVSize(); n > 0 {
		stored = make([]byte, n)
		if _, err := rand.Read(stored); err != nil {
			return "", fmt.Errorf("failed to generate iv: %w", err)
		}
		iv = stored
	}

	ciphertext, err := engine.Encrypt(iv, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}

	p := Payload{Salt: salt, IV: stored, Ciphertext: ciphertext}
	return p.Encode(), nil
}

// Decrypt decrypts a base64 payload produced by Encrypt with the same
// password and algorithm.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	scheme, kd, err := e.scheme()
	if err != nil {
		return "", err
	}

	p, err := ParsePayload(encoded, scheme)
	if err != nil {
		return "", NewDecryptionError(e.ctx.Algorithm, err)
	}

	engine, iv, err := e.engine(scheme, kd, p.Salt)
	if err != nil {
		return "", err
	}
	if len(p.IV) > 0 {
		iv = p.IV
	}

	if len(p.Ciphertext) < engine.MinCiphertextSize() {
		return "", NewDecryptionError(e.ctx.Algorithm,
			fmt.Errorf("%w: ciphertext too short", ErrInvalidPayload))
	}

	plaintext, err := engine.Decrypt(iv, p.Ciphertext)
	if err != nil {
		return "", NewDecryptionError(e.ctx.Algorithm, err)
	}
	if !utf8.Valid(plaintext) {
		zero(plaintext)
		return "", NewDecryptionError(e.ctx.Algorithm, errInvalidUTF8)
	}

	return string(plaintext), nil
}
