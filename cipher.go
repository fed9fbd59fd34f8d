package pbemarker

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rc4"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherKind identifies the cipher a scheme encrypts with
type CipherKind uint8

const (
	// CipherDES is single DES in CBC mode with PKCS#5 padding
	CipherDES CipherKind = iota + 1
	// CipherDESede is triple DES (EDE) in CBC mode with PKCS#5 padding
	CipherDESede
	// CipherRC2 is RC2 in CBC mode with PKCS#5 padding
	CipherRC2
	// CipherRC4 is the RC4 stream cipher
	CipherRC4
	// CipherAESCBC is AES in CBC mode with PKCS#5 padding
	CipherAESCBC
	// CipherAESGCM is AES in Galois/Counter Mode
	CipherAESGCM
	// CipherChaCha20Poly1305 is ChaCha20 with a Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher kind
func (c CipherKind) String() string {
	switch c {
	case CipherDES:
		return "des-cbc"
	case CipherDESede:
		return "desede-cbc"
	case CipherRC2:
		return "rc2-cbc"
	case CipherRC4:
		return "rc4"
	case CipherAESCBC:
		return "aes-cbc"
	case CipherAESGCM:
		return "aes-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// BlockSize returns the cipher block size, 0 for stream and AEAD ciphers
func (c CipherKind) BlockSize() int {
	switch c {
	case CipherDES, CipherDESede:
		return des.BlockSize
	case CipherRC2:
		return rc2BlockSize
	case CipherAESCBC:
		return aes.BlockSize
	default:
		return 0
	}
}

// IVSize returns the size of the IV or nonce the cipher consumes
func (c CipherKind) IVSize() int {
	switch c {
	case CipherDES, CipherDESede, CipherRC2, CipherAESCBC:
		return c.BlockSize()
	case CipherAESGCM:
		return 12 // GCM standard nonce size
	case CipherChaCha20Poly1305:
		return chacha20poly1305.NonceSize
	default:
		return 0
	}
}

// CipherEngine encrypts and decrypts whole payloads
type CipherEngine interface {
	// Encrypt encrypts plaintext with the given IV
	Encrypt(iv, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext with the given IV
	Decrypt(iv, ciphertext []byte) ([]byte, error)

	// IVSize returns the size of IVs in bytes
	IVSize() int

	// MinCiphertextSize returns the smallest ciphertext Decrypt can accept
	MinCiphertextSize() int
}

// NewCipherEngine creates a cipher engine for the given kind and key.
// effectiveBits is only used by RC2.
func NewCipherEngine(kind CipherKind, key []byte, effectiveBits int) (CipherEngine, error) {
	switch kind {
	case CipherDES:
		if err := ValidateKey(key, 8); err != nil {
			return nil, err
		}
		block, err := des.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create DES cipher: %w", err)
		}
		return &CBCEngine{block: block}, nil
	case CipherDESede:
		if err := ValidateKey(key, 24); err != nil {
			return nil, err
		}
		block, err := des.NewTripleDESCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create DESede cipher: %w", err)
		}
		return &CBCEngine{block: block}, nil
	case CipherRC2:
		block, err := newRC2Cipher(key, effectiveBits)
		if err != nil {
			return nil, fmt.Errorf("failed to create RC2 cipher: %w", err)
		}
		return &CBCEngine{block: block}, nil
	case CipherRC4:
		if len(key) < 1 || len(key) > 256 {
			return nil, fmt.Errorf("RC4 requires a 1 to 256 byte key, got %d bytes", len(key))
		}
		return &RC4Engine{key: append([]byte(nil), key...)}, nil
	case CipherAESCBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		return &CBCEngine{block: block}, nil
	case CipherAESGCM:
		return NewAESGCMEngine(key)
	case CipherChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	default:
		return nil, fmt.Errorf("unsupported cipher: %v", kind)
	}
}

// CBCEngine implements CipherEngine with CBC mode and PKCS#5 padding
type CBCEngine struct {
	block cipher.Block
}

// Encrypt pads and encrypts plaintext
func (e *CBCEngine) Encrypt(iv, plaintext []byte) ([]byte, error) {
	if err := ValidateIV(iv, e.IVSize()); err != nil {
		return nil, err
	}

	padded := pkcs5Pad(plaintext, e.block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt decrypts ciphertext and strips the padding
func (e *CBCEngine) Decrypt(iv, ciphertext []byte) ([]byte, error) {
	if err := ValidateIV(iv, e.IVSize()); err != nil {
		return nil, err
	}

	bs := e.block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", ErrInvalidPayload, len(ciphertext), bs)
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(out, ciphertext)
	return pkcs5Unpad(out, bs)
}

// IVSize returns the block size
func (e *CBCEngine) IVSize() int {
	return e.block.BlockSize()
}

// MinCiphertextSize returns one block, the size of an empty padded message
func (e *CBCEngine) MinCiphertextSize() int {
	return e.block.BlockSize()
}

// RC4Engine implements CipherEngine with the RC4 stream cipher.
// A fresh keystream is started for every call.
type RC4Engine struct {
	key []byte
}

// Encrypt XORs plaintext with the keystream
func (e *RC4Engine) Encrypt(iv, plaintext []byte) ([]byte, error) {
	return e.xor(iv, plaintext)
}

// Decrypt XORs ciphertext with the keystream
func (e *RC4Engine) Decrypt(iv, ciphertext []byte) ([]byte, error) {
	return e.xor(iv, ciphertext)
}

func (e *RC4Engine) xor(iv, data []byte) ([]byte, error) {
	if len(iv) != 0 {
		return nil, fmt.Errorf("RC4 takes no iv, got %d bytes", len(iv))
	}
	c, err := rc4.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create RC4 cipher: %w", err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}

// IVSize returns 0, RC4 has no IV
func (e *RC4Engine) IVSize() int { return 0 }

// MinCiphertextSize returns 0
func (e *RC4Engine) MinCiphertextSize() int { return 0 }

// AEADEngine implements CipherEngine with an authenticated cipher
type AEADEngine struct {
	aead cipher.AEAD
}

// NewAESGCMEngine creates a new AES-256-GCM cipher engine
func NewAESGCMEngine(key []byte) (*AEADEngine, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("AES-256 requires a 32-byte key, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AEADEngine{aead: aead}, nil
}

// NewChaCha20Poly1305Engine creates a new ChaCha20-Poly1305 cipher engine
func NewChaCha20Poly1305Engine(key []byte) (*AEADEngine, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &AEADEngine{aead: aead}, nil
}

// Encrypt seals plaintext
func (e *AEADEngine) Encrypt(nonce, plaintext []byte) ([]byte, error) {
	if err := ValidateIV(nonce, e.IVSize()); err != nil {
		return nil, err
	}
	return e.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext and verifies its tag
func (e *AEADEngine) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if err := ValidateIV(nonce, e.IVSize()); err != nil {
		return nil, err
	}

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// IVSize returns the nonce size
func (e *AEADEngine) IVSize() int {
	return e.aead.NonceSize()
}

// MinCiphertextSize returns the authentication tag size
func (e *AEADEngine) MinCiphertextSize() int {
	return e.aead.Overhead()
}

// pkcs5Pad appends PKCS#5 padding for the given block size
func pkcs5Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs5Unpad removes and checks PKCS#5 padding
func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
