package pbemarker

import (
	"crypto/md5"
	"crypto/rand"
	"errors"
	"fmt"
	"hash"
	"unicode/utf16"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// KeyDeriver turns a password and salt into cipher key material
type KeyDeriver interface {
	// DeriveKey returns keyLen bytes of key and ivLen bytes of IV.
	// Derivers that cannot produce an IV require ivLen to be 0.
	DeriveKey(password string, salt []byte, keyLen, ivLen int) (key, iv []byte, err error)
}

// KDFKind identifies a password-based key derivation function
type KDFKind uint8

const (
	// KDFPBKDF1 is PKCS#5 v1.5 key derivation (single hash chain)
	KDFPBKDF1 KDFKind = iota + 1
	// KDFMD5TripleDES is the two-chain MD5 derivation used by PBEWithMD5AndTripleDES
	KDFMD5TripleDES
	// KDFPKCS12 is the PKCS#12 v1.0 appendix B derivation
	KDFPKCS12
	// KDFPBKDF2 is PKCS#5 v2.0 key derivation with HMAC
	KDFPBKDF2
	// KDFArgon2id is the memory-hard Argon2id function
	KDFArgon2id
)

// String returns the string representation of the KDF
func (k KDFKind) String() string {
	switch k {
	case KDFPBKDF1:
		return "pbkdf1"
	case KDFMD5TripleDES:
		return "md5-tripledes"
	case KDFPKCS12:
		return "pkcs12"
	case KDFPBKDF2:
		return "pbkdf2"
	case KDFArgon2id:
		return "argon2id"
	default:
		return "unknown"
	}
}

// DerivesIV reports whether the KDF produces the IV along with the key.
// Otherwise the IV is random and travels with the ciphertext.
func (k KDFKind) DerivesIV() bool {
	switch k {
	case KDFPBKDF1, KDFMD5TripleDES, KDFPKCS12:
		return true
	default:
		return false
	}
}

// NewKeyDeriver creates the key deriver for a scheme under the given config
func NewKeyDeriver(scheme *Scheme, config *Config) (KeyDeriver, error) {
	if scheme == nil {
		return nil, errNilScheme
	}
	if config == nil {
		return nil, ErrNilConfig
	}

	switch scheme.KDF {
	case KDFPBKDF1:
		if scheme.Hash == nil {
			return nil, errors.New("pbkdf1 requires a hash function")
		}
		return &pbkdf1Deriver{hash: scheme.Hash, iterations: config.Iterations}, nil
	case KDFMD5TripleDES:
		return &md5TripleDESDeriver{iterations: config.Iterations}, nil
	case KDFPKCS12:
		if scheme.Hash == nil {
			return nil, errors.New("pkcs12 requires a hash function")
		}
		return &pkcs12Deriver{hash: scheme.Hash, iterations: config.Iterations}, nil
	case KDFPBKDF2:
		if scheme.Hash == nil {
			return nil, errors.New("pbkdf2 requires a hash function")
		}
		return &pbkdf2Deriver{hash: scheme.Hash, iterations: config.Iterations}, nil
	case KDFArgon2id:
		if err := config.Argon2.Validate(); err != nil {
			return nil, err
		}
		return &argon2Deriver{params: config.Argon2}, nil
	default:
		return nil, fmt.Errorf("unsupported key derivation function: %v", scheme.KDF)
	}
}

// pbkdf1Deriver implements PBKDF1: H^c(password || salt) split into key and IV
type pbkdf1Deriver struct {
	hash       func() hash.Hash
	iterations int
}

func (d *pbkdf1Deriver) DeriveKey(password string, salt []byte, keyLen, ivLen int) ([]byte, []byte, error) {
	h := d.hash()
	if keyLen+ivLen > h.Size() {
		return nil, nil, fmt.Errorf("pbkdf1 can derive at most %d bytes, need %d", h.Size(), keyLen+ivLen)
	}

	pw := lowBytePassword(password)
	defer zero(pw)

	h.Write(pw)
	h.Write(salt)
	digest := h.Sum(nil)
	for i := 1; i < d.iterations; i++ {
		h.Reset()
		h.Write(digest)
		digest = h.Sum(digest[:0])
	}

	key := append([]byte(nil), digest[:keyLen]...)
	iv := append([]byte(nil), digest[keyLen:keyLen+ivLen]...)
	zero(digest)
	return key, iv, nil
}

// md5TripleDESDeriver derives a 24 byte key and 8 byte IV from two MD5
// chains, one per salt half.
type md5TripleDESDeriver struct {
	iterations int
}

func (d *md5TripleDESDeriver) DeriveKey(password string, salt []byte, keyLen, ivLen int) ([]byte, []byte, error) {
	if len(salt) != 8 {
		return nil, nil, fmt.Errorf("md5-tripledes requires an 8 byte salt, got %d", len(salt))
	}
	if keyLen+ivLen > 32 {
		return nil, nil, fmt.Errorf("md5-tripledes can derive at most 32 bytes, need %d", keyLen+ivLen)
	}

	pw := lowBytePassword(password)
	defer zero(pw)

	s := append([]byte(nil), salt...)
	i := 0
	for i < 4 && s[i] == s[i+4] {
		i++
	}
	if i == 4 {
		// Identical halves: reorder the first one. s[2] is written on
		// both passes, so the result is s3 s0 s1 s3.
		for i = 0; i < 2; i++ {
			tmp := s[i]
			s[i] = s[3-i]
			s[2] = tmp
		}
	}

	h := md5.New()
	out := make([]byte, 0, 32)
	for half := 0; half < 2; half++ {
		chain := append([]byte(nil), s[half*4:half*4+4]...)
		for j := 0; j < d.iterations; j++ {
			h.Reset()
			h.Write(chain)
			h.Write(pw)
			chain = h.Sum(nil)
		}
		out = append(out, chain...)
	}

	key := append([]byte(nil), out[:keyLen]...)
	iv := append([]byte(nil), out[keyLen:keyLen+ivLen]...)
	zero(out)
	return key, iv, nil
}

// pkcs12Deriver implements the PKCS#12 appendix B derivation
type pkcs12Deriver struct {
	hash       func() hash.Hash
	iterations int
}

// PKCS#12 diversifier bytes
const (
	pkcs12KeyID = 1
	pkcs12IVID  = 2
)

func (d *pkcs12Deriver) DeriveKey(password string, salt []byte, keyLen, ivLen int) ([]byte, []byte, error) {
	pw := bmpPassword(password)
	defer zero(pw)

	key := pkcs12Derive(d.hash, pkcs12KeyID, pw, salt, d.iterations, keyLen)
	var iv []byte
	if ivLen > 0 {
		iv = pkcs12Derive(d.hash, pkcs12IVID, pw, salt, d.iterations, ivLen)
	}
	return key, iv, nil
}

// pkcs12Derive produces size bytes for diversifier id (RFC 7292 appendix B.2)
func pkcs12Derive(newHash func() hash.Hash, id byte, password, salt []byte, iterations, size int) []byte {
	h := newHash()
	u := h.Size()
	v := h.BlockSize()

	d := make([]byte, v)
	for i := range d {
		d[i] = id
	}

	// I = S || P, each filled to a multiple of v
	in := append(fillToBlock(salt, v), fillToBlock(password, v)...)
	defer zero(in)

	out := make([]byte, 0, size+u)
	b := make([]byte, v)
	for len(out) < size {
		h.Reset()
		h.Write(d)
		h.Write(in)
		a := h.Sum(nil)
		for i := 1; i < iterations; i++ {
			h.Reset()
			h.Write(a)
			a = h.Sum(a[:0])
		}
		out = append(out, a...)
		if len(out) >= size {
			break
		}

		for i := range b {
			b[i] = a[i%u]
		}
		// I_j = (I_j + B + 1) mod 2^(8v)
		for j := 0; j < len(in); j += v {
			carry := uint16(1)
			for k := v - 1; k >= 0; k-- {
				sum := uint16(in[j+k]) + uint16(b[k]) + carry
				in[j+k] = byte(sum)
				carry = sum >> 8
			}
		}
	}
	return out[:size]
}

// fillToBlock repeats data to the next multiple of v bytes
func fillToBlock(data []byte, v int) []byte {
	if len(data) == 0 {
		return nil
	}
	n := v * ((len(data) + v - 1) / v)
	out := make([]byte, n)
	for i := range out {
		out[i] = data[i%len(data)]
	}
	return out
}

// pbkdf2Deriver implements PBKDF2-HMAC. The IV is not derived.
type pbkdf2Deriver struct {
	hash       func() hash.Hash
	iterations int
}

func (d *pbkdf2Deriver) DeriveKey(password string, salt []byte, keyLen, ivLen int) ([]byte, []byte, error) {
	if ivLen != 0 {
		return nil, nil, errors.New("pbkdf2 does not derive an iv")
	}
	if len(salt) == 0 {
		return nil, nil, errors.New("salt cannot be empty")
	}

	pw := []byte(norm.NFC.String(password))
	defer zero(pw)

	return pbkdf2.Key(pw, salt, d.iterations, keyLen, d.hash), nil, nil
}

// argon2Deriver implements Argon2id. The nonce is not derived.
type argon2Deriver struct {
	params Argon2idParams
}

func (d *argon2Deriver) DeriveKey(password string, salt []byte, keyLen, ivLen int) ([]byte, []byte, error) {
	if ivLen != 0 {
		return nil, nil, errors.New("argon2id does not derive a nonce")
	}
	if len(salt) == 0 {
		return nil, nil, errors.New("salt cannot be empty")
	}

	pw := []byte(norm.NFC.String(password))
	defer zero(pw)

	key := argon2.IDKey(
		pw,
		salt,
		d.params.Iterations,
		d.params.Memory,
		d.params.Parallelism,
		uint32(keyLen),
	)
	return key, nil, nil
}

// lowBytePassword keeps the low byte of each UTF-16 code unit, the password
// encoding of the PBES1 schemes.
func lowBytePassword(password string) []byte {
	units := utf16.Encode([]rune(norm.NFC.String(password)))
	out := make([]byte, len(units))
	for i, u := range units {
		out[i] = byte(u)
	}
	return out
}

// bmpPassword encodes the password as a big-endian UTF-16 BMPString with a
// two byte terminator. An empty password stays empty.
func bmpPassword(password string) []byte {
	units := utf16.Encode([]rune(norm.NFC.String(password)))
	if len(units) == 0 {
		return nil
	}
	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return append(out, 0, 0)
}

// GenerateSalt generates a new random salt
func GenerateSalt(size int) ([]byte, error) {
	if size <= 0 {
		return nil, NewValidationError("salt_size", size, "salt size must be positive")
	}
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// zero overwrites sensitive bytes
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
