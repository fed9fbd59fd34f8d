package pbemarker

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Payload is the binary content of an ENC marker:
//
//	base64( salt || iv || ciphertext )
//
// The IV is present only for schemes that store a random IV or nonce.
type Payload struct {
	Salt       []byte // Salt for key derivation
	IV         []byte // Stored IV or nonce, empty when derived
	Ciphertext []byte // Encrypted data, including any authentication tag
}

// Size returns the decoded size of the payload in bytes
func (p *Payload) Size() int {
	return len(p.Salt) + len(p.IV) + len(p.Ciphertext)
}

// Encode returns the standard base64 encoding of the payload
func (p *Payload) Encode() string {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, p.Salt...)
	buf = append(buf, p.IV...)
	buf = append(buf, p.Ciphertext...)
	return base64.StdEncoding.EncodeToString(buf)
}

// ParsePayload decodes an ENC payload for the given scheme.
// Surrounding whitespace is ignored.
func ParsePayload(encoded string, scheme *Scheme) (*Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64: %v", ErrInvalidPayload, err)
	}

	saltSize := scheme.SaltSize()
	ivSize := scheme.StoredIVSize()
	if len(raw) < saltSize+ivSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			ErrInvalidPayload, len(raw), saltSize+ivSize)
	}

	return &Payload{
		Salt:       raw[:saltSize],
		IV:         raw[saltSize : saltSize+ivSize],
		Ciphertext: raw[saltSize+ivSize:],
	}, nil
}
