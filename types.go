package pbemarker

import "fmt"

// Built-in algorithm names
const (
	PBEWithMD5AndDES       = "PBEWithMD5AndDES"
	PBEWithMD5AndTripleDES = "PBEWithMD5AndTripleDES"
	PBEWithSHA1AndDESede   = "PBEWithSHA1AndDESede"
	PBEWithSHA1AndRC2_40   = "PBEWithSHA1AndRC2_40"
	PBEWithSHA1AndRC2_128  = "PBEWithSHA1AndRC2_128"
	PBEWithSHA1AndRC4_40   = "PBEWithSHA1AndRC4_40"
	PBEWithSHA1AndRC4_128  = "PBEWithSHA1AndRC4_128"

	PBEWithHmacSHA1AndAES_128   = "PBEWithHmacSHA1AndAES_128"
	PBEWithHmacSHA1AndAES_256   = "PBEWithHmacSHA1AndAES_256"
	PBEWithHmacSHA224AndAES_128 = "PBEWithHmacSHA224AndAES_128"
	PBEWithHmacSHA224AndAES_256 = "PBEWithHmacSHA224AndAES_256"
	PBEWithHmacSHA256AndAES_128 = "PBEWithHmacSHA256AndAES_128"
	PBEWithHmacSHA256AndAES_256 = "PBEWithHmacSHA256AndAES_256"
	PBEWithHmacSHA384AndAES_128 = "PBEWithHmacSHA384AndAES_128"
	PBEWithHmacSHA384AndAES_256 = "PBEWithHmacSHA384AndAES_256"
	PBEWithHmacSHA512AndAES_128 = "PBEWithHmacSHA512AndAES_128"
	PBEWithHmacSHA512AndAES_256 = "PBEWithHmacSHA512AndAES_256"

	// Authenticated variants. A wrong password or a tampered payload is
	// reported by the AEAD tag check instead of a padding error.
	PBEWithArgon2idAndAES_256GCM       = "PBEWithArgon2idAndAES_256GCM"
	PBEWithArgon2idAndChaCha20Poly1305 = "PBEWithArgon2idAndChaCha20Poly1305"
)

// fallbackAlgorithms is offered for manual selection even when discovery
// finds nothing. The last entry keeps its historical upper-case spelling.
var fallbackAlgorithms = [...]string{
	PBEWithMD5AndDES,
	PBEWithMD5AndTripleDES,
	PBEWithSHA1AndDESede,
	PBEWithSHA1AndRC2_40,
	"PBEWITHHMACSHA512ANDAES_256",
}

// FallbackAlgorithms returns a copy of the built-in fallback list.
// The first entry is the default recommendation when discovery is empty.
func FallbackAlgorithms() []string {
	list := fallbackAlgorithms
	return list[:]
}

// Direction selects which marker is rewritten by a transformation
type Direction uint8

const (
	// Encrypt rewrites DEC(plaintext) into ENC(ciphertext)
	Encrypt Direction = iota
	// Decrypt rewrites ENC(ciphertext) into DEC(plaintext)
	Decrypt
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case Encrypt:
		return "encrypt"
	case Decrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}

// source is the marker consumed in this direction.
func (d Direction) source() string {
	if d == Decrypt {
		return MarkerEncrypted
	}
	return MarkerDecrypted
}

// target is the marker produced in this direction.
func (d Direction) target() string {
	if d == Decrypt {
		return MarkerDecrypted
	}
	return MarkerEncrypted
}

// Marker prefixes
const (
	MarkerEncrypted = "ENC"
	MarkerDecrypted = "DEC"
)

// MatchMode controls where a marker payload ends
type MatchMode uint8

const (
	// MatchGreedy extends the payload to the last ')' on the line, so
	// "DEC(a)x DEC(b)" is a single marker with payload "a)x DEC(b".
	MatchGreedy MatchMode = iota
	// MatchShortest ends the payload at the first ')'.
	MatchShortest
)

// String returns the string representation of the match mode
func (m MatchMode) String() string {
	switch m {
	case MatchGreedy:
		return "greedy"
	case MatchShortest:
		return "shortest"
	default:
		return "unknown"
	}
}

// EncryptionContext is the password and algorithm used for one call.
// It is a plain value; nothing derived from it outlives the call.
type EncryptionContext struct {
	Password  string
	Algorithm string
}

// NewEncryptionContext creates an encryption context.
// An empty password is accepted; validating it is up to the caller.
func NewEncryptionContext(password, algorithm string) EncryptionContext {
	return EncryptionContext{Password: password, Algorithm: algorithm}
}

// String never includes the password
func (c EncryptionContext) String() string {
	return fmt.Sprintf("EncryptionContext{Algorithm: %q}", c.Algorithm)
}

// Argon2idParams contains parameters for the Argon2id schemes
type Argon2idParams struct {
	Memory      uint32 // Memory in KiB
	Iterations  uint32 // Number of passes
	Parallelism uint8  // Degree of parallelism
}

// DefaultArgon2idParams returns the Argon2id cost used when none is configured.
// Every marker derives its own key, so the cost is kept near the OWASP minimum.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Memory:      19 * 1024,
		Iterations:  2,
		Parallelism: 1,
	}
}

// Validate checks the Argon2id parameters
func (p Argon2idParams) Validate() error {
	if p.Memory < 8*uint32(p.Parallelism) {
		return NewValidationError("argon2.memory", p.Memory, "memory must be at least 8 KiB per lane")
	}
	if p.Iterations == 0 {
		return NewValidationError("argon2.iterations", p.Iterations, "iterations must be at least 1")
	}
	if p.Parallelism == 0 {
		return NewValidationError("argon2.parallelism", p.Parallelism, "parallelism must be at least 1")
	}
	return nil
}

// DefaultIterations is the key obtention iteration count for the PBES1,
// PKCS#12 and PBKDF2 schemes.
const DefaultIterations = 1000

// Config holds the settings shared by every operation of a Toggler
type Config struct {
	// Iterations is the key obtention iteration count (default 1000)
	Iterations int

	// Argon2 is the cost of the Argon2id schemes
	Argon2 Argon2idParams

	// MatchMode selects greedy (default) or shortest payload matching
	MatchMode MatchMode

	// Parallel controls the payload worker pool
	Parallel ParallelConfig

	// Registry supplies the algorithms. Nil means DefaultRegistry().
	Registry *Registry

	// Fallback is merged into every catalog. Nil means FallbackAlgorithms().
	Fallback []string
}

// DefaultConfig returns a configuration with every default filled in
func DefaultConfig() *Config {
	return &Config{
		Iterations: DefaultIterations,
		Argon2:     DefaultArgon2idParams(),
		MatchMode:  MatchGreedy,
		Parallel:   DefaultParallelConfig(),
		Registry:   DefaultRegistry(),
		Fallback:   FallbackAlgorithms(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if err := ValidateIterations(c.Iterations); err != nil {
		return err
	}
	if err := c.Argon2.Validate(); err != nil {
		return err
	}
	if c.MatchMode != MatchGreedy && c.MatchMode != MatchShortest {
		return NewValidationError("match_mode", c.MatchMode, "unsupported match mode")
	}
	if err := c.Parallel.Validate(); err != nil {
		return &ValidationError{Field: "parallel", Message: err.Error(), Err: err}
	}
	if c.Fallback != nil && len(c.Fallback) == 0 {
		return NewValidationError("fallback", c.Fallback, "fallback list cannot be empty")
	}
	for _, name := range c.Fallback {
		if err := ValidateAlgorithmName(name); err != nil {
			return err
		}
	}
	return nil
}

// withDefaults returns a copy of c with zero values replaced by defaults
func (c *Config) withDefaults() *Config {
	out := *c
	if out.Iterations == 0 {
		out.Iterations = DefaultIterations
	}
	if out.Argon2 == (Argon2idParams{}) {
		out.Argon2 = DefaultArgon2idParams()
	}
	if out.Registry == nil {
		out.Registry = DefaultRegistry()
	}
	if out.Fallback == nil {
		out.Fallback = FallbackAlgorithms()
	} else {
		out.Fallback = append([]string(nil), out.Fallback...)
	}
	return &out
}
