package pbemarker

import (
	"fmt"
	"sync"
)

// Toggler rewrites ENC/DEC markers under one configuration.
// A Toggler holds no key material and is safe for concurrent use.
type Toggler struct {
	config   *Config
	registry *Registry
	matcher  *matcher
}

// New creates a toggler. Zero fields of config are filled with defaults.
func New(config *Config) (*Toggler, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	cfg := config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Toggler{
		config:   cfg,
		registry: cfg.Registry,
		matcher:  matcherFor(cfg.MatchMode),
	}, nil
}

// Config returns a copy of the toggler configuration
func (t *Toggler) Config() Config {
	cfg := *t.config
	cfg.Fallback = append([]string(nil), cfg.Fallback...)
	return cfg
}

var defaultToggler = sync.OnceValue(func() *Toggler {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("pbemarker: invalid default config: %v", err))
	}
	return t
})

// Default returns the toggler used by the package-level functions
func Default() *Toggler {
	return defaultToggler()
}

// ListAlgorithms returns the catalog of the default toggler
func ListAlgorithms() []string {
	return Default().ListAlgorithms()
}

// Discover returns the algorithms found by the default toggler's providers
func Discover() ([]string, error) {
	return Default().Discover()
}

// Recommend picks a default algorithm from a discovered set
func Recommend(discovered []string) string {
	return Default().Recommend(discovered)
}

// ListAlgorithmsWithRecommendation returns the catalog and its recommended entry
func ListAlgorithmsWithRecommendation() ([]string, string) {
	return Default().ListAlgorithmsWithRecommendation()
}

// NewEncryptor creates an encryptor with the default configuration
func NewEncryptor(ctx EncryptionContext) *Encryptor {
	return Default().NewEncryptor(ctx)
}

// Transform rewrites every marker in content with the default configuration
func Transform(content, password, algorithm string, dir Direction) (string, error) {
	return Default().Transform(content, password, algorithm, dir)
}

// Rekey re-encrypts every ENC marker in content with the default configuration
func Rekey(content string, from, to EncryptionContext) (string, error) {
	return Default().Rekey(content, from, to)
}

// Scan reports the markers a transformation in dir would rewrite
func Scan(content string, dir Direction) []Marker {
	return Default().Scan(content, dir)
}
