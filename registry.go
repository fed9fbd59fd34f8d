package pbemarker

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ServiceCipher is the service type under which PBE algorithms are advertised
const ServiceCipher = "Cipher"

// Service is one capability advertised by a Provider
type Service struct {
	Type      string // Service category, e.g. "Cipher" or "MessageDigest"
	Algorithm string // Algorithm name within the category
}

// Provider advertises cryptographic services and resolves the PBE schemes
// it implements.
type Provider interface {
	// Name identifies the provider in diagnostics
	Name() string

	// Services lists everything the provider advertises
	Services() ([]Service, error)

	// Scheme resolves an algorithm name, case-insensitively
	Scheme(algorithm string) (*Scheme, bool)
}

// Registry is an ordered list of providers. Earlier providers win when two
// of them implement the same algorithm.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewRegistry creates a registry with the given providers in priority order
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

// DefaultRegistry returns a registry holding only the built-in provider
func DefaultRegistry() *Registry {
	return NewRegistry(NewBuiltinProvider())
}

// Register appends a provider with the lowest priority
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return NewValidationError("provider", nil, "provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.Name() == p.Name() {
			return NewValidationError("provider", p.Name(), "provider already registered")
		}
	}
	r.providers = append(r.providers, p)
	return nil
}

// Providers returns a snapshot of the registered providers
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Provider(nil), r.providers...)
}

// Resolve finds the scheme for an algorithm name
func (r *Registry) Resolve(algorithm string) (*Scheme, error) {
	if err := ValidateAlgorithmName(algorithm); err != nil {
		return nil, NewAlgorithmError(algorithm, err)
	}

	for _, p := range r.Providers() {
		s, ok := p.Scheme(algorithm)
		if !ok || s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, NewAlgorithmError(algorithm, fmt.Errorf("provider %s: %w", p.Name(), err))
		}
		cp := *s
		return &cp, nil
	}
	return nil, NewAlgorithmError(algorithm, ErrAlgorithmUnavailable)
}

// enumerate lists one provider's services, converting errors and panics
// into a DiscoveryError.
func enumerate(p Provider) (services []Service, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			services = nil
			err = &DiscoveryError{Provider: p.Name(), Err: fmt.Errorf("panic during enumeration: %v", rec)}
		}
	}()

	services, err = p.Services()
	if err != nil {
		return nil, &DiscoveryError{Provider: p.Name(), Err: err}
	}
	return services, nil
}

// SchemeProvider is a Provider backed by a fixed set of schemes
type SchemeProvider struct {
	name    string
	schemes map[string]*Scheme
	names   []string
	extra   []Service
}

// NewSchemeProvider creates a provider for the given schemes.
// extra services are advertised alongside the schemes but resolve nothing.
func NewSchemeProvider(name string, schemes []*Scheme, extra ...Service) (*SchemeProvider, error) {
	if name == "" {
		return nil, NewValidationError("name", name, "provider name cannot be empty")
	}

	p := &SchemeProvider{
		name:    name,
		schemes: make(map[string]*Scheme, len(schemes)),
		extra:   append([]Service(nil), extra...),
	}
	for _, s := range schemes {
		if s == nil {
			return nil, errNilScheme
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scheme %q: %w", s.Name, err)
		}
		key := strings.ToUpper(s.Name)
		if _, dup := p.schemes[key]; dup {
			return nil, NewValidationError("scheme", s.Name, "duplicate scheme name")
		}
		p.schemes[key] = s
		p.names = append(p.names, s.Name)
	}
	sort.Strings(p.names)
	return p, nil
}

// builtinExtraServices are non-PBE services the built-in provider advertises
var builtinExtraServices = []Service{
	{Type: ServiceCipher, Algorithm: "AES"},
	{Type: ServiceCipher, Algorithm: "ARCFOUR"},
	{Type: ServiceCipher, Algorithm: "ChaCha20-Poly1305"},
	{Type: ServiceCipher, Algorithm: "DES"},
	{Type: ServiceCipher, Algorithm: "DESede"},
	{Type: ServiceCipher, Algorithm: "RC2"},
	{Type: "MessageDigest", Algorithm: "MD5"},
	{Type: "MessageDigest", Algorithm: "SHA-1"},
	{Type: "MessageDigest", Algorithm: "SHA-256"},
	{Type: "SecretKeyFactory", Algorithm: "PBEWithMD5AndDES"},
	{Type: "SecretKeyFactory", Algorithm: "PBKDF2WithHmacSHA256"},
}

// BuiltinProviderName is the name of the provider returned by NewBuiltinProvider
const BuiltinProviderName = "builtin"

// NewBuiltinProvider returns the provider for every algorithm this package implements
func NewBuiltinProvider() *SchemeProvider {
	p, err := NewSchemeProvider(BuiltinProviderName, builtinSchemes(), builtinExtraServices...)
	if err != nil {
		// The built-in table is static
		panic(fmt.Sprintf("pbemarker: invalid built-in scheme table: %v", err))
	}
	return p
}

// Name returns the provider name
func (p *SchemeProvider) Name() string {
	return p.name
}

// Services advertises one Cipher service per scheme plus the extra services
func (p *SchemeProvider) Services() ([]Service, error) {
	out := make([]Service, 0, len(p.names)+len(p.extra))
	for _, name := range p.names {
		out = append(out, Service{Type: ServiceCipher, Algorithm: name})
	}
	return append(out, p.extra...), nil
}

// Scheme resolves an algorithm name, case-insensitively
func (p *SchemeProvider) Scheme(algorithm string) (*Scheme, bool) {
	s, ok := p.schemes[strings.ToUpper(algorithm)]
	return s, ok
}
