package pbemarker

import (
	"crypto/sha256"
	"errors"
	"testing"
)

func customScheme(name string) *Scheme {
	return &Scheme{Name: name, KDF: KDFPBKDF2, Hash: sha256.New, Cipher: CipherAESCBC, KeySize: 16}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil, NewBuiltinProvider())
	if got := len(r.Providers()); got != 1 {
		t.Fatalf("NewRegistry kept %d providers, want 1 (nil skipped)", got)
	}

	if err := r.Register(nil); !IsValidationError(err) {
		t.Errorf("Register(nil) error = %v, want validation error", err)
	}
	if err := r.Register(NewBuiltinProvider()); !IsValidationError(err) {
		t.Errorf("Register(duplicate) error = %v, want validation error", err)
	}

	custom, err := NewSchemeProvider("custom", []*Scheme{customScheme("PBEWithCustomAES")})
	if err != nil {
		t.Fatalf("NewSchemeProvider failed: %v", err)
	}
	if err := r.Register(custom); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	providers := r.Providers()
	if len(providers) != 2 || providers[1].Name() != "custom" {
		t.Errorf("providers = %v, want builtin then custom", providers)
	}

	// The snapshot is independent of the registry
	providers[0] = nil
	if r.Providers()[0] == nil {
		t.Error("Providers exposes the internal slice")
	}
}

func TestRegistryResolve(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name      string
		algorithm string
		wantErr   bool
	}{
		{"exact", PBEWithMD5AndDES, false},
		{"lower case", "pbewithmd5anddes", false},
		{"fallback spelling", "PBEWITHHMACSHA512ANDAES_256", false},
		{"unknown", "NOT_REAL_ALGO", true},
		{"empty", "", true},
		{"padded", " PBEWithMD5AndDES", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.Resolve(tt.algorithm)
			if tt.wantErr {
				if !IsAlgorithmUnavailable(err) {
					t.Errorf("Resolve(%q) error = %v, want ErrAlgorithmUnavailable", tt.algorithm, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.algorithm, err)
			}
			if s == nil {
				t.Fatal("Resolve returned a nil scheme")
			}
		})
	}
}

func TestRegistryResolveReturnsCopy(t *testing.T) {
	r := DefaultRegistry()

	s, err := r.Resolve(PBEWithMD5AndDES)
	if err != nil {
		t.Fatal(err)
	}
	s.KeySize = 1

	again, _ := r.Resolve(PBEWithMD5AndDES)
	if again.KeySize != 8 {
		t.Errorf("KeySize = %d after mutating a resolved scheme, want 8", again.KeySize)
	}
}

func TestRegistryPriority(t *testing.T) {
	shadow := customScheme(PBEWithMD5AndDES)
	first, err := NewSchemeProvider("first", []*Scheme{shadow})
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(first, NewBuiltinProvider())
	s, err := r.Resolve(PBEWithMD5AndDES)
	if err != nil {
		t.Fatal(err)
	}
	if s.KDF != KDFPBKDF2 {
		t.Errorf("resolved KDF = %v, want the first provider's scheme", s.KDF)
	}
}

func TestRegistryResolveInvalidScheme(t *testing.T) {
	r := NewRegistry(&brokenSchemeProvider{})

	_, err := r.Resolve("PBEWithBroken")
	if !IsAlgorithmUnavailable(err) {
		t.Fatalf("error = %v, want ErrAlgorithmUnavailable", err)
	}
	if !IsValidationError(err) {
		t.Errorf("error = %v, want the validation cause", err)
	}
}

// brokenSchemeProvider resolves every name to an unusable scheme
type brokenSchemeProvider struct{}

func (brokenSchemeProvider) Name() string                 { return "broken" }
func (brokenSchemeProvider) Services() ([]Service, error) { return nil, nil }
func (brokenSchemeProvider) Scheme(name string) (*Scheme, bool) {
	return &Scheme{Name: name, KDF: KDFPBKDF2, Cipher: CipherAESCBC}, true
}

func TestNewSchemeProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		schemes  []*Scheme
	}{
		{"empty name", "", nil},
		{"nil scheme", "p", []*Scheme{nil}},
		{"invalid scheme", "p", []*Scheme{{Name: "PBEWithNothing"}}},
		{"duplicate", "p", []*Scheme{customScheme("PBEWithX"), customScheme("pbewithx")}},
		{"rc2 without bits", "p", []*Scheme{{Name: "PBEWithRC2", KDF: KDFPKCS12, Hash: sha256.New, Cipher: CipherRC2, KeySize: 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSchemeProvider(tt.provider, tt.schemes); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSchemeProviderServices(t *testing.T) {
	p, err := NewSchemeProvider("custom",
		[]*Scheme{customScheme("PBEWithZ"), customScheme("PBEWithA")},
		Service{Type: "MessageDigest", Algorithm: "SHA-256"},
	)
	if err != nil {
		t.Fatal(err)
	}

	services, err := p.Services()
	if err != nil {
		t.Fatal(err)
	}
	want := []Service{
		{Type: ServiceCipher, Algorithm: "PBEWithA"},
		{Type: ServiceCipher, Algorithm: "PBEWithZ"},
		{Type: "MessageDigest", Algorithm: "SHA-256"},
	}
	if len(services) != len(want) {
		t.Fatalf("Services() = %v, want %v", services, want)
	}
	for i := range want {
		if services[i] != want[i] {
			t.Errorf("Services()[%d] = %v, want %v", i, services[i], want[i])
		}
	}

	if _, ok := p.Scheme("pbewitha"); !ok {
		t.Error("Scheme lookup should be case-insensitive")
	}
}

func TestCustomProviderEndToEnd(t *testing.T) {
	custom, err := NewSchemeProvider("custom", []*Scheme{customScheme("PBEWithCustomAES")})
	if err != nil {
		t.Fatal(err)
	}
	tg := togglerWithProviders(t, NewBuiltinProvider(), custom)

	found := false
	for _, name := range tg.ListAlgorithms() {
		if name == "PBEWithCustomAES" {
			found = true
		}
	}
	if !found {
		t.Error("custom algorithm missing from catalog")
	}

	out, err := tg.Transform("key: DEC(value)", "k1", "PBEWithCustomAES", Encrypt)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	back, err := tg.Transform(out, "k1", "PBEWithCustomAES", Decrypt)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if back != "key: DEC(value)" {
		t.Errorf("round trip = %q", back)
	}
}

func TestResolveErrorIsAlgorithmError(t *testing.T) {
	_, err := DefaultRegistry().Resolve("NOT_REAL_ALGO")

	var ae *AlgorithmError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not *AlgorithmError", err)
	}
	if ae.Algorithm != "NOT_REAL_ALGO" {
		t.Errorf("Algorithm = %q", ae.Algorithm)
	}
}
