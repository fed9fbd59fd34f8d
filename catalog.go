package pbemarker

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// pbePrefix starts every discoverable algorithm name
const pbePrefix = "PBE"

// Recommendation buckets, most preferred first
var recommendBuckets = []string{"AES", "SHA256", "SHA1"}

// Discover enumerates the PBE cipher algorithms advertised by the registry.
//
// The result is de-duplicated case-insensitively and sorted. A provider that
// fails or panics contributes nothing; the returned error is then a
// *DiscoveryError (or a join of them) and the discovered list is still valid.
func (t *Toggler) Discover() ([]string, error) {
	start := time.Now()
	ctx := context.Background()

	seen := make(map[string]struct{})
	var found []string
	var errs []error

	for _, p := range t.registry.Providers() {
		services, err := enumerate(p)
		if err != nil {
			emitDiscoveryDegraded(ctx, p.Name(), err)
			errs = append(errs, err)
			continue
		}
		for _, s := range services {
			if !strings.EqualFold(s.Type, ServiceCipher) || !hasPrefixFold(s.Algorithm, pbePrefix) {
				continue
			}
			key := strings.ToUpper(s.Algorithm)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			found = append(found, s.Algorithm)
		}
	}
	sort.Strings(found)

	emitDiscoveryComplete(ctx, len(found), time.Since(start))

	switch len(errs) {
	case 0:
		return found, nil
	case 1:
		return found, errs[0]
	default:
		return found, errors.Join(errs...)
	}
}

// ListAlgorithms returns the catalog: discovered algorithms merged with the
// fallback list. It never fails and is never empty.
func (t *Toggler) ListAlgorithms() []string {
	discovered, _ := t.Discover()
	return buildCatalog(discovered, t.config.Fallback)
}

// Recommend picks a default from a discovered set. Names containing "AES"
// win, then "SHA256", then "SHA1", then any name; each bucket yields its
// smallest name, spelled as discovered. An empty set yields the first
// fallback algorithm.
func (t *Toggler) Recommend(discovered []string) string {
	return recommend(discovered, t.config.Fallback)
}

// ListAlgorithmsWithRecommendation returns the catalog and the recommended
// algorithm from a single discovery pass. The recommendation is always a
// catalog member: when the catalog keeps the fallback spelling of the
// recommended name, that spelling is returned.
func (t *Toggler) ListAlgorithmsWithRecommendation() ([]string, string) {
	discovered, _ := t.Discover()
	return buildCatalog(discovered, t.config.Fallback), canonicalName(t.Recommend(discovered), t.config.Fallback)
}

// buildCatalog merges the fallback list with the discovered names. When two
// names differ only in case the fallback spelling is kept.
func buildCatalog(discovered, fallback []string) []string {
	seen := make(map[string]struct{}, len(fallback)+len(discovered))
	out := make([]string, 0, len(fallback)+len(discovered))

	for _, list := range [][]string{fallback, discovered} {
		for _, name := range list {
			key := strings.ToUpper(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func recommend(discovered, fallback []string) string {
	for _, needle := range recommendBuckets {
		if name, ok := smallestMatching(discovered, func(s string) bool {
			return strings.Contains(strings.ToUpper(s), needle)
		}); ok {
			return name
		}
	}
	if name, ok := smallestMatching(discovered, func(string) bool { return true }); ok {
		return name
	}
	return fallback[0]
}

func smallestMatching(names []string, match func(string) bool) (string, bool) {
	var best string
	found := false
	for _, name := range names {
		if !match(name) {
			continue
		}
		if !found || name < best {
			best = name
			found = true
		}
	}
	return best, found
}

// canonicalName returns the fallback spelling of name when one exists
func canonicalName(name string, fallback []string) string {
	for _, f := range fallback {
		if strings.EqualFold(f, name) {
			return f
		}
	}
	return name
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
