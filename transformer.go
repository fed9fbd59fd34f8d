package pbemarker

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// payloadClass matches any character except a line terminator:
// \n, \r, U+0085, U+2028 and U+2029.
const payloadClass = `[^\n\r\x{85}\x{2028}\x{2029}]`

// Marker is one ENC(...) or DEC(...) span found in content
type Marker struct {
	Kind    string // MarkerEncrypted or MarkerDecrypted
	Start   int    // Byte offset of the marker prefix
	End     int    // Byte offset just past the closing ')'
	Payload string // Text between the parentheses
}

// matcher holds the compiled marker patterns for one MatchMode
type matcher struct {
	mode     MatchMode
	patterns map[Direction]*regexp.Regexp
}

func newMatcher(mode MatchMode) *matcher {
	quantifier := "*"
	if mode == MatchShortest {
		quantifier = "*?"
	}

	m := &matcher{mode: mode, patterns: make(map[Direction]*regexp.Regexp, 2)}
	for _, dir := range []Direction{Encrypt, Decrypt} {
		expr := regexp.QuoteMeta(dir.source()+"(") + "(" + payloadClass + quantifier + ")" + regexp.QuoteMeta(")")
		m.patterns[dir] = regexp.MustCompile(expr)
	}
	return m
}

var matchers = map[MatchMode]*matcher{
	MatchGreedy:   newMatcher(MatchGreedy),
	MatchShortest: newMatcher(MatchShortest),
}

func matcherFor(mode MatchMode) *matcher {
	return matchers[mode]
}

// scan finds the leftmost non-overlapping markers consumed in dir
func (m *matcher) scan(content string, dir Direction) []Marker {
	re, ok := m.patterns[dir]
	if !ok {
		return nil
	}

	locs := re.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	markers := make([]Marker, len(locs))
	for i, loc := range locs {
		markers[i] = Marker{
			Kind:    dir.source(),
			Start:   loc[0],
			End:     loc[1],
			Payload: content[loc[2]:loc[3]],
		}
	}
	return markers
}

// Scan reports the markers a transformation in dir would rewrite, without
// touching any payload.
func (t *Toggler) Scan(content string, dir Direction) []Marker {
	return t.matcher.scan(content, dir)
}

// Transform rewrites every marker in content. Encrypt turns DEC(plaintext)
// into ENC(ciphertext); Decrypt turns ENC(ciphertext) into DEC(plaintext).
// Text outside markers is copied unchanged.
//
// With the default MatchGreedy mode a payload runs to the last ')' on its
// line, so "DEC(a)x DEC(b)" is one marker with payload "a)x DEC(b".
//
// Content without source markers is returned unchanged and the algorithm is
// not looked up. Otherwise an unknown algorithm fails the call, and if any
// payload fails Transform returns "" and the error of the first failing
// marker; no partial output is ever returned.
func (t *Toggler) Transform(content, password, algorithm string, dir Direction) (string, error) {
	out, _, err := t.transform(content, NewEncryptionContext(password, algorithm), dir)
	if err != nil {
		return "", err
	}
	return out, nil
}

// transform rewrites content and reports how many markers it found
func (t *Toggler) transform(content string, ec EncryptionContext, dir Direction) (out string, markers int, err error) {
	start := time.Now()
	defer func() {
		emitTransformComplete(context.Background(), ec.Algorithm, dir, markers, time.Since(start), err)
	}()
	return t.rewriteMarkers(content, ec, dir)
}

func (t *Toggler) rewriteMarkers(content string, ec EncryptionContext, dir Direction) (string, int, error) {
	if dir != Encrypt && dir != Decrypt {
		return "", 0, NewValidationError("direction", dir, "unsupported direction")
	}

	markers := t.matcher.scan(content, dir)
	if len(markers) == 0 {
		return content, 0, nil
	}

	enc := t.NewEncryptor(ec)
	if _, _, err := enc.scheme(); err != nil {
		return "", len(markers), err
	}

	op := enc.Encrypt
	if dir == Decrypt {
		op = enc.Decrypt
	}

	results, err := t.processPayloads(ec.Algorithm, markers, func(m Marker) (string, error) {
		out, err := op(m.Payload)
		if err != nil {
			return "", withOffset(err, m.Start)
		}
		return out, nil
	})
	if err != nil {
		return "", len(markers), err
	}

	return splice(content, markers, results, dir.target()), len(markers), nil
}

// splice replaces each marker span with kind(replacement)
func splice(content string, markers []Marker, replacements []string, kind string) string {
	var b strings.Builder
	b.Grow(len(content))

	last := 0
	for i, m := range markers {
		b.WriteString(content[last:m.Start])
		b.WriteString(kind)
		b.WriteByte('(')
		b.WriteString(replacements[i])
		b.WriteByte(')')
		last = m.End
	}
	b.WriteString(content[last:])
	return b.String()
}
