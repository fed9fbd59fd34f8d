package pbemarker

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"time"
)

// Rekey re-encrypts every ENC marker in content: each payload is decrypted
// with from and encrypted again with to. Plaintext never appears in the
// output. Like Transform, any failing payload aborts the whole call.
func (t *Toggler) Rekey(content string, from, to EncryptionContext) (string, error) {
	out, _, err := t.rekey(content, from, to)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (t *Toggler) rekey(content string, from, to EncryptionContext) (out string, markers int, err error) {
	start := time.Now()
	defer func() {
		emitRekeyComplete(context.Background(), to.Algorithm, markers, time.Since(start), err)
	}()

	found := t.matcher.scan(content, Decrypt)
	if len(found) == 0 {
		return content, 0, nil
	}

	dec := t.NewEncryptor(from)
	if _, _, err := dec.scheme(); err != nil {
		return "", len(found), err
	}
	enc := t.NewEncryptor(to)
	if _, _, err := enc.scheme(); err != nil {
		return "", len(found), err
	}

	results, err := t.processPayloads(to.Algorithm, found, func(m Marker) (string, error) {
		plaintext, err := dec.Decrypt(m.Payload)
		if err != nil {
			return "", withOffset(err, m.Start)
		}
		return enc.Encrypt(plaintext)
	})
	if err != nil {
		return "", len(found), err
	}

	return splice(content, found, results, MarkerEncrypted), len(found), nil
}

// Verify checks that every ENC marker in content decrypts under ctx.
// It returns the first failure, with the marker offset recorded.
func (t *Toggler) Verify(content string, ctx EncryptionContext) error {
	found := t.matcher.scan(content, Decrypt)
	if len(found) == 0 {
		return nil
	}

	dec := t.NewEncryptor(ctx)
	if _, _, err := dec.scheme(); err != nil {
		return err
	}

	_, err := t.processPayloads(ctx.Algorithm, found, func(m Marker) (string, error) {
		if _, err := dec.Decrypt(m.Payload); err != nil {
			return "", withOffset(err, m.Start)
		}
		return "", nil
	})
	return err
}

// RekeyFile re-encrypts every ENC marker of one file from one context to
// another. The file is replaced atomically, or left untouched on error.
func (f *FileToggler) RekeyFile(name string, from, to EncryptionContext, opts FileOptions) (*FileResult, error) {
	return f.rewrite(name, opts, func(content string) (string, int, error) {
		return f.toggler.rekey(content, from, to)
	})
}

// RotationReport summarizes a directory-wide rekey
type RotationReport struct {
	Rotated []string         // Files that were rewritten (or would be, in a dry run)
	Skipped []string         // Supported files without ENC markers
	Failed  map[string]error // Files that could not be rekeyed
}

// RekeyAll rekeys every supported file under root. Failures are collected
// per file; the walk continues past them.
func (f *FileToggler) RekeyAll(root string, from, to EncryptionContext, opts FileOptions) (*RotationReport, error) {
	report := &RotationReport{Failed: make(map[string]error)}

	err := f.walkSupported(root, func(name string) {
		res, err := f.RekeyFile(name, from, to, opts)
		switch {
		case err != nil:
			report.Failed[name] = err
		case res.Markers == 0:
			report.Skipped = append(report.Skipped, name)
		default:
			report.Rotated = append(report.Rotated, name)
		}
	})
	if err != nil {
		return report, fmt.Errorf("walk failed: %w", err)
	}

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("key rotation completed with %d errors (rotated %d files)",
			len(report.Failed), len(report.Rotated))
	}
	return report, nil
}

// VerifyAll checks every supported file under root and returns the files
// whose ENC markers do not decrypt under ctx.
func (f *FileToggler) VerifyAll(root string, ctx EncryptionContext) ([]string, error) {
	var failed []string

	err := f.walkSupported(root, func(name string) {
		data, err := f.readFile(name)
		if err == nil {
			err = f.toggler.Verify(string(data), ctx)
		}
		if err != nil {
			failed = append(failed, name)
		}
	})
	if err != nil {
		return failed, fmt.Errorf("walk failed: %w", err)
	}
	return failed, nil
}

// walkSupported calls fn for every supported file under root, in lexical order
func (f *FileToggler) walkSupported(root string, fn func(name string)) error {
	info, err := f.fs.Stat(root)
	if err != nil {
		return NewIOError("stat", root, err)
	}
	if !info.IsDir() {
		if IsSupported(root) {
			fn(root)
		}
		return nil
	}

	dir, err := f.fs.Open(root)
	if err != nil {
		return NewIOError("open", root, err)
	}
	entries, err := dir.Readdir(-1)
	dir.Close()
	if err != nil {
		return NewIOError("readdir", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.Name() == "." || entry.Name() == ".." {
			continue
		}
		name := path.Join(root, entry.Name())
		if entry.IsDir() {
			if err := f.walkSupported(name, fn); err != nil {
				return err
			}
			continue
		}
		if entry.Mode()&os.ModeType == 0 && IsSupported(name) {
			fn(name)
		}
	}
	return nil
}
