package pbemarker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// supportedExtensions are the file types the file toggler rewrites
var supportedExtensions = map[string]bool{
	".yaml":       true,
	".yml":        true,
	".properties": true,
}

// IsSupported reports whether name has a yaml, yml or properties extension
func IsSupported(name string) bool {
	return supportedExtensions[strings.ToLower(path.Ext(name))]
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// FileOptions controls a file rewrite
type FileOptions struct {
	// DryRun computes the result without writing the file
	DryRun bool

	// SkipValidation disables the YAML re-parse check
	SkipValidation bool
}

// FileResult describes a rewritten file
type FileResult struct {
	Path    string // File that was processed
	Markers int    // Markers rewritten
	Changed bool   // Whether the content differs from the original
	Written bool   // Whether the file on disk was replaced
	Content string // The rewritten content
}

// FileToggler applies a Toggler to files on an absfs.FileSystem.
// A file is either fully rewritten or left untouched.
type FileToggler struct {
	fs      absfs.FileSystem
	toggler *Toggler
}

// NewFileToggler creates a file toggler over fs
func NewFileToggler(fs absfs.FileSystem, t *Toggler) (*FileToggler, error) {
	if fs == nil {
		return nil, ErrNilFileSystem
	}
	if t == nil {
		return nil, ErrNilToggler
	}
	return &FileToggler{fs: fs, toggler: t}, nil
}

// ToggleFile encrypts or decrypts every marker in one file and replaces it
// atomically. A YAML file is only rewritten when both its current and its
// rewritten content parse, so a file that toggles one way toggles back.
func (f *FileToggler) ToggleFile(name, password, algorithm string, dir Direction, opts FileOptions) (*FileResult, error) {
	return f.rewrite(name, opts, func(content string) (string, int, error) {
		return f.toggler.transform(content, NewEncryptionContext(password, algorithm), dir)
	})
}

// rewrite reads name, applies fn and writes the result back
func (f *FileToggler) rewrite(name string, opts FileOptions, fn func(string) (string, int, error)) (*FileResult, error) {
	if err := ValidateFilePath(name); err != nil {
		return nil, err
	}
	if !IsSupported(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}

	info, err := f.fs.Stat(name)
	if err != nil {
		return nil, NewIOError("stat", name, err)
	}
	if info.IsDir() {
		return nil, NewIOError("stat", name, errors.New("is a directory"))
	}

	data, err := f.readFile(name)
	if err != nil {
		return nil, err
	}
	content := string(data)

	out, markers, err := fn(content)
	if err != nil {
		return nil, err
	}

	if out != content && isYAML(name) && !opts.SkipValidation {
		if !validYAML(data) {
			return nil, fmt.Errorf("%w: %s", ErrMalformedInput, name)
		}
		if !validYAML([]byte(out)) {
			return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, name)
		}
	}

	result := &FileResult{
		Path:    name,
		Markers: markers,
		Changed: out != content,
		Content: out,
	}

	if opts.DryRun || !result.Changed {
		emitFileWritten(context.Background(), name, markers, opts.DryRun)
		return result, nil
	}

	if err := f.writeFile(name, []byte(out), info.Mode().Perm()); err != nil {
		return nil, err
	}
	result.Written = true

	emitFileWritten(context.Background(), name, markers, false)
	return result, nil
}

// readFile reads the whole file
func (f *FileToggler) readFile(name string) ([]byte, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, NewIOError("open", name, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, NewIOError("read", name, err)
	}
	return data, nil
}

// writeFile writes data to a uniquely named temporary file next to name and
// renames it over name. The temporary file is removed on failure.
func (f *FileToggler) writeFile(name string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.%s.tmp", name, uuid.New().String())

	file, err := f.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return NewIOError("create", tmp, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		f.fs.Remove(tmp)
		return NewIOError("write", tmp, err)
	}
	if err := file.Close(); err != nil {
		f.fs.Remove(tmp)
		return NewIOError("close", tmp, err)
	}

	// OpenFile is subject to the umask
	if err := f.fs.Chmod(tmp, perm); err != nil {
		f.fs.Remove(tmp)
		return NewIOError("chmod", tmp, err)
	}

	if err := f.fs.Rename(tmp, name); err != nil {
		f.fs.Remove(tmp)
		return NewIOError("rename", name, err)
	}
	return nil
}

// validYAML reports whether every document in data parses
func validYAML(data []byte) bool {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			return false
		}
	}
}
