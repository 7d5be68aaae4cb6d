// Package security confines keystore file access to one directory.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

var (
	ErrPathEscapes  = errors.New("path escapes keystore directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNested       = errors.New("nested paths are not allowed")
)

// PathValidator performs file operations inside a single directory using
// os.Root, so symlinks and .. cannot reach outside it.
type PathValidator struct {
	root *os.Root
	dir  string
}

// New opens dir, creating it with mode 0700 if it does not exist
func New(dir string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", absPath, err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absPath, err)
	}
	return &PathValidator{root: root, dir: absPath}, nil
}

// Dir returns the absolute confined directory
func (pv *PathValidator) Dir() string {
	return pv.dir
}

func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// Validate accepts only a plain file name directly inside the directory
func (pv *PathValidator) Validate(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("%w: %s", ErrAbsolutePath, name)
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%w: %s", ErrNested, name)
	}
	return nil
}

// WriteFile writes name atomically: a temp file is written then renamed.
// Existing files are not replaced unless overwrite is set.
func (pv *PathValidator) WriteFile(name string, data []byte, perm os.FileMode, overwrite bool) error {
	if err := pv.Validate(name); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !overwrite {
		if _, err := pv.root.Stat(name); err == nil {
			return fmt.Errorf("%s: %w", name, fs.ErrExist)
		}
	}

	tmp := "." + name + ".tmp"
	if err := pv.root.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := pv.root.Rename(tmp, name); err != nil {
		_ = pv.root.Remove(tmp)
		return err
	}
	return nil
}

func (pv *PathValidator) ReadFile(name string) ([]byte, error) {
	if err := pv.Validate(name); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.ReadFile(name)
}

func (pv *PathValidator) Stat(name string) (os.FileInfo, error) {
	if err := pv.Validate(name); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.Stat(name)
}

// List returns the regular files in the directory matching pattern, sorted
func (pv *PathValidator) List(pattern string) ([]string, error) {
	d, err := pv.root.Open(".")
	if err != nil {
		return nil, err
	}
	defer d.Close()

	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
