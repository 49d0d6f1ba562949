package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

var (
	// ErrNoCUEFiles is returned by LoadDir for a directory without .cue files.
	ErrNoCUEFiles = errors.New("no CUE files found")

	// ErrNotDirectory is returned by LoadDir when the path is a file.
	ErrNotDirectory = errors.New("not a directory")
)

// FindCUEFiles walks the directory and returns all .cue file paths in
// lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// LoadDir builds one CUE value from every .cue file under dir. It returns
// the value and the files it was built from.
//
// A missing directory yields an error satisfying os.IsNotExist.
func LoadDir(dir string) (cue.Value, []string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, nil, err
	}
	if !info.IsDir() {
		return cue.Value{}, nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return cue.Value{}, nil, fmt.Errorf("%w in %s", ErrNoCUEFiles, dir)
	}

	v, err := LoadFiles(files)
	return v, files, err
}

// LoadFiles compiles each file and unifies the results. Files may declare a
// package clause; it is not used for resolution and imports are not
// supported.
func LoadFiles(files []string) (cue.Value, error) {
	ctx := cuecontext.New()
	var root cue.Value
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("read %s: %w", path, err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		if i == 0 {
			root = v
		} else {
			root = root.Unify(v)
		}
	}
	if err := root.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return root, nil
}
