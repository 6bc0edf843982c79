// Package discover expands CLI arguments into the COLLADA files to parse.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moby/patternmatcher/ignorefile"
	"github.com/tonistiigi/fsutil"
)

// ErrNoIgnoreFile indicates the directory has no .colladaignore.
var ErrNoIgnoreFile = errors.New("no ignore file found")

// IgnoreFile is read from every directory argument.
const IgnoreFile = ".colladaignore"

// Extensions are the file suffixes collected when walking a directory.
var Extensions = []string{".dae", ".xml"}

// LoadIgnorePatterns reads IgnoreFile from dir, in .dockerignore syntax.
// Returns ErrNoIgnoreFile when it does not exist.
func LoadIgnorePatterns(dir string) (patterns []string, err error) {
	f, err := os.Open(filepath.Join(dir, IgnoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoIgnoreFile
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", IgnoreFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", IgnoreFile, cerr)
		}
	}()

	patterns, err = ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFile, err)
	}
	return patterns, nil
}

// Expand returns the files named by args. Files are kept as given, even
// with other extensions. Directories are walked for files with one of
// Extensions, skipping paths matched by the directory's IgnoreFile. The
// result keeps argument order, sorted within each directory, without
// duplicates.
func Expand(ctx context.Context, args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Unreadable files are reported by the parse that follows.
			add(arg)
			continue
		}
		files, err := walk(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func walk(ctx context.Context, dir string) ([]string, error) {
	patterns, err := LoadIgnorePatterns(dir)
	if err != nil && !errors.Is(err, ErrNoIgnoreFile) {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	fsys, err := fsutil.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dir, err)
	}
	fsys, err = fsutil.NewFilterFS(fsys, &fsutil.FilterOpt{ExcludePatterns: patterns})
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", dir, IgnoreFile, err)
	}

	var files []string
	err = fsys.Walk(ctx, "", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d == nil || d.IsDir() {
			return nil
		}
		if slices.Contains(Extensions, strings.ToLower(filepath.Ext(rel))) {
			files = append(files, filepath.Join(dir, rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}
