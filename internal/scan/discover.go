// Package scan finds the files to check, reads them line by line and
// watches them for changes.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Stdin is the path that stands for standard input.
const Stdin = "-"

// sniffLen is how much of a file is read to decide whether it is text.
const sniffLen = 8000

// skipDirs are never descended into.
var skipDirs = []string{".git", ".hg", ".svn", ".bzr", "_darcs"}

// Filter selects files by glob patterns. A pattern matches either the base
// name or the slash-separated path relative to the root, e.g. "*.go" or
// "internal/*/testdata".
type Filter struct {
	Include []string
	Exclude []string
}

// Validate checks every pattern for syntax errors.
func (f Filter) Validate() error {
	for _, p := range slices.Concat(f.Include, f.Exclude) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}
	return nil
}

func matchAny(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Excluded reports whether rel matches an exclude pattern.
func (f Filter) Excluded(rel string) bool {
	return matchAny(f.Exclude, rel)
}

// Included reports whether a file at rel should be checked.
func (f Filter) Included(rel string) bool {
	if f.Excluded(rel) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, rel)
}

// Discover expands roots into a sorted, de-duplicated list of files.
// Directories are walked recursively, skipping VCS metadata, excluded paths
// and binary files. Files named explicitly are always returned unless
// excluded. Stdin is passed through.
func Discover(roots []string, filter Filter) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		if root == Stdin {
			add(Stdin)
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !filter.Excluded(root) {
				add(filepath.Clean(root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			if d.IsDir() {
				if path != root && (slices.Contains(skipDirs, d.Name()) || filter.Excluded(rel)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !filter.Included(rel) {
				return nil
			}
			text, err := isText(path)
			if err != nil {
				return err
			}
			if text {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(files, func(a, b string) int {
		// Stdin stays first.
		switch {
		case a == Stdin:
			return -1
		case b == Stdin:
			return 1
		}
		return strings.Compare(a, b)
	})
	return files, nil
}

// isText reports whether the start of the file holds no NUL byte.
func isText(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return !bytes.Contains(buf[:n], []byte{0}), nil
}
