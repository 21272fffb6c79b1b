package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// imageExtensions are the file types picked up when a directory is scanned.
// Files named explicitly are accepted whatever their extension.
var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// FindImages expands raw paths into the image files to import, in order.
// A file argument is taken as is. A directory contributes its images sorted
// by name, descending into subdirectories only when recursive is set, and
// skipping anything matched by the defaults or the directory's ignore file.
func FindImages(rawPaths []string, recursive bool) ([]string, error) {
	var out []string
	for _, raw := range rawPaths {
		absPath, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving absolute path: %w", err)
		}

		info, err := os.Lstat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat path: %w", err)
		}
		if err := checkMode(absPath, info.Mode()); err != nil {
			return nil, err
		}

		if !info.IsDir() {
			out = append(out, absPath)
			continue
		}

		found, err := findInDir(absPath, recursive)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func checkMode(path string, mode fs.FileMode) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("symlinks not supported: %s", path)
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("device files not supported: %s", path)
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("named pipes not supported: %s", path)
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("sockets not supported: %s", path)
	}
	return nil
}

func findInDir(root string, recursive bool) ([]string, error) {
	raw, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore := NewIgnoreMatcher(append(slices.Clone(defaultIgnorePatterns), raw...))

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive || ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.Match(rel) {
			return nil
		}
		if !slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(p))) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return paths, nil
}
