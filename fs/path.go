// Package fs watches a vault directory of markdown files.
package fs

import (
	"path/filepath"
	"strings"

	"github.com/fwojciec/noteify"
)

// RelPath converts an absolute file path under root to a vault path.
// Vault paths are relative to root and use forward slashes.
// Example: /home/me/vault/notes/a.md → notes/a.md
func RelPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", noteify.Errorf(noteify.EINVALID, "%s is outside %s", path, root)
	}
	return rel, nil
}

// AbsPath converts a vault path to a file path under root.
func AbsPath(root, path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", noteify.Errorf(noteify.EINVALID, "invalid vault path %q", path)
	}
	return filepath.Join(root, clean), nil
}

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}
