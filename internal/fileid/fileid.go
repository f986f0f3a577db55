// Package fileid derives the document IDs (slugs) used by the site from source file paths.
package fileid

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Slug returns the site slug for file under root: the root-relative path with forward
// slashes and without the file extension. "guide/intro.md" becomes "guide/intro".
func Slug(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("failed to make %s relative to %s: %w", file, root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("%s is not inside %s", file, root)
	}
	return strings.TrimSuffix(rel, path.Ext(rel)), nil
}
