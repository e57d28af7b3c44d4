// Package layout holds the fixed theme directory layout and resolves it
// against a theme root.
package layout

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

// Directories relative to the theme root.
const (
	ImagesDir = "images"
	SassDir   = "sass"
	CSSDir    = "css"
	LibDir    = "lib"
	JSDir     = "js"
)

// Globs and files relative to the theme root, slash separated, doublestar syntax.
const (
	ImagesGlob   = "images/*"
	SassGlob     = "sass/*.scss"
	LibGlob      = "lib/*.js"
	BundleName   = "main.js"
	BundleOutput = "js/main.js"
	StyleOutput  = "css/style.css"
	TemplateGlob = "**/*.twig"
)

// ReloadGlobs are the outputs and templates forwarded to live-reload clients.
var ReloadGlobs = []string{StyleOutput, TemplateGlob, BundleOutput}

// Theme is a theme root with the fixed layout beneath it.
type Theme struct {
	root string
}

// New resolves root to an absolute path. The directory does not need to exist.
func New(root string) (Theme, error) {
	if strings.TrimSpace(root) == "" {
		return Theme{}, ferrors.ValidationError("theme root must not be empty").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Theme{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve theme root").
			WithContext("root", root).
			Build()
	}
	return Theme{root: abs}, nil
}

// Root returns the absolute theme root.
func (t Theme) Root() string { return t.root }

// Path joins a slash-separated relative path onto the root.
func (t Theme) Path(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}

// Rel returns the slash-separated path of p relative to the root, and false
// when p lies outside the root.
func (t Theme) Rel(p string) (string, bool) {
	rel, err := filepath.Rel(t.root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// Glob returns absolute paths of regular files matching pattern, sorted
// lexicographically. A missing directory yields no matches and no error.
func (t Theme) Glob(pattern string) ([]string, error) {
	fsys := os.DirFS(t.root)
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "glob failed").
			WithContext("pattern", pattern).
			Build()
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, t.Path(m))
	}
	sort.Strings(out)
	return out, nil
}

// Match reports whether the slash-separated relative path matches pattern.
func Match(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

// MatchAny reports whether rel matches any of patterns.
func MatchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if Match(p, rel) {
			return true
		}
	}
	return false
}

// IsPartial reports whether a style source is a partial (leading underscore),
// which is importable but never compiled on its own.
func IsPartial(p string) bool {
	return strings.HasPrefix(path.Base(filepath.ToSlash(p)), "_")
}
