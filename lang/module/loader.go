// Package module resolves Horst import specs to canonical module keys and
// reads their source. It owns no cache: caching of compiled/run modules
// belongs to the VM, not the loader.
package module

import (
	"fmt"
	"os"
	"path"
	"strings"
)

// Loader resolves and reads Horst module source from a filesystem rooted
// at Root (the top-level script's directory).
type Loader struct {
	Root string
}

// IsRelative reports whether spec is a relative import (starts with ".").
func IsRelative(spec string) bool { return strings.HasPrefix(spec, ".") }

// Resolve computes the canonical module key for spec as imported from
// importer (itself a canonical key, or "" for the top-level script).
// Relative specs are resolved against the importer's directory and
// normalized (collapsing "." and ".." components); absolute specs pass
// through unchanged.
func Resolve(importer, spec string) string {
	if !IsRelative(spec) {
		return path.Clean(spec)
	}
	dir := path.Dir(importer)
	if importer == "" {
		dir = "."
	}
	return path.Clean(path.Join(dir, spec))
}

// Read loads the source for canonical key from "<root>/<key>.horst".
func (l *Loader) Read(key string) ([]byte, error) {
	file := path.Join(l.Root, key+".horst")
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", key, err)
	}
	return src, nil
}
