// Package scan implements the Scanner component (spec §4.2): a single
// traversal of a working directory that produces a content-addressed
// manifest plus a list of validation warnings for problematic paths.
package scan

// IgnorePolicy holds the three matching rules spec §4.2 defines: "a path is
// ignored iff any component matches an ignored name, or the path's suffix
// matches an ignored suffix, or the full relative path equals an ignored
// exact path".
type IgnorePolicy struct {
	Names    map[string]bool
	Suffixes []string
	Paths    map[string]bool
}

// defaultIgnoreNames are always ignored regardless of project configuration
// (SPEC_FULL §3.3): macOS resource-fork artifacts that original_source
// special-cases as always-ignored rather than merely invalid.
var defaultIgnoreNames = []string{".DS_Store"}

// NewIgnorePolicy builds a policy from project configuration values, layered
// on top of the built-in defaults (SPEC_FULL §3.3, "config values are
// additive to, not a replacement for, the built-in defaults").
func NewIgnorePolicy(names, suffixes, paths []string) IgnorePolicy {
	nameSet := make(map[string]bool, len(names)+len(defaultIgnoreNames))
	for _, name := range defaultIgnoreNames {
		nameSet[name] = true
	}
	for _, name := range names {
		nameSet[name] = true
	}

	pathSet := make(map[string]bool, len(paths))
	for _, path := range paths {
		pathSet[path] = true
	}

	return IgnorePolicy{
		Names:    nameSet,
		Suffixes: append([]string(nil), suffixes...),
		Paths:    pathSet,
	}
}

// isAppleDouble reports whether name is a macOS AppleDouble sidecar file
// ("._foo"), ignored unconditionally alongside .DS_Store.
func isAppleDouble(name string) bool {
	return len(name) > 2 && name[0] == '.' && name[1] == '_'
}
