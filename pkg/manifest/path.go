package manifest

import "strings"

// PathValid reports whether path satisfies spec §3 invariant 1's structural
// requirements: relative, forward-slash separated, no leading slash, no
// ".." component. It does not check NFC normalization or the additional
// FilenameValidator rules (spec §4.4), which live in pkg/manifest/validate.
func PathValid(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") {
		return false
	}
	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." || component == ".." {
			return false
		}
	}
	return true
}

// ReferenceEscapesRoot reports whether a symlink at linkPath with textual
// target reference would resolve to a location outside the repository root
// (spec §3, invariant 2). reference may be relative (resolved against
// linkPath's parent) or absolute, in which case it always escapes.
func ReferenceEscapesRoot(linkPath, reference string) bool {
	if reference == "" || strings.HasPrefix(reference, "/") {
		return true
	}

	parent := parentComponents(linkPath)
	for _, component := range strings.Split(reference, "/") {
		switch component {
		case "", ".":
			continue
		case "..":
			if len(parent) == 0 {
				return true
			}
			parent = parent[:len(parent)-1]
		default:
			parent = append(parent, component)
		}
	}
	return false
}

func parentComponents(path string) []string {
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return nil
	}
	return strings.Split(path[:slash], "/")
}
