package validate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fix repairs path according to spec §4.4's rules and reports whether any
// change was made. Fix is idempotent: Fix(Fix(p).NewPath) always returns
// (NewPath, false) (spec §8, invariant 4).
func Fix(path string) (newPath string, changed bool) {
	components := strings.Split(path, "/")
	for i, component := range components {
		// Repeat until stable: one pass can leave a problem behind (the
		// second '~' of "a~~") or expose one (" CON" is only a reserved
		// name once trimmed).
		for fixed := fixComponent(component); fixed != component; fixed = fixComponent(component) {
			component = fixed
		}
		components[i] = component
	}
	newPath = strings.Join(components, "/")
	return newPath, newPath != path
}

func fixComponent(component string) string {
	component = strings.TrimSuffix(component, "~")
	component = replaceIllegalRunes(component)
	if windowsReservedNames[strings.ToUpper(baseWithoutExtension(component))] {
		if dot := strings.IndexByte(component, '.'); dot >= 0 {
			component = component[:dot] + "_renamed" + component[dot:]
		} else {
			component += "_renamed"
		}
	}
	component = norm.NFC.String(component)
	return strings.TrimSpace(component)
}

func replaceIllegalRunes(component string) string {
	var builder strings.Builder
	for _, r := range component {
		switch {
		case r <= 0x1F || r == 0x7F:
			builder.WriteByte('_')
		case strings.ContainsRune(illegalCharacters, r):
			builder.WriteByte('_')
		case r == lineSeparator || r == paragraphSeparator:
			builder.WriteByte('_')
		case isBidiControl(r):
			builder.WriteByte('_')
		case isZeroWidth(r):
			builder.WriteByte('_')
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
