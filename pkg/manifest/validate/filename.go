// Package validate implements the FilenameValidator and Normalizer
// components (spec §4.4): detecting path strings incompatible with
// cross-platform sync, and idempotently repairing them.
package validate

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// windowsReservedNames holds the Windows device names that are disallowed as
// a path component's basename, case-insensitively, regardless of extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// illegalCharacters are disallowed anywhere in a path component beyond the
// control-character and Unicode-control ranges handled separately.
const illegalCharacters = "<>:\"|?*\\"

const (
	lineSeparator      rune = ' '
	paragraphSeparator rune = ' '

	leftToRightMark   rune = '‎'
	rightToLeftMark   rune = '‏'
	leftToRightEmbed  rune = '‪'
	rightToLeftEmbed  rune = '‫'
	popDirectionalFmt rune = '‬'
	leftToRightOver   rune = '‭'
	rightToLeftOver   rune = '‮'
	leftToRightIso    rune = '⁦'
	rightToLeftIso    rune = '⁧'
	firstStrongIso    rune = '⁨'
	popDirectionalIso rune = '⁩'

	zeroWidthSpace    rune = '​'
	zeroWidthNonJoin  rune = '‌'
	zeroWidthJoiner   rune = '‍'
	byteOrderMarkRune rune = '\U0000FEFF'
)

// Problem describes why a path failed validation, pairing the offending
// path with a human-readable cause (spec §4.2, "a list of validation
// warnings").
type Problem struct {
	Path  string
	Cause string
}

// Validate checks path against every rule in spec §4.4 and returns the list
// of problems found, one per offending character or broken rule in each
// component (a cause can repeat); a valid path returns a nil slice.
func Validate(path string) []Problem {
	var problems []Problem

	if !norm.NFC.IsNormalString(path) {
		problems = append(problems, Problem{path, "path is not NFC-normalized"})
	}

	for _, component := range strings.Split(path, "/") {
		problems = append(problems, validateComponent(component)...)
	}

	return problems
}

func validateComponent(component string) []Problem {
	var problems []Problem

	for _, r := range component {
		switch {
		case r <= 0x1F || r == 0x7F:
			problems = append(problems, Problem{component, "control character in path component"})
		case strings.ContainsRune(illegalCharacters, r):
			problems = append(problems, Problem{component, "illegal character in path component"})
		case r == lineSeparator || r == paragraphSeparator:
			problems = append(problems, Problem{component, "Unicode line or paragraph separator in path component"})
		case isBidiControl(r):
			problems = append(problems, Problem{component, "bidirectional control character in path component"})
		case isZeroWidth(r):
			problems = append(problems, Problem{component, "zero-width character in path component"})
		}
	}

	if component != strings.TrimSpace(component) {
		problems = append(problems, Problem{component, "leading or trailing whitespace in path component"})
	}
	if strings.HasSuffix(component, "~") {
		problems = append(problems, Problem{component, "trailing '~' (editor backup marker)"})
	}
	if windowsReservedNames[strings.ToUpper(baseWithoutExtension(component))] {
		problems = append(problems, Problem{component, "Windows-reserved device name"})
	}

	return problems
}

func baseWithoutExtension(component string) string {
	if dot := strings.IndexByte(component, '.'); dot >= 0 {
		return component[:dot]
	}
	return component
}

func isBidiControl(r rune) bool {
	switch r {
	case leftToRightMark, rightToLeftMark, leftToRightEmbed, rightToLeftEmbed,
		popDirectionalFmt, leftToRightOver, rightToLeftOver,
		leftToRightIso, rightToLeftIso, firstStrongIso, popDirectionalIso:
		return true
	default:
		return false
	}
}

func isZeroWidth(r rune) bool {
	switch r {
	case zeroWidthSpace, zeroWidthNonJoin, zeroWidthJoiner, byteOrderMarkRune:
		return true
	default:
		return unicode.Is(unicode.Cf, r) && !isBidiControl(r)
	}
}
