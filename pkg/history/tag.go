package history

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionedTag is a parsed "v<major>[.<minor>[.<patch>]][-<description>]"
// tag id (spec §4.9). Minor and Patch are 0 when absent, with HasMinor and
// HasPatch false; Less below treats an absent component as 0 for ordering
// purposes, matching semantic-version comparison conventions.
type VersionedTag struct {
	Major       int
	Minor       int
	Patch       int
	HasMinor    bool
	HasPatch    bool
	Description string
}

// ParseVersionedTag parses a tag id against the grammar
// v<major>[.<minor>[.<patch>]][-<description>]. It returns an error if id
// does not match.
func ParseVersionedTag(id string) (VersionedTag, error) {
	if !strings.HasPrefix(id, "v") {
		return VersionedTag{}, fmt.Errorf("versioned tag must start with 'v': %q", id)
	}
	rest := id[1:]

	description := ""
	if dash := strings.IndexByte(rest, '-'); dash >= 0 {
		description = rest[dash+1:]
		rest = rest[:dash]
	}

	parts := strings.Split(rest, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return VersionedTag{}, fmt.Errorf("invalid versioned tag: %q", id)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return VersionedTag{}, fmt.Errorf("invalid major version in tag %q: %w", id, err)
	}

	tag := VersionedTag{Major: major, Description: description}

	if len(parts) >= 2 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			return VersionedTag{}, fmt.Errorf("invalid minor version in tag %q: %w", id, err)
		}
		tag.Minor = minor
		tag.HasMinor = true
	}
	if len(parts) == 3 {
		patch, err := strconv.Atoi(parts[2])
		if err != nil {
			return VersionedTag{}, fmt.Errorf("invalid patch version in tag %q: %w", id, err)
		}
		tag.Patch = patch
		tag.HasPatch = true
	}

	return tag, nil
}

// String renders the tag back to its canonical id form.
func (v VersionedTag) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "v%d", v.Major)
	if v.HasMinor {
		fmt.Fprintf(&builder, ".%d", v.Minor)
	}
	if v.HasPatch {
		fmt.Fprintf(&builder, ".%d", v.Patch)
	}
	if v.Description != "" {
		fmt.Fprintf(&builder, "-%s", v.Description)
	}
	return builder.String()
}

// Less reports whether v sorts before other by numeric tuple (spec §4.9,
// "sortable by numeric tuple"), treating an absent minor/patch as 0.
func (v VersionedTag) Less(other VersionedTag) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}
