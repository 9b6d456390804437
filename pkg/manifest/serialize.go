package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireRegularFile is the on-disk shape of a RegularFile entry (spec §6,
// "file-entry fields named type, path, user, filesize, mtime, hash").
type wireRegularFile struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	User     string `json:"user"`
	Filesize uint64 `json:"filesize"`
	Mtime    string `json:"mtime"`
	Hash     string `json:"hash"`
}

// wireSymlink is the on-disk shape of a Symlink entry (spec §6,
// "symlink-entry fields type, path, reference, user, mtime").
type wireSymlink struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Reference string `json:"reference"`
	User      string `json:"user"`
	Mtime     string `json:"mtime"`
}

// wireManifest is the on-disk envelope: a sorted entry list plus a sibling
// metadata object (spec §6, "Metadata carried in a sibling metadata
// object").
type wireManifest struct {
	Entries  []json.RawMessage `json:"entries"`
	Metadata Metadata          `json:"metadata"`
}

const (
	wireTypeFile    = "file"
	wireTypeSymlink = "symlink"
)

func entryToWire(e Entry) (interface{}, error) {
	switch e.Kind {
	case KindRegularFile:
		return wireRegularFile{
			Type:     wireTypeFile,
			Path:     e.Path,
			User:     e.Writer,
			Filesize: e.Size,
			Mtime:    e.ModificationTime,
			Hash:     e.Hash,
		}, nil
	case KindSymlink:
		return wireSymlink{
			Type:      wireTypeSymlink,
			Path:      e.Path,
			Reference: e.Reference,
			User:      e.Writer,
			Mtime:     e.ModificationTime,
		}, nil
	default:
		return nil, fmt.Errorf("entry %q has invalid kind", e.Path)
	}
}

func wireToEntry(raw json.RawMessage) (Entry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Entry{}, fmt.Errorf("unable to probe entry type: %w", err)
	}
	switch probe.Type {
	case wireTypeFile:
		var w wireRegularFile
		if err := json.Unmarshal(raw, &w); err != nil {
			return Entry{}, fmt.Errorf("unable to parse regular file entry: %w", err)
		}
		return Entry{
			Kind:             KindRegularFile,
			Path:             w.Path,
			Size:             w.Filesize,
			ModificationTime: w.Mtime,
			Hash:             w.Hash,
			Writer:           w.User,
		}, nil
	case wireTypeSymlink:
		var w wireSymlink
		if err := json.Unmarshal(raw, &w); err != nil {
			return Entry{}, fmt.Errorf("unable to parse symlink entry: %w", err)
		}
		return Entry{
			Kind:             KindSymlink,
			Path:             w.Path,
			Reference:        w.Reference,
			ModificationTime: w.Mtime,
			Writer:           w.User,
		}, nil
	default:
		return Entry{}, fmt.Errorf("unknown entry type: %q", probe.Type)
	}
}

// canonicalEntries renders m's entries, sorted by path, as stable UTF-8
// JSON bytes suitable for hashing (entries_hash) or for writing to disk.
// Unknown-field forward compatibility is handled at the parse side, not
// here: canonicalEntries only ever emits the fields this format version
// defines.
func canonicalEntries(m *Manifest) ([]byte, error) {
	paths := m.SortedPaths()
	wireEntries := make([]interface{}, 0, len(paths))
	for _, path := range paths {
		wire, err := entryToWire(m.Entries[path])
		if err != nil {
			return nil, err
		}
		wireEntries = append(wireEntries, wire)
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(wireEntries); err != nil {
		return nil, fmt.Errorf("unable to encode entries: %w", err)
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// Serialize renders the full manifest (entries plus metadata) as canonical
// JSON bytes. Two manifests with equal entry sets and metadata always
// serialize to identical bytes (spec §8, "Serialize a manifest, parse it,
// re-serialize: bytes are equal").
func (m *Manifest) Serialize() ([]byte, error) {
	paths := m.SortedPaths()
	rawEntries := make([]json.RawMessage, 0, len(paths))
	for _, path := range paths {
		wire, err := entryToWire(m.Entries[path])
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(wire)
		if err != nil {
			return nil, fmt.Errorf("unable to encode entry %q: %w", path, err)
		}
		rawEntries = append(rawEntries, encoded)
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(wireManifest{Entries: rawEntries, Metadata: m.Metadata}); err != nil {
		return nil, fmt.Errorf("unable to encode manifest: %w", err)
	}
	return buffer.Bytes(), nil
}

// Parse decodes manifest bytes produced by Serialize (or a compatible
// writer). Unknown top-level or entry fields are ignored, preserving
// forward compatibility with later format versions (spec §4.3).
func Parse(data []byte) (*Manifest, error) {
	var wire wireManifest
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}

	entries := make(map[string]Entry, len(wire.Entries))
	for _, raw := range wire.Entries {
		entry, err := wireToEntry(raw)
		if err != nil {
			return nil, err
		}
		entries[entry.Path] = entry
	}

	return &Manifest{Entries: entries, Metadata: wire.Metadata}, nil
}
