package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
	"github.com/dsg-dev/dsg-sync/pkg/hash"
	"github.com/dsg-dev/dsg-sync/pkg/manifest"
	"github.com/dsg-dev/dsg-sync/pkg/manifest/validate"
)

// Options configures a single Scanner run (spec §4.2, "Input").
type Options struct {
	// Root is the working directory to scan.
	Root string
	// Ignore is the ignore policy to apply.
	Ignore IgnorePolicy
	// MetadataDirectoryName is excluded from the manifest unless
	// IncludeMetadataDirectory is set.
	MetadataDirectoryName string
	// IncludeMetadataDirectory includes the engine's own metadata directory
	// in the resulting manifest. Scans feeding ManifestMerger always leave
	// this false; only diagnostic tooling sets it true.
	IncludeMetadataDirectory bool
	// DataDirs restricts scanning to these top-level directory names when
	// non-empty (SPEC_FULL §3.2).
	DataDirs []string
	// HashFiles enables content hashing of regular files. When false,
	// entries carry an empty hash and compare only by (size, mtime, path)
	// per spec §4.5's tie-break rule.
	HashFiles bool
	// Algorithm is the hash algorithm used when HashFiles is true.
	Algorithm hash.Algorithm
	// Writer is the user id recorded as Entry.Writer for every entry
	// produced by this scan.
	Writer string
}

// Result is the Scanner's output: a fresh manifest plus the validation
// warnings collected along the way (spec §4.2, "Output").
type Result struct {
	Manifest *manifest.Manifest
	Warnings []validate.Problem
}

// Scan walks opts.Root once, honoring the ignore policy and data_dirs
// restriction, and returns the resulting manifest and validation warnings.
// It does not follow directories through symlinks (spec §4.2).
func Scan(opts Options) (*Result, error) {
	result := &Result{Manifest: manifest.New()}
	dataDirSet := toSet(opts.DataDirs)
	var pending []pendingHash

	walkErr := filepath.WalkDir(opts.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == opts.Root {
			return nil
		}

		relative, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			return relErr
		}
		relative = filepath.ToSlash(relative)

		if !opts.IncludeMetadataDirectory && isMetadataDirectory(relative, opts.MetadataDirectoryName) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if len(dataDirSet) > 0 && !withinDataDirs(relative, dataDirSet) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := filepath.Base(relative)
		if isAppleDouble(base) || strings.HasPrefix(base, filesystem.TemporaryNamePrefix) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if ignored(relative, opts.Ignore) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			// No Directory entries in the manifest (spec §3); recurse
			// through, nothing to record.
			return nil
		}

		normalized := norm.NFC.String(relative)
		if normalized != relative {
			result.Warnings = append(result.Warnings, validate.Problem{
				Path:  relative,
				Cause: "path is not NFC-normalized",
			})
		}
		for _, problem := range validate.Validate(normalized) {
			result.Warnings = append(result.Warnings, problem)
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			return recordSymlink(result, opts, normalized, path, info)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if recErr := recordRegularFile(result, opts, normalized, path, info); recErr != nil {
			return recErr
		}
		if opts.HashFiles {
			pending = append(pending, pendingHash{path: normalized, absolutePath: path})
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if err := hashEntries(result, pending, opts.Algorithm); err != nil {
		return nil, err
	}

	sort.Slice(result.Warnings, func(i, j int) bool {
		return result.Warnings[i].Path < result.Warnings[j].Path
	})

	return result, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func withinDataDirs(relative string, dataDirs map[string]bool) bool {
	top := relative
	if slash := strings.IndexByte(relative, '/'); slash >= 0 {
		top = relative[:slash]
	}
	return dataDirs[top]
}

func isMetadataDirectory(relative, metadataDirectoryName string) bool {
	if metadataDirectoryName == "" {
		return false
	}
	return relative == metadataDirectoryName || strings.HasPrefix(relative, metadataDirectoryName+"/")
}

func ignored(relative string, policy IgnorePolicy) bool {
	if policy.Paths[relative] {
		return true
	}
	for _, component := range strings.Split(relative, "/") {
		if policy.Names[component] {
			return true
		}
	}
	for _, suffix := range policy.Suffixes {
		if strings.HasSuffix(relative, suffix) {
			return true
		}
	}
	return false
}
