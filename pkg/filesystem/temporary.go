package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for temporary files and
	// directories created inside a working copy by the engine itself (staged
	// downloads, atomic-write scratch files). The Scanner always excludes
	// names with this prefix (spec §4.2's metadata-directory flag covers the
	// metadata directory; this prefix covers everything else).
	TemporaryNamePrefix = ".dsg-temporary-"
)
