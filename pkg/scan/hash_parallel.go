package scan

import (
	"github.com/dsg-dev/dsg-sync/pkg/hash"
	"github.com/dsg-dev/dsg-sync/pkg/parallelism"
)

// pendingHash records a regular file discovered during the walk whose
// content hash still needs to be computed.
type pendingHash struct {
	path         string
	absolutePath string
}

// hashWork implements parallelism.SIMDWork, sharding pending's files across
// the worker array by index: worker i hashes pending[i], pending[i+size],
// .... Each worker only ever writes to indices it owns, so digests needs no
// additional synchronization.
type hashWork struct {
	pending   []pendingHash
	algorithm hash.Algorithm
	digests   []string
	errs      []error
}

// Do implements parallelism.SIMDWork.Do.
func (w *hashWork) Do(index, size int) error {
	for i := index; i < len(w.pending); i += size {
		digest, err := hash.File(w.pending[i].absolutePath, w.algorithm)
		if err != nil {
			w.errs[i] = err
			continue
		}
		w.digests[i] = digest
	}
	return nil
}

// hashEntries computes digests for every pending regular file in parallel
// across the system's CPUs, grounded on the teacher's SIMDWorkerArray
// pattern for fanning out identical per-item work, then writes the results
// back into result.Manifest.Entries. It returns the first hashing error
// encountered, chosen deterministically by walk order rather than
// completion order.
func hashEntries(result *Result, pending []pendingHash, algorithm hash.Algorithm) error {
	if len(pending) == 0 {
		return nil
	}

	work := &hashWork{
		pending:   pending,
		algorithm: algorithm,
		digests:   make([]string, len(pending)),
		errs:      make([]error, len(pending)),
	}

	workers := parallelism.NewSIMDWorkerArray(0)
	defer workers.Terminate()
	if err := workers.Do(work); err != nil {
		return err
	}

	for i, item := range pending {
		if work.errs[i] != nil {
			return work.errs[i]
		}
		entry := result.Manifest.Entries[item.path]
		entry.Hash = work.digests[i]
		result.Manifest.Entries[item.path] = entry
	}
	return nil
}
