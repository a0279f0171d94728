package domain

import (
	"maps"
	"slices"
	"strconv"
	"time"
)

const (
	// FingerprintMissing marks a path that did not exist when the state was read.
	FingerprintMissing = "MISSING"

	// FingerprintEmptyDir marks a directory without any children.
	FingerprintEmptyDir = "EMPTY DIR"
)

// MissingPolicy controls how the fingerprinter treats a path that does not exist.
type MissingPolicy int

const (
	// MissingIsRecorded records absent paths as FingerprintMissing.
	MissingIsRecorded MissingPolicy = iota
	// MissingIsError fails with ErrOutputMissing on the first absent path.
	MissingIsError
)

// PathState maps absolute paths to their fingerprint.
type PathState map[string]string

// Equal reports whether both states hold the same paths with the same fingerprints.
// A nil state equals an empty one.
func (s PathState) Equal(other PathState) bool {
	return maps.Equal(s, other)
}

// Paths returns the recorded paths in sorted order.
func (s PathState) Paths() []string {
	return slices.Sorted(maps.Keys(s))
}

// PosixAttributes holds the optional permission and ownership part of a fingerprint.
type PosixAttributes struct {
	Mode  uint32
	Owner string
	Group string
}

// FileFingerprint formats the fingerprint of a regular file (or any non-directory entry).
func FileFingerprint(size int64, mtime time.Time, posix *PosixAttributes) string {
	fp := "size " + strconv.FormatInt(size, 10) + " mtime " + mtime.UTC().Format(time.RFC3339Nano)
	if posix != nil {
		fp += " mode " + strconv.FormatUint(uint64(posix.Mode), 8) + " owner " + posix.Owner + " group " + posix.Group
	}
	return fp
}

// NormalizePathSet returns a sorted copy of paths without duplicates.
func NormalizePathSet(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	return slices.Compact(out)
}

// UniquePaths returns paths without duplicates, keeping the first occurrence order.
func UniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
