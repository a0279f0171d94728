// Package fs provides file system adapters for fingerprinting, walking, resolving and hashing files.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathStateReader = (*Fingerprinter)(nil)

// Fingerprinter computes size/mtime based fingerprints of files and directory trees.
// It never reads file contents.
type Fingerprinter struct {
	fs afero.Fs
}

// NewFingerprinter creates a Fingerprinter on top of the given filesystem.
func NewFingerprinter(fsys afero.Fs) *Fingerprinter {
	return &Fingerprinter{fs: fsys}
}

// ReadPathState implements ports.PathStateReader.
func (f *Fingerprinter) ReadPathState(
	paths []string,
	excluded []string,
	policy domain.MissingPolicy,
) (domain.PathState, error) {
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			return nil, zerr.With(domain.ErrPathNotAbsolute, "path", p)
		}
	}

	r := &stateReader{
		fs:       f.fs,
		policy:   policy,
		excluded: cleanPaths(excluded),
		state:    make(domain.PathState, len(paths)),
	}
	for _, p := range paths {
		if err := r.readPath(filepath.Clean(p)); err != nil {
			return nil, err
		}
	}
	return r.state, nil
}

// PathExists implements ports.PathStateReader.
func (f *Fingerprinter) PathExists(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		return false, zerr.With(domain.ErrPathNotAbsolute, "path", path)
	}
	_, err := f.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	return false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
}

type stateReader struct {
	fs       afero.Fs
	policy   domain.MissingPolicy
	excluded []string
	state    domain.PathState
}

func (r *stateReader) readPath(path string) error {
	if r.isExcluded(path) {
		return nil
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		if !errors.Is(err, iofs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
		}
		if r.policy == domain.MissingIsError {
			return zerr.With(domain.ErrOutputMissing, "path", path)
		}
		r.state[path] = domain.FingerprintMissing
		return nil
	}

	if info.IsDir() {
		return r.readDir(path)
	}
	r.state[path] = fingerprint(info)
	return nil
}

// readDir records every file below dir. Subdirectories count as children, so an
// empty subdirectory gets its own EMPTY DIR entry while its parent gets none.
func (r *stateReader) readDir(dir string) error {
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPathWalkFailed.Error()), "path", dir)
	}

	children := 0
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if r.isExcluded(child) {
			continue
		}
		children++
		if entry.IsDir() {
			if err := r.readDir(child); err != nil {
				return err
			}
			continue
		}
		r.state[child] = fingerprint(entry)
	}

	if children == 0 {
		r.state[dir] = domain.FingerprintEmptyDir
	}
	return nil
}

func (r *stateReader) isExcluded(path string) bool {
	for _, ex := range r.excluded {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func fingerprint(info os.FileInfo) string {
	return domain.FileFingerprint(info.Size(), info.ModTime(), posixAttributes(info))
}

func cleanPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Clean(p)
	}
	return out
}
