package fs

import (
	"iter"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Walker provides file walking functionality.
type Walker struct {
	fs afero.Fs
}

// NewWalker creates a new Walker.
func NewWalker(fsys afero.Fs) *Walker {
	return &Walker{fs: fsys}
}

// WalkFiles yields every file below root, skipping .git, .jj, .incr and ignored entries.
// Yielded paths include root as prefix.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if skip, action := w.shouldSkip(info, ignores); skip {
				return action
			}

			if info.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether an entry is skipped and what Walk should do about it.
func (w *Walker) shouldSkip(info os.FileInfo, ignores []string) (bool, error) {
	name := info.Name()

	if info.IsDir() && (name == ".git" || name == ".jj" || name == ".incr") {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if info.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
