package fs

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

const recursiveWildcard = "**"

// Resolver implements the InputResolver interface using afero globbing.
//
// Plain paths are kept even when they do not exist, so the cache records them as
// missing. Glob patterns expand to their current matches, and a "**" segment
// matches files at any depth below the directory before it.
type Resolver struct {
	fs     afero.Fs
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(fsys afero.Fs, walker *Walker) *Resolver {
	return &Resolver{fs: fsys, walker: walker}
}

// ResolveInputs implements ports.InputResolver.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	resolved := make([]string, 0, len(inputs))

	for _, input := range inputs {
		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, input)
		}

		switch {
		case strings.Contains(path, recursiveWildcard):
			matches, err := r.resolveRecursive(path)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, matches...)
		case hasMeta(path):
			if _, err := filepath.Match(path, ""); err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", path)
			}
			matches, err := afero.Glob(r.fs, path)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", path)
			}
			resolved = append(resolved, matches...)
		default:
			resolved = append(resolved, filepath.Clean(path))
		}
	}

	return domain.NormalizePathSet(resolved), nil
}

func (r *Resolver) resolveRecursive(path string) ([]string, error) {
	base, pattern, _ := strings.Cut(path, recursiveWildcard)
	base = filepath.Clean(base)
	pattern = strings.TrimLeft(pattern, string(filepath.Separator))
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", path)
		}
	}

	var matches []string
	for file := range r.walker.WalkFiles(base, nil) {
		if pattern == "" {
			matches = append(matches, file)
			continue
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(file)); ok {
			matches = append(matches, file)
		}
	}
	slices.Sort(matches)
	return matches, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, `*?[`)
}
