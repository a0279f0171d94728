package fs

import (
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/zerr"
)

// Hasher computes content hashes. The cache itself only uses fingerprints; content
// hashes serve as the code version marker of the running tool.
type Hasher struct {
	fs         afero.Fs
	executable func() (string, error)
}

// NewHasher creates a new Hasher.
func NewHasher(fsys afero.Fs) *Hasher {
	return &Hasher{fs: fsys, executable: os.Executable}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return digest.Sum64(), nil
}

// CodeVersion returns the hex encoded hash of the running executable.
// A rebuilt binary produces a new code version and thereby invalidates every state file.
func (h *Hasher) CodeVersion() (string, error) {
	path, err := h.executable()
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrExecutableHashFailed.Error())
	}
	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrExecutableHashFailed.Error())
	}
	return strconv.FormatUint(sum, 16), nil
}
