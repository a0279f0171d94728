package lock

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

// fileHandle is a state file held under the advisory lock.
type fileHandle struct {
	path    string
	file    *os.File
	removed bool
}

var _ ports.StateHandle = (*fileHandle)(nil)

func (h *fileHandle) Path() string {
	return h.path
}

func (h *fileHandle) ReadAll() ([]byte, error) {
	if h.removed {
		return nil, nil
	}
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateReadFailed.Error()), "path", h.path)
	}
	data, err := io.ReadAll(h.file)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateReadFailed.Error()), "path", h.path)
	}
	return data, nil
}

func (h *fileHandle) Replace(data []byte) error {
	if err := h.file.Truncate(0); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
	}
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
	}
	if _, err := h.file.Write(data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
	}
	if err := h.file.Sync(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
	}
	return nil
}

// Remove empties the state file and unlinks it where the platform allows unlinking an open file.
// An empty state file reads as a miss, so both outcomes invalidate the record.
func (h *fileHandle) Remove() error {
	if err := h.file.Truncate(0); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
	}
	if removeWhileOpen {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", h.path)
		}
	}
	h.removed = true
	return nil
}

func (h *fileHandle) release() {
	_ = unlockFile(h.file)
	_ = h.file.Close()
}
