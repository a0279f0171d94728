//go:build !unix

package fs

import (
	"os"

	"go.trai.ch/incr/internal/core/domain"
)

func posixAttributes(os.FileInfo) *domain.PosixAttributes {
	return nil
}
