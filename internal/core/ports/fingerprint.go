package ports

import "go.trai.ch/incr/internal/core/domain"

// PathStateReader computes lightweight fingerprints of filesystem paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprint.go -destination=mocks/mock_fingerprint.go -package=mocks
type PathStateReader interface {
	// ReadPathState fingerprints every path, expanding directories to the files they contain.
	// Paths equal to or below an entry of excluded are skipped.
	// Every path must be absolute.
	ReadPathState(paths []string, excluded []string, policy domain.MissingPolicy) (domain.PathState, error)

	// PathExists reports whether an absolute path exists.
	PathExists(path string) (bool, error)
}
