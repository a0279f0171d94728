package incremental_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	fsadapter "go.trai.ch/incr/internal/adapters/fs"
	"go.trai.ch/incr/internal/adapters/lock"
	"go.trai.ch/incr/internal/adapters/logger"
	"go.trai.ch/incr/internal/adapters/statefile"
	"go.trai.ch/incr/internal/adapters/telemetry"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/incr/internal/engine/incremental"
)

type cacheSetup struct {
	stateRoot   string
	codeVersion string
	tracer      ports.Tracer
	codec       ports.StateCodec
	locker      ports.Locker
}

type setupOption func(*cacheSetup)

func withCodeVersion(v string) setupOption {
	return func(s *cacheSetup) { s.codeVersion = v }
}

func withTracer(tr ports.Tracer) setupOption {
	return func(s *cacheSetup) { s.tracer = tr }
}

func withStateRoot(dir string) setupOption {
	return func(s *cacheSetup) { s.stateRoot = dir }
}

func withLocker(l ports.Locker) setupOption {
	return func(s *cacheSetup) { s.locker = l }
}

func withCodec(c ports.StateCodec) setupOption {
	return func(s *cacheSetup) { s.codec = c }
}

// newCache creates a cache on the real filesystem with a private state root.
func newCache(t *testing.T, setup []setupOption, opts ...incremental.Option) *incremental.Cache {
	t.Helper()

	s := &cacheSetup{
		stateRoot:   filepath.Join(t.TempDir(), ".incr", "state"),
		codeVersion: "v1",
		tracer:      telemetry.NewNoOpTracer(),
		codec:       statefile.NewCodec(),
		locker:      lock.New(),
	}
	for _, o := range setup {
		o(s)
	}

	lg := logger.New()
	lg.SetOutput(io.Discard)

	return incremental.New(
		s.stateRoot,
		s.codeVersion,
		fsadapter.NewFingerprinter(afero.NewOsFs()),
		s.codec,
		s.locker,
		lg,
		s.tracer,
		opts...,
	)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
