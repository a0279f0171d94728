package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/incr/internal/core/domain"
)

func TestStateFileName(t *testing.T) {
	t.Run("sanitizes unsafe characters", func(t *testing.T) {
		name := domain.StateFileName("jvm compile:app/main")
		assert.True(t, strings.HasPrefix(name, "jvm_compile_app_main-"), name)
		assert.Len(t, strings.TrimPrefix(name, "jvm_compile_app_main-"), 10)
	})

	t.Run("keeps safe characters", func(t *testing.T) {
		assert.Equal(t, "a.b-c_D9", domain.SanitizeCacheID("a.b-c_D9"))
	})

	t.Run("ids sharing a sanitized stem get distinct names", func(t *testing.T) {
		assert.NotEqual(t, domain.StateFileName("a:b"), domain.StateFileName("a/b"))
	})

	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, domain.StateFileName("compile-a"), domain.StateFileName("compile-a"))
	})
}

func TestComputeChanges(t *testing.T) {
	previous := domain.PathState{"/a": "s1", "/b": "s2"}
	current := domain.PathState{"/b": "s2*", "/c": "s3"}

	assert.Equal(t, []domain.Change{
		{Path: "/a", Type: domain.ChangeDeleted},
		{Path: "/b", Type: domain.ChangeModified},
		{Path: "/c", Type: domain.ChangeCreated},
	}, domain.ComputeChanges(previous, current))

	assert.Empty(t, domain.ComputeChanges(current, current))
	assert.Equal(t, []domain.Change{{Path: "/c", Type: domain.ChangeCreated}},
		domain.ComputeChanges(nil, domain.PathState{"/c": "s3"}))
}

func TestFileFingerprint(t *testing.T) {
	mtime := time.Date(2025, 3, 4, 5, 6, 7, 800, time.FixedZone("X", 3600))

	assert.Equal(t, "size 12 mtime 2025-03-04T04:06:07.0000008Z", domain.FileFingerprint(12, mtime, nil))
	assert.Equal(t,
		"size 0 mtime 2025-03-04T04:06:07.0000008Z mode 644 owner alice group staff",
		domain.FileFingerprint(0, mtime, &domain.PosixAttributes{Mode: 0o644, Owner: "alice", Group: "staff"}),
	)
}

func TestPathSets(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b"}, domain.NormalizePathSet([]string{"/b", "/a", "/b"}))
	assert.Equal(t, []string{"/b", "/a"}, domain.UniquePaths([]string{"/b", "/a", "/b"}))
	assert.True(t, domain.PathState(nil).Equal(domain.PathState{}))
}

func TestPersistedState_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, (&domain.PersistedState{}).Expired(now))
	assert.False(t, (&domain.PersistedState{ExpiresAt: now.Add(time.Hour)}).Expired(now))
	assert.True(t, (&domain.PersistedState{ExpiresAt: now}).Expired(now))
	assert.True(t, (&domain.PersistedState{ExpiresAt: now.Add(-time.Hour)}).Expired(now))
}

func TestDynamicInputsState(t *testing.T) {
	v := "1"
	w := "1"
	a := domain.DynamicInputsState{Env: map[string]*string{"A": &v, "B": nil}}
	b := domain.DynamicInputsState{Env: map[string]*string{"A": &w, "B": nil}}
	assert.True(t, a.Equal(b))

	b.Merge(domain.DynamicInputsState{PathsExist: map[string]bool{"/x": false}})
	assert.False(t, a.Equal(b))
	assert.False(t, b.IsEmpty())
	assert.True(t, domain.DynamicInputsState{}.IsEmpty())
}

func TestInconsistentStateError(t *testing.T) {
	err := &domain.InconsistentStateError{StateFile: "/s/x-1", Reason: "not up-to-date", Content: "{}"}
	assert.Equal(t, "not up-to-date: /s/x-1\n--- BEGIN /s/x-1\n{}\n--- END /s/x-1", err.Error())
}
