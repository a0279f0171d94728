//go:build unix

package fs

import (
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"

	"go.trai.ch/incr/internal/core/domain"
)

var (
	userNames  sync.Map // uid -> name
	groupNames sync.Map // gid -> name
)

func posixAttributes(info os.FileInfo) *domain.PosixAttributes {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	return &domain.PosixAttributes{
		Mode:  uint32(info.Mode().Perm()),
		Owner: lookupName(&userNames, strconv.FormatUint(uint64(st.Uid), 10), lookupUser),
		Group: lookupName(&groupNames, strconv.FormatUint(uint64(st.Gid), 10), lookupGroup),
	}
}

func lookupName(cache *sync.Map, id string, lookup func(string) (string, error)) string {
	if name, ok := cache.Load(id); ok {
		return name.(string)
	}
	name, err := lookup(id)
	if err != nil || name == "" {
		// Unknown ids (e.g. files extracted from archives) fall back to the numeric id.
		name = id
	}
	cache.Store(id, name)
	return name
}

func lookupUser(uid string) (string, error) {
	u, err := user.LookupId(uid)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func lookupGroup(gid string) (string, error) {
	g, err := user.LookupGroupId(gid)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}
