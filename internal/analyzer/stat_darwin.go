package analyzer

import (
	"io/fs"
	"syscall"
	"time"
)

func platformStat(info fs.FileInfo) (st statDetails, ok bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return st, false
	}
	st.owner, st.group = lookupOwner(sys.Uid, sys.Gid)
	st.accessed = time.Unix(int64(sys.Atimespec.Sec), int64(sys.Atimespec.Nsec))
	st.created = time.Unix(int64(sys.Birthtimespec.Sec), int64(sys.Birthtimespec.Nsec))
	return st, true
}
