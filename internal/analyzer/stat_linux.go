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
	st.accessed = time.Unix(int64(sys.Atim.Sec), int64(sys.Atim.Nsec))
	return st, true
}
