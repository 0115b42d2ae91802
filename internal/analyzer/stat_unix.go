//go:build linux || darwin

package analyzer

import (
	"os/user"
	"strconv"
)

func lookupOwner(uid, gid uint32) (string, string) {
	owner := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(owner); err == nil {
		owner = u.Username + " (" + owner + ")"
	}
	group := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(group); err == nil {
		group = g.Name + " (" + group + ")"
	}
	return owner, group
}
