//go:build !linux && !darwin

package analyzer

import "io/fs"

func platformStat(fs.FileInfo) (statDetails, bool) {
	return statDetails{}, false
}
