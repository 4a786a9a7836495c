//go:build !windows
// +build !windows

package procutil

import (
	"fmt"
	"os"
	"syscall"
)

func ownerUID(path string) (uint32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("no stat_t for %s", path)
	}
	return stat.Uid, nil
}
