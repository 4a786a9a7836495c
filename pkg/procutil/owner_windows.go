//go:build windows
// +build windows

package procutil

import "fmt"

func ownerUID(path string) (uint32, error) {
	return 0, fmt.Errorf("process owners are not available on windows: %s", path)
}
