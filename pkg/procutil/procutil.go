package procutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/cprobe/mapscan/logger"
	"github.com/shirou/gopsutil/v3/process"
)

type PID int32

// ErrInvalidPID marks a caller-supplied process identifier that is not a
// positive integer.
var ErrInvalidPID = errors.New("invalid pid")

func (p PID) String() string {
	return strconv.Itoa(int(p))
}

// Valid reports whether p can name a running process.
func (p PID) Valid() bool {
	return p > 0
}

// ParsePID converts a textual pid. Anything that is not a positive decimal
// integer is a caller error wrapping ErrInvalidPID.
func ParsePID(s string) (PID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: expected an integer, got %q", ErrInvalidPID, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidPID, n)
	}
	return PID(n), nil
}

// HostProc joins parts onto the procfs root. The root follows HOST_PROC the
// same way gopsutil resolves it, so both read the same tree.
func HostProc(parts ...string) string {
	root := os.Getenv("HOST_PROC")
	if root == "" {
		root = "/proc"
	}
	return filepath.Join(append([]string{root}, parts...)...)
}

// ProcPath returns the path of name inside the control entry of pid.
func ProcPath(pid PID, name ...string) string {
	return HostProc(append([]string{pid.String()}, name...)...)
}

// ListPids returns the pids currently visible under the procfs root. It never
// fails: an unreadable process list is reported as an empty slice.
func ListPids(ctx context.Context) []PID {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		logger.Logger.Debugw("list pids fail", "root", HostProc(), "error", err)
		return []PID{}
	}

	ret := make([]PID, 0, len(pids))
	for _, pid := range pids {
		if pid > 0 {
			ret = append(ret, PID(pid))
		}
	}
	return ret
}

// ReadPidFile reads a single pid from the given file.
func ReadPidFile(path string) (PID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pidfile '%s': %w", path, err)
	}
	pid, err := ParsePID(string(data))
	if err != nil {
		return 0, fmt.Errorf("pidfile '%s': %w", path, err)
	}
	return pid, nil
}

// IsProcessGone returns true if the error indicates the process no longer exists.
func IsProcessGone(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	if errors.Is(err, syscall.ESRCH) {
		return true
	}
	return false
}

// IsPermissionDenied returns true if the error comes from procfs access checks.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES)
}
