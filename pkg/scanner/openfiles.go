package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
)

// OpenFileEntry pairs a descriptor with the target of its /proc link, e.g.
// "/etc/hosts", "socket:[1234]", "pipe:[99]" or "/tmp/x (deleted)".
type OpenFileEntry struct {
	FD     int
	Target string
}

func readOpenFiles(pid procutil.PID) ([]OpenFileEntry, error) {
	fdDir := procutil.ProcPath(pid, "fd")

	dirents, err := os.ReadDir(fdDir)
	if err != nil {
		return nil, err
	}

	entries := make([]OpenFileEntry, 0, len(dirents))
	for _, d := range dirents {
		fd, err := strconv.Atoi(d.Name())
		if err != nil {
			continue
		}

		// the descriptor may be closed between listing and readlink
		target, err := os.Readlink(filepath.Join(fdDir, d.Name()))
		if err != nil {
			continue
		}

		entries = append(entries, OpenFileEntry{FD: fd, Target: target})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].FD < entries[j].FD })
	return entries, nil
}

func (s *Scanner) scanOpenFile(pid procutil.PID, q Query) (*OpenFileResult, bool) {
	entries, err := readOpenFiles(pid)
	if err != nil {
		logger.Logger.Debugw("read fd table fail", "pid", pid, "gone", procutil.IsProcessGone(err),
			"denied", procutil.IsPermissionDenied(err), "error", err)
		return nil, false
	}

	match := q.matcher(KindOpenFile)

	var (
		fds   []int
		paths []string
	)
	for _, entry := range entries {
		if match(entry.Target) {
			fds = append(fds, entry.FD)
			paths = append(paths, entry.Target)
		}
	}

	if len(fds) == 0 {
		return nil, false
	}

	return &OpenFileResult{
		Header:             newHeader(pid, q),
		MatchedDescriptors: fds,
		MatchedPaths:       paths,
	}, true
}
