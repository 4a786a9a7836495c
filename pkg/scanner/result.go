package scanner

import (
	"sort"

	"github.com/cprobe/mapscan/pkg/procutil"
)

// Header is shared by every result variant.
type Header struct {
	Query   Query
	PID     procutil.PID
	Owner   string
	Cmdline string
}

// MappingResult lists the mapping lines of one process that matched.
// MatchedMappings[i] is Entries[i].Line prefixed with a tab.
type MappingResult struct {
	Header
	MatchedMappings []string
	Entries         []MappingEntry
}

// OpenFileResult lists the descriptors of one process that matched.
// MatchedDescriptors[i] refers to MatchedPaths[i].
type OpenFileResult struct {
	Header
	MatchedDescriptors []int
	MatchedPaths       []string
}

// Report holds only the pids that produced a result.
type Report[T any] map[procutil.PID]T

// Pids returns the keys of r in ascending order.
func (r Report[T]) Pids() []procutil.PID {
	pids := make([]procutil.PID, 0, len(r))
	for pid := range r {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

func newHeader(pid procutil.PID, q Query) Header {
	cmdline, _ := procutil.Cmdline(pid)
	return Header{
		Query:   q,
		PID:     pid,
		Owner:   procutil.OwnerDisplay(pid),
		Cmdline: cmdline,
	}
}
