package scanner

import (
	"bufio"
	"os"
	"strings"

	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
)

// MappingEntry is one line of /proc/<pid>/maps. Only Path takes part in
// matching; Line keeps the original text.
type MappingEntry struct {
	Line    string
	Address string
	Perms   string
	Offset  string
	Device  string
	Inode   string
	Path    string
}

const structuralFields = 5

// ParseMappingLine splits line into its five structural columns and the
// trailing path, which may be empty (anonymous mappings) or contain spaces.
func ParseMappingLine(line string) (MappingEntry, bool) {
	var cols [structuralFields]string

	rest := line
	for i := 0; i < structuralFields; i++ {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return MappingEntry{}, false
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		cols[i] = rest[:end]
		rest = rest[end:]
	}

	return MappingEntry{
		Line:    line,
		Address: cols[0],
		Perms:   cols[1],
		Offset:  cols[2],
		Device:  cols[3],
		Inode:   cols[4],
		Path:    strings.TrimLeft(rest, " \t"),
	}, true
}

func readMappings(pid procutil.PID) ([]MappingEntry, error) {
	f, err := os.Open(procutil.ProcPath(pid, "maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []MappingEntry

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := ParseMappingLine(line)
		if !ok {
			logger.Logger.Debugw("skip malformed maps line", "pid", pid, "line", line)
			continue
		}
		entries = append(entries, entry)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Scanner) scanMapping(pid procutil.PID, q Query) (*MappingResult, bool) {
	entries, err := readMappings(pid)
	if err != nil {
		logger.Logger.Debugw("read maps fail", "pid", pid, "gone", procutil.IsProcessGone(err),
			"denied", procutil.IsPermissionDenied(err), "error", err)
		return nil, false
	}

	match := q.matcher(KindMapping)

	var matched []MappingEntry
	for _, entry := range entries {
		if match(entry.Path) {
			matched = append(matched, entry)
		}
	}

	if len(matched) == 0 {
		return nil, false
	}

	lines := make([]string, len(matched))
	for i := range matched {
		lines[i] = "\t" + matched[i].Line
	}

	return &MappingResult{
		Header:          newHeader(pid, q),
		MatchedMappings: lines,
		Entries:         matched,
	}, true
}
