package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/pkg/filter"
	"github.com/cprobe/mapscan/pkg/procutil"
	"github.com/cprobe/mapscan/pkg/scanner"
	"github.com/cprobe/mapscan/types"
)

// maximum holders spelled out in an event description
const describeLimit = 10

// Holder is one process found holding a watched resource.
type Holder struct {
	PID     procutil.PID
	Owner   string
	Cmdline string
	Matches []string
}

// HolderSearch is the check config shared by procmap and procopen.
type HolderSearch struct {
	Pattern     string   `toml:"pattern"`
	ExactMatch  *bool    `toml:"exact_match"`
	IgnoreCase  bool     `toml:"ignore_case"`
	IgnorePaths []string `toml:"ignore_paths"`
	OnlyUsers   []string `toml:"only_users"`
	IgnoreUsers []string `toml:"ignore_users"`

	SearchPidFile string          `toml:"search_pid_file"`
	Concurrency   int             `toml:"concurrency"`
	Timeout       config.Duration `toml:"timeout"`
	TitleRule     string          `toml:"title_rule"`

	scanner *scanner.Scanner
	paths   filter.Filter
	users   *filter.IncludeExcludeFilter
}

func (h *HolderSearch) InitSearch() error {
	h.Pattern = strings.TrimSpace(h.Pattern)
	h.SearchPidFile = strings.TrimSpace(h.SearchPidFile)

	if h.Pattern == "" {
		return fmt.Errorf("pattern must be configured")
	}

	if h.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative (got %s)", h.Timeout)
	}

	var err error
	if h.paths, err = filter.Compile(h.IgnorePaths); err != nil {
		return fmt.Errorf("ignore_paths: %w", err)
	}

	if h.users, err = filter.NewIncludeExcludeFilter(h.OnlyUsers, h.IgnoreUsers); err != nil {
		return fmt.Errorf("only_users/ignore_users: %w", err)
	}

	if h.Concurrency <= 0 {
		h.Concurrency = config.Config.Scan.Concurrency
	}

	h.scanner = scanner.New(scanner.Options{Concurrency: h.Concurrency})
	return nil
}

func (h *HolderSearch) Query() scanner.Query {
	q := scanner.Query{Pattern: h.Pattern, IgnoreCase: h.IgnoreCase}
	if h.ExactMatch != nil {
		if *h.ExactMatch {
			q.Mode = scanner.ModeExact
		} else {
			q.Mode = scanner.ModeSubstring
		}
	}
	return q
}

func (h *HolderSearch) Scanner() *scanner.Scanner {
	if h.scanner == nil {
		h.scanner = scanner.New(scanner.Options{Concurrency: h.Concurrency})
	}
	return h.scanner
}

// Context bounds a whole fleet scan by timeout, when one is configured.
func (h *HolderSearch) Context() (context.Context, context.CancelFunc) {
	if h.Timeout > 0 {
		return context.WithTimeout(context.Background(), time.Duration(h.Timeout))
	}
	return context.WithCancel(context.Background())
}

// TargetPid resolves search_pid_file. ok is false when no pidfile is set.
func (h *HolderSearch) TargetPid() (procutil.PID, bool, error) {
	if h.SearchPidFile == "" {
		return 0, false, nil
	}
	pid, err := procutil.ReadPidFile(h.SearchPidFile)
	return pid, true, err
}

func (h *HolderSearch) KeepPath(path string) bool {
	return h.paths == nil || !h.paths.Match(path)
}

func (h *HolderSearch) KeepOwner(owner string) bool {
	return h.users == nil || h.users.Match(owner)
}

func (h *HolderSearch) Target() string {
	if h.SearchPidFile != "" {
		return h.Pattern + " @ " + h.SearchPidFile
	}
	return h.Pattern
}

func (h *HolderSearch) NewEvent(check string) *types.Event {
	tr := h.TitleRule
	if tr == "" {
		tr = "[check] [target]"
	}
	return types.BuildEvent(map[string]string{
		"check":  check,
		"target": h.Target(),
	}).SetTitleRule(tr)
}

// HoldersEvent summarises holders into one event per check target, so a
// later event with no holders recovers it.
func (h *HolderSearch) HoldersEvent(check, severity string, holders []Holder) *types.Event {
	event := h.NewEvent(check)
	event.Labels[types.AttrPrefix+"holder_count"] = fmt.Sprintf("%d", len(holders))

	if len(holders) == 0 {
		return event.SetDescription(fmt.Sprintf("no process holds %q, everything is ok", h.Pattern))
	}

	pids := make([]string, len(holders))
	for i := range holders {
		pids[i] = holders[i].PID.String()
	}
	event.Labels[types.AttrPrefix+"pids"] = strings.Join(pids, ",")

	return event.SetEventStatus(severity).SetDescription(DescribeHolders(h.Pattern, holders))
}

func DescribeHolders(pattern string, holders []Holder) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d process(es) hold %q", len(holders), pattern)

	for i, holder := range holders {
		if i == describeLimit {
			fmt.Fprintf(&sb, "\n... and %d more", len(holders)-describeLimit)
			break
		}
		fmt.Fprintf(&sb, "\npid %d (%s): %s", holder.PID, holder.Owner, holder.Cmdline)
		for _, m := range holder.Matches {
			sb.WriteString("\n")
			sb.WriteString(m)
		}
	}

	return sb.String()
}
