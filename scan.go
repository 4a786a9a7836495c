package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
	"github.com/cprobe/mapscan/pkg/scanner"
)

const (
	exitOK       = 0
	exitNoResult = 1
	exitUsage    = 2
)

// runScan serves --scan: one-shot mapping or descriptor search printed to stdout.
func runScan() int {
	c := config.Default()
	c.LogConfig.Output = "stderr"
	c.LogConfig.Format = "console"
	if *loglevel != "" {
		c.LogConfig.Level = *loglevel
	} else {
		c.LogConfig.Level = "warn"
	}
	config.Config = c
	closefn := logger.Build()
	defer closefn()

	q := scanner.Query{Pattern: *pattern, IgnoreCase: *ignoreCase}
	flag.Visit(func(f *flag.Flag) {
		if f.Name != "exact" {
			return
		}
		if *exact {
			q.Mode = scanner.ModeExact
		} else {
			q.Mode = scanner.ModeSubstring
		}
	})

	s := scanner.New(scanner.Options{Concurrency: c.Scan.Concurrency})

	n, err := scan(os.Stdout, s, *scanKind, *pidArg, q)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, procutil.ErrInvalidPID) || errors.Is(err, errUnknownKind) {
			return exitUsage
		}
		return exitNoResult
	}
	if n == 0 {
		return exitNoResult
	}
	return exitOK
}

var errUnknownKind = errors.New("--scan must be maps or fds")

// scan prints results to w and returns how many processes matched.
func scan(w io.Writer, s *scanner.Scanner, kind, pid string, q scanner.Query) (int, error) {
	switch kind {
	case "maps":
		report := make(scanner.Report[*scanner.MappingResult])
		if pid != "" {
			res, ok, err := s.ScanMappingArg(pid, q)
			if err != nil {
				return 0, err
			}
			if ok {
				report[res.PID] = res
			}
		} else {
			report = s.ScanAllMappings(context.Background(), q)
		}
		for _, p := range report.Pids() {
			printMapping(w, report[p])
		}
		return len(report), nil
	case "fds":
		report := make(scanner.Report[*scanner.OpenFileResult])
		if pid != "" {
			res, ok, err := s.ScanOpenFileArg(pid, q)
			if err != nil {
				return 0, err
			}
			if ok {
				report[res.PID] = res
			}
		} else {
			report = s.ScanAllOpenFiles(context.Background(), q)
		}
		for _, p := range report.Pids() {
			printOpenFile(w, report[p])
		}
		return len(report), nil
	default:
		return 0, fmt.Errorf("%w, got %q", errUnknownKind, kind)
	}
}

func printHeader(w io.Writer, h scanner.Header) {
	cwd, ok := procutil.Cwd(h.PID)
	if !ok {
		cwd = "unknown"
	}
	fmt.Fprintf(w, "Process %d (owner: %s, cwd: %s)\n\t%s\n", h.PID, h.Owner, cwd, strings.TrimSpace(h.Cmdline))
}

func printMapping(w io.Writer, res *scanner.MappingResult) {
	printHeader(w, res.Header)
	fmt.Fprintf(w, "Matched mappings:\n%s\n\n", strings.Join(res.MatchedMappings, "\n"))
}

func printOpenFile(w io.Writer, res *scanner.OpenFileResult) {
	printHeader(w, res.Header)
	fmt.Fprintln(w, "Matched descriptors:")
	for i, fd := range res.MatchedDescriptors {
		fmt.Fprintf(w, "\t%d -> %s\n", fd, res.MatchedPaths[i])
	}
	fmt.Fprintln(w)
}
