package scanner

import (
	"context"
	"fmt"

	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
)

type Options struct {
	// bound on concurrent per-process inspections in fleet scans; 1 is serial
	Concurrency int
}

type Scanner struct {
	concurrency int
}

func New(opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	return &Scanner{concurrency: opts.Concurrency}
}

// ScanMapping searches the mapping table of pid. ok is false when nothing
// matched or the process could not be inspected; err is only set for an
// invalid pid.
func (s *Scanner) ScanMapping(pid procutil.PID, q Query) (*MappingResult, bool, error) {
	if err := checkPid(pid, KindMapping); err != nil {
		return nil, false, err
	}
	res, ok := s.scanMapping(pid, q)
	return res, ok, nil
}

// ScanMappingArg is ScanMapping for a textual pid.
func (s *Scanner) ScanMappingArg(arg string, q Query) (*MappingResult, bool, error) {
	pid, err := parsePid(arg, KindMapping)
	if err != nil {
		return nil, false, err
	}
	return s.ScanMapping(pid, q)
}

// ScanOpenFile searches the descriptor table of pid. Semantics of ok and err
// follow ScanMapping.
func (s *Scanner) ScanOpenFile(pid procutil.PID, q Query) (*OpenFileResult, bool, error) {
	if err := checkPid(pid, KindOpenFile); err != nil {
		return nil, false, err
	}
	res, ok := s.scanOpenFile(pid, q)
	return res, ok, nil
}

// ScanOpenFileArg is ScanOpenFile for a textual pid.
func (s *Scanner) ScanOpenFileArg(arg string, q Query) (*OpenFileResult, bool, error) {
	pid, err := parsePid(arg, KindOpenFile)
	if err != nil {
		return nil, false, err
	}
	return s.ScanOpenFile(pid, q)
}

// ScanAllMappings runs ScanMapping over every visible pid.
func (s *Scanner) ScanAllMappings(ctx context.Context, q Query) Report[*MappingResult] {
	return fanOut(ctx, procutil.ListPids(ctx), s.concurrency, func(pid procutil.PID) (*MappingResult, bool) {
		return s.scanMapping(pid, q)
	})
}

// ScanAllOpenFiles runs ScanOpenFile over every visible pid.
func (s *Scanner) ScanAllOpenFiles(ctx context.Context, q Query) Report[*OpenFileResult] {
	return fanOut(ctx, procutil.ListPids(ctx), s.concurrency, func(pid procutil.PID) (*OpenFileResult, bool) {
		return s.scanOpenFile(pid, q)
	})
}

func checkPid(pid procutil.PID, kind Kind) error {
	if pid.Valid() {
		return nil
	}
	err := fmt.Errorf("%s scan: %w: %d must be positive", kind, procutil.ErrInvalidPID, pid)
	logger.Logger.Errorw("invalid pid", "kind", kind.String(), "pid", int32(pid))
	return err
}

func parsePid(arg string, kind Kind) (procutil.PID, error) {
	pid, err := procutil.ParsePID(arg)
	if err != nil {
		logger.Logger.Errorw("expected an integer pid", "kind", kind.String(), "arg", arg)
		return 0, fmt.Errorf("%s scan: %w", kind, err)
	}
	return pid, nil
}

var defaultScanner = New(Options{})

// ScanMapping calls ScanMapping on the default scanner.
func ScanMapping(pid procutil.PID, q Query) (*MappingResult, bool, error) {
	return defaultScanner.ScanMapping(pid, q)
}

// ScanMappingArg calls ScanMappingArg on the default scanner.
func ScanMappingArg(arg string, q Query) (*MappingResult, bool, error) {
	return defaultScanner.ScanMappingArg(arg, q)
}

// ScanAllMappings calls ScanAllMappings on the default scanner.
func ScanAllMappings(ctx context.Context, q Query) Report[*MappingResult] {
	return defaultScanner.ScanAllMappings(ctx, q)
}

// ScanOpenFile calls ScanOpenFile on the default scanner.
func ScanOpenFile(pid procutil.PID, q Query) (*OpenFileResult, bool, error) {
	return defaultScanner.ScanOpenFile(pid, q)
}

// ScanOpenFileArg calls ScanOpenFileArg on the default scanner.
func ScanOpenFileArg(arg string, q Query) (*OpenFileResult, bool, error) {
	return defaultScanner.ScanOpenFileArg(arg, q)
}

// ScanAllOpenFiles calls ScanAllOpenFiles on the default scanner.
func ScanAllOpenFiles(ctx context.Context, q Query) Report[*OpenFileResult] {
	return defaultScanner.ScanAllOpenFiles(ctx, q)
}
