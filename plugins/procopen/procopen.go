package procopen

import (
	"fmt"
	"runtime"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/procutil"
	"github.com/cprobe/mapscan/pkg/scanner"
	"github.com/cprobe/mapscan/plugins"
	"github.com/cprobe/mapscan/types"
)

const (
	pluginName = "procopen"
	checkName  = "procopen::held"
)

// Instance alerts while any process has a descriptor open on Pattern.
// Matching is exact unless exact_match = false.
type Instance struct {
	config.InternalConfig
	plugins.HolderSearch
}

type ProcopenPlugin struct {
	config.InternalConfig
	Instances []*Instance `toml:"instances"`
}

func (p *ProcopenPlugin) GetInstances() []plugins.Instance {
	ret := make([]plugins.Instance, len(p.Instances))
	for i := 0; i < len(p.Instances); i++ {
		ret[i] = p.Instances[i]
	}
	return ret
}

func init() {
	plugins.Add(pluginName, func() plugins.Plugin {
		return &ProcopenPlugin{}
	})
}

func (ins *Instance) Init() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("procopen plugin only supports linux (current: %s)", runtime.GOOS)
	}
	return ins.InitSearch()
}

func (ins *Instance) Gather() []*types.Event {
	q := ins.Query()

	report, err := ins.scan(q)
	if err != nil {
		return []*types.Event{ins.NewEvent(checkName).
			SetEventStatus(types.EventStatusCritical).
			SetDescription(fmt.Sprintf("search error: %v", err))}
	}

	var holders []plugins.Holder
	for _, pid := range report.Pids() {
		res := report[pid]
		if !ins.KeepOwner(res.Owner) {
			continue
		}

		var lines []string
		for i, path := range res.MatchedPaths {
			if ins.KeepPath(path) {
				lines = append(lines, fmt.Sprintf("\tfd %d -> %s", res.MatchedDescriptors[i], path))
			}
		}
		if len(lines) == 0 {
			continue
		}

		holders = append(holders, plugins.Holder{
			PID:     pid,
			Owner:   res.Owner,
			Cmdline: holderCmdline(pid, res.Cmdline),
			Matches: lines,
		})
	}

	logger.Logger.Debugw("procopen: scan done", "target", ins.Target(), "matched", len(report), "holders", len(holders))

	return []*types.Event{ins.HoldersEvent(checkName, ins.GetDefaultSeverity(), holders)}
}

// kernel threads have no cmdline; fall back to the executable name
func holderCmdline(pid procutil.PID, cmdline string) string {
	if cmdline != "" {
		return cmdline
	}
	if name, ok := procutil.ExecName(pid); ok {
		return "[" + name + "]"
	}
	return ""
}

func (ins *Instance) scan(q scanner.Query) (scanner.Report[*scanner.OpenFileResult], error) {
	pid, single, err := ins.TargetPid()
	if err != nil {
		return nil, err
	}

	if single {
		report := make(scanner.Report[*scanner.OpenFileResult])
		res, ok, err := ins.Scanner().ScanOpenFile(pid, q)
		if err != nil {
			return nil, err
		}
		if ok {
			report[pid] = res
		}
		return report, nil
	}

	ctx, cancel := ins.Context()
	defer cancel()
	return ins.Scanner().ScanAllOpenFiles(ctx, q), nil
}
