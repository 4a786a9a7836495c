package procmap

import (
	"fmt"
	"runtime"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/scanner"
	"github.com/cprobe/mapscan/plugins"
	"github.com/cprobe/mapscan/types"
)

const (
	pluginName = "procmap"
	checkName  = "procmap::held"
)

// Instance alerts while any process maps a file matching Pattern, e.g. a
// library that was upgraded on disk but is still loaded.
type Instance struct {
	config.InternalConfig
	plugins.HolderSearch
}

type ProcmapPlugin struct {
	config.InternalConfig
	Instances []*Instance `toml:"instances"`
}

func (p *ProcmapPlugin) GetInstances() []plugins.Instance {
	ret := make([]plugins.Instance, len(p.Instances))
	for i := 0; i < len(p.Instances); i++ {
		ret[i] = p.Instances[i]
	}
	return ret
}

func init() {
	plugins.Add(pluginName, func() plugins.Plugin {
		return &ProcmapPlugin{}
	})
}

func (ins *Instance) Init() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("procmap plugin only supports linux (current: %s)", runtime.GOOS)
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
		for i, entry := range res.Entries {
			if ins.KeepPath(entry.Path) {
				lines = append(lines, res.MatchedMappings[i])
			}
		}
		if len(lines) == 0 {
			continue
		}

		holders = append(holders, plugins.Holder{
			PID:     pid,
			Owner:   res.Owner,
			Cmdline: res.Cmdline,
			Matches: lines,
		})
	}

	logger.Logger.Debugw("procmap: scan done", "target", ins.Target(), "matched", len(report), "holders", len(holders))

	return []*types.Event{ins.HoldersEvent(checkName, ins.GetDefaultSeverity(), holders)}
}

func (ins *Instance) scan(q scanner.Query) (scanner.Report[*scanner.MappingResult], error) {
	pid, single, err := ins.TargetPid()
	if err != nil {
		return nil, err
	}

	if single {
		report := make(scanner.Report[*scanner.MappingResult])
		res, ok, err := ins.Scanner().ScanMapping(pid, q)
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
	return ins.Scanner().ScanAllMappings(ctx, q), nil
}
