package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cprobe/mapscan/agent"
	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/duty"
	"github.com/cprobe/mapscan/engine"
	"github.com/cprobe/mapscan/logger"
	"github.com/toolkits/pkg/runner"
)

var (
	configDir   = flag.String("configs", "conf.d", "Specify configuration directory.")
	testMode    = flag.Bool("test", false, "Is test mode? Print results to stdout if --test given.")
	interval    = flag.Int64("interval", 0, "Global interval(unit:Second).")
	showVersion = flag.Bool("version", false, "Show version.")
	plugins     = flag.String("plugins", "", "e.g. procmap:procopen")
	url         = flag.String("url", "", "e.g. https://alerts.example.com/event/push")
	loglevel    = flag.String("loglevel", "", "e.g. debug, info, warn, error, fatal")
	once        = flag.Bool("once", false, "Gather every configured check once and exit.")

	scanKind   = flag.String("scan", "", "One-shot scan without configs: maps or fds.")
	pattern    = flag.String("pattern", "", "Pattern for --scan. Empty with --scan maps lists every mapping.")
	pidArg     = flag.String("pid", "", "Limit --scan to one pid.")
	exact      = flag.Bool("exact", false, "Exact match for --scan (default: substring for maps, exact for fds).")
	ignoreCase = flag.Bool("icase", false, "Case-insensitive match for --scan.")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(config.Version)
		os.Exit(0)
	}

	if *scanKind != "" {
		os.Exit(runScan())
	}

	if err := config.InitConfig(*configDir, *testMode || *once, *interval, *plugins, *url, *loglevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	closefn := logger.Build()
	defer closefn()

	runner.Init()
	logger.Logger.Infow("runner info", "binarydir", runner.Cwd, "configdir", *configDir, "hostname", runner.Hostname)

	ag := agent.New()

	if *once {
		if err := ag.RunOnce(); err != nil {
			logger.Logger.Errorw("run once fail", "error", err)
			closefn()
			os.Exit(1)
		}
		return
	}

	if !config.Config.TestMode {
		engine.Duty = duty.New(config.Config.Forward.Url, config.Config.Forward.Client)
		engine.Duty.Start()
		defer engine.Duty.Stop()
	}

	ag.Start()
	waitForSignal(ag)
	ag.Stop()

	logger.Logger.Info("agent exited")
}
