package agent

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/plugins"
	"github.com/toolkits/pkg/file"

	// auto registry
	_ "github.com/cprobe/mapscan/plugins/procmap"
	_ "github.com/cprobe/mapscan/plugins/procopen"
)

type PluginConfig struct {
	Source      string // file
	Digest      string
	FileContent []byte
}

type Agent struct {
	pluginFilters map[string]struct{}
	pluginConfigs map[string]*PluginConfig
	pluginRunners map[string]*PluginRunner
	sync.RWMutex
}

func New() *Agent {
	return &Agent{
		pluginFilters: parseFilter(config.Config.Plugins),
		pluginConfigs: make(map[string]*PluginConfig),
		pluginRunners: make(map[string]*PluginRunner),
	}
}

func (a *Agent) Start() {
	logger.Logger.Info("agent starting")

	pcs, err := loadFileConfigs()
	if err != nil {
		logger.Logger.Errorw("load file configs fail", "error", err)
		return
	}

	for name, pc := range pcs {
		a.LoadPlugin(name, pc)
	}

	logger.Logger.Info("agent started")
}

// RunOnce gathers every configured check a single time, synchronously, and
// prints every event whatever the alerting settings are.
func (a *Agent) RunOnce() error {
	pcs, err := loadFileConfigs()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(pcs))
	for name := range pcs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if !a.wanted(name) {
			continue
		}
		p, err := newPlugin(name, pcs[name])
		if err != nil {
			return err
		}
		r := newPluginRunner(name, p)
		r.once = true
		r.gatherOnce()
	}
	return nil
}

func (a *Agent) wanted(name string) bool {
	if len(a.pluginFilters) == 0 {
		return true
	}
	_, has := a.pluginFilters[name]
	return has
}

func newPlugin(name string, pc *PluginConfig) (plugins.Plugin, error) {
	creator, has := plugins.PluginCreators[name]
	if !has {
		return nil, fmt.Errorf("plugin %s not supported", name)
	}

	pluginObject := creator()
	if err := toml.Unmarshal(pc.FileContent, pluginObject); err != nil {
		return nil, fmt.Errorf("unmarshal plugin %s config fail: %w", name, err)
	}
	return pluginObject, nil
}

func (a *Agent) LoadPlugin(name string, pc *PluginConfig) {
	if !a.wanted(name) {
		return
	}

	logger.Logger.Infow("loading plugin", "plugin", name)

	pluginObject, err := newPlugin(name, pc)
	if err != nil {
		logger.Logger.Errorw("load plugin fail", "plugin", name, "error", err)
		return
	}

	runner := newPluginRunner(name, pluginObject)
	runner.start()

	a.Lock()
	a.pluginRunners[name] = runner
	a.pluginConfigs[name] = pc
	a.Unlock()
}

func (a *Agent) DelPlugin(name string) {
	a.Lock()
	defer a.Unlock()

	if runner, has := a.pluginRunners[name]; has {
		runner.stop()
		delete(a.pluginRunners, name)
		delete(a.pluginConfigs, name)
	}
}

func (a *Agent) RunningPlugins() []string {
	a.RLock()
	defer a.RUnlock()

	ret := make([]string, 0, len(a.pluginRunners))
	for name := range a.pluginRunners {
		ret = append(ret, name)
	}
	return ret
}

func (a *Agent) GetPluginConfig(name string) *PluginConfig {
	a.RLock()
	defer a.RUnlock()

	return a.pluginConfigs[name]
}

func (a *Agent) Stop() {
	logger.Logger.Info("agent stopping")

	a.Lock()
	defer a.Unlock()

	for name := range a.pluginRunners {
		a.pluginRunners[name].stop()
		delete(a.pluginRunners, name)
		delete(a.pluginConfigs, name)
	}

	logger.Logger.Info("agent stopped")
}

// Reload restarts checks whose files changed and starts new ones.
func (a *Agent) Reload() {
	logger.Logger.Info("agent reloading")

	names := a.RunningPlugins()
	a.HandleChangedPlugin(names)
	a.HandleNewPlugin(names)

	logger.Logger.Info("agent reloaded")
}

func (a *Agent) HandleChangedPlugin(names []string) {
	for _, name := range names {
		pc := a.GetPluginConfig(name)
		if pc == nil || pc.Source != "file" {
			continue
		}

		mtime, content, err := readPluginDir(name)
		if err != nil {
			logger.Logger.Errorw("read plugin dir fail", "plugin", name, "error", err)
			continue
		}

		if mtime == -1 || len(content) == 0 {
			// files deleted
			a.DelPlugin(name)
			continue
		}

		if pc.Digest == fmt.Sprint(mtime) {
			continue
		}

		a.DelPlugin(name)
		a.LoadPlugin(name, &PluginConfig{
			Source:      "file",
			Digest:      fmt.Sprint(mtime),
			FileContent: content,
		})
	}
}

func (a *Agent) HandleNewPlugin(names []string) {
	dirs, err := file.DirsUnder(config.Config.ConfigDir)
	if err != nil {
		logger.Logger.Errorw("failed to get config dirs", "error", err)
		return
	}

	for _, dir := range dirs {
		if !strings.HasPrefix(dir, "p.") {
			continue
		}

		name := dir[len("p."):]
		if slices.Contains(names, name) {
			continue
		}

		mtime, content, err := readPluginDir(name)
		if err != nil {
			logger.Logger.Errorw("read plugin dir fail", "plugin", name, "error", err)
			continue
		}

		if mtime == -1 || len(content) == 0 {
			continue
		}

		a.LoadPlugin(name, &PluginConfig{
			Source:      "file",
			Digest:      fmt.Sprint(mtime),
			FileContent: content,
		})
	}
}
