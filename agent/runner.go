package agent

import (
	"runtime/debug"
	"time"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/engine"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/plugins"
)

type PluginRunner struct {
	pluginName     string
	pluginObject   plugins.Plugin
	quitChanForIns []chan struct{}
	Instances      []plugins.Instance

	// print every event instead of feeding the alert engine
	once bool
}

func newPluginRunner(pluginName string, p plugins.Plugin) *PluginRunner {
	return &PluginRunner{
		pluginName:   pluginName,
		pluginObject: p,
	}
}

func (r *PluginRunner) stop() {
	for i := 0; i < len(r.quitChanForIns); i++ {
		if r.quitChanForIns[i] == nil {
			continue
		}
		r.quitChanForIns[i] <- struct{}{}
		plugins.MayDrop(r.Instances[i])
	}
}

func (r *PluginRunner) start() {
	r.Instances = plugins.MayGetInstances(r.pluginObject)
	r.quitChanForIns = make([]chan struct{}, len(r.Instances))
	for i := 0; i < len(r.Instances); i++ {
		if err := plugins.MayInit(r.Instances[i]); err != nil {
			logger.Logger.Errorw("init plugin instance fail", "plugin", r.pluginName, "instance", i, "error", err)
			continue
		}
		r.quitChanForIns[i] = make(chan struct{}, 1)
		go r.startInstancePlugin(r.Instances[i], r.quitChanForIns[i])
	}
}

// gatherOnce inits and gathers every instance in turn.
func (r *PluginRunner) gatherOnce() {
	for i, ins := range plugins.MayGetInstances(r.pluginObject) {
		if err := plugins.MayInit(ins); err != nil {
			logger.Logger.Errorw("init plugin instance fail", "plugin", r.pluginName, "instance", i, "error", err)
			continue
		}
		r.gatherInstancePlugin(ins)
	}
}

func (r *PluginRunner) interval(instance plugins.Instance) time.Duration {
	interval := instance.GetInterval()
	if interval == 0 {
		interval = r.pluginObject.GetInterval()
		if interval == 0 {
			interval = config.Config.Global.Interval
		}
	}
	return time.Duration(interval)
}

func (r *PluginRunner) startInstancePlugin(instance plugins.Instance, ch chan struct{}) {
	interval := r.interval(instance)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ch:
			close(ch)
			return
		case <-timer.C:
			start := time.Now()
			r.gatherInstancePlugin(instance)
			next := interval - time.Since(start)
			if next < 0 {
				next = 0
			}
			timer.Reset(next)
		}
	}
}

func (r *PluginRunner) gatherInstancePlugin(ins plugins.Instance) {
	defer func() {
		if rc := recover(); rc != nil {
			logger.Logger.Errorw("gather instance plugin panic", "plugin", r.pluginName, "recover", rc, "stack", string(debug.Stack()))
		}
	}()

	events := plugins.MayGather(ins)
	if len(events) == 0 {
		return
	}

	if r.once {
		engine.PrintEvents(r.pluginName, ins, events)
		return
	}
	engine.PushRawEvents(r.pluginName, ins, events)
}
