package plugins

import (
	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/types"
)

type Instance interface {
	GetLabels() map[string]string
	GetInterval() config.Duration
	GetAlerting() config.Alerting
}

type Plugin interface {
	GetInterval() config.Duration
}

type Initializer interface {
	Init() error
}

type Gatherer interface {
	Gather() []*types.Event
}

type Dropper interface {
	Drop()
}

type InstancesGetter interface {
	GetInstances() []Instance
}

func MayInit(t interface{}) error {
	if initializer, ok := t.(Initializer); ok {
		return initializer.Init()
	}
	return nil
}

func MayGather(t interface{}) []*types.Event {
	if gather, ok := t.(Gatherer); ok {
		return gather.Gather()
	}
	return nil
}

func MayDrop(t interface{}) {
	if dropper, ok := t.(Dropper); ok {
		dropper.Drop()
	}
}

func MayGetInstances(t interface{}) []Instance {
	if instancesGetter, ok := t.(InstancesGetter); ok {
		return instancesGetter.GetInstances()
	}
	return nil
}

type Creator func() Plugin

var PluginCreators = map[string]Creator{}

func Add(name string, creator Creator) {
	PluginCreators[name] = creator
}
