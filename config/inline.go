package config

import "github.com/cprobe/mapscan/types"

type Alerting struct {
	Enabled bool `toml:"enabled"`

	// hold a firing event back until it has fired this long
	ForDuration Duration `toml:"for_duration"`

	RepeatInterval Duration `toml:"repeat_interval"`

	// 0 means no limit
	RepeatNumber int `toml:"repeat_number"`

	RecoveryNotification bool `toml:"recovery_notification"`

	DefaultSeverity string `toml:"default_severity"`
}

// InternalConfig is embedded by every check and every check instance.
type InternalConfig struct {
	Labels   map[string]string `toml:"labels"`
	Interval Duration          `toml:"interval"`
	Alerting Alerting          `toml:"alerting"`
}

func (ic *InternalConfig) GetLabels() map[string]string {
	if ic.Labels != nil {
		return ic.Labels
	}

	return map[string]string{}
}

func (ic *InternalConfig) GetInterval() Duration {
	return ic.Interval
}

func (ic *InternalConfig) GetAlerting() Alerting {
	return ic.Alerting
}

func (ic *InternalConfig) GetDefaultSeverity() string {
	if ic.Alerting.DefaultSeverity == "" {
		return types.EventStatusWarning
	}

	return ic.Alerting.DefaultSeverity
}
