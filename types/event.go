package types

import (
	"sort"
	"strings"

	"github.com/toolkits/pkg/str"
)

const (
	EventStatusCritical = "Critical"
	EventStatusWarning  = "Warning"
	EventStatusInfo     = "Info"
	EventStatusOk       = "Ok"
)

// AttrPrefix marks labels that describe the event but do not identify it:
// they are left out of the alert key.
const AttrPrefix = "_attr_"

type Event struct {
	EventTime   int64             `json:"event_time"`
	EventStatus string            `json:"event_status"`
	AlertKey    string            `json:"alert_key"`
	Labels      map[string]string `json:"labels"`
	TitleRule   string            `json:"title_rule"` // $a::b::$c
	Description string            `json:"description"`

	// for internal use
	FirstFireTime int64 `json:"-"`
	NotifyCount   int64 `json:"-"`
	LastSent      int64 `json:"-"`
}

func EventStatusValid(status string) bool {
	switch status {
	case EventStatusCritical, EventStatusWarning, EventStatusInfo, EventStatusOk:
		return true
	default:
		return false
	}
}

func (e *Event) SetEventTime(t int64) *Event {
	e.EventTime = t
	return e
}

func (e *Event) SetEventStatus(status string) *Event {
	e.EventStatus = status
	return e
}

func (e *Event) SetTitleRule(rule string) *Event {
	e.TitleRule = rule
	return e
}

func (e *Event) SetDescription(desc string) *Event {
	e.Description = desc
	return e
}

// BuildEvent merges labelMaps into a new Ok event. The alert key is derived
// from the identifying labels only.
func BuildEvent(labelMaps ...map[string]string) *Event {
	event := &Event{
		EventStatus: EventStatusOk,
		Labels:      make(map[string]string),
	}

	for _, labelMap := range labelMaps {
		for k, v := range labelMap {
			event.Labels[k] = v
		}
	}

	event.AlertKey = AlertKey(event.Labels)
	return event
}

func AlertKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		if strings.HasPrefix(k, AttrPrefix) {
			continue
		}
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(labels[k])
		sb.WriteString(":")
	}

	return str.MD5(sb.String())
}
