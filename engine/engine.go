package engine

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/duty"
	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/plugins"
	"github.com/cprobe/mapscan/types"
)

// Duty receives events outside test mode. Set by main before the agent starts.
var Duty *duty.Duty

// Stdout receives events in test mode.
var Stdout io.Writer = os.Stdout

func PushRawEvents(pluginName string, ins plugins.Instance, events []*types.Event) {
	now := time.Now().Unix()

	for i := range events {
		if events[i] == nil {
			continue
		}

		err := clean(events[i], now, pluginName, ins)
		if err != nil {
			logger.Logger.Errorw("clean raw event fail", "error", err, "event", events[i])
			continue
		}

		logger.Logger.Debugw("raw event received", "alert_key", events[i].AlertKey, "event", events[i])

		if !ins.GetAlerting().Enabled {
			continue
		}

		if events[i].EventStatus == types.EventStatusOk {
			handleRecoveryEvent(ins, events[i])
		} else {
			handleAlertEvent(ins, events[i])
		}
	}
}

// PrintEvents writes every cleaned event to Stdout, bypassing alert state.
// One-shot runs use it so Ok events and unalerted checks still show up.
func PrintEvents(pluginName string, ins plugins.Instance, events []*types.Event) {
	now := time.Now().Unix()

	for i := range events {
		if events[i] == nil {
			continue
		}

		if err := clean(events[i], now, pluginName, ins); err != nil {
			logger.Logger.Errorw("clean raw event fail", "error", err, "event", events[i])
			continue
		}

		printStdout(events[i])
	}
}

func handleRecoveryEvent(ins plugins.Instance, event *types.Event) {
	old := Events.Get(event.AlertKey)
	if old == nil {
		// was healthy, still healthy
		return
	}

	Events.Del(old.AlertKey)

	if ins.GetAlerting().RecoveryNotification {
		event.LastSent = event.EventTime
		event.FirstFireTime = old.FirstFireTime
		event.NotifyCount = old.NotifyCount + 1
		forward(event)
	}
}

func handleAlertEvent(ins plugins.Instance, event *types.Event) {
	alerting := ins.GetAlerting()
	old := Events.Get(event.AlertKey)
	if old == nil {
		event.FirstFireTime = event.EventTime
		Events.Set(event)

		if alerting.ForDuration == 0 {
			event.LastSent = event.EventTime
			event.NotifyCount++
			forward(event)
		}
		return
	}

	event.FirstFireTime = old.FirstFireTime
	event.LastSent = old.LastSent
	event.NotifyCount = old.NotifyCount

	if alerting.ForDuration > 0 && event.EventTime-old.FirstFireTime < seconds(alerting.ForDuration) {
		Events.Set(event)
		return
	}

	if alerting.RepeatNumber > 0 && old.NotifyCount >= int64(alerting.RepeatNumber) {
		Events.Set(event)
		return
	}

	if old.NotifyCount > 0 && alerting.RepeatInterval > 0 && event.EventTime-old.LastSent < seconds(alerting.RepeatInterval) {
		Events.Set(event)
		return
	}

	event.LastSent = event.EventTime
	event.NotifyCount = old.NotifyCount + 1
	Events.Set(event)
	forward(event)
}

func seconds(d config.Duration) int64 {
	return int64(time.Duration(d) / time.Second)
}

func clean(event *types.Event, now int64, pluginName string, ins plugins.Instance) error {
	if event.EventTime == 0 {
		event.EventTime = now
	}

	if event.AlertKey == "" {
		return fmt.Errorf("alert key is blank")
	}

	if !types.EventStatusValid(event.EventStatus) {
		return fmt.Errorf("invalid event_status: %s", event.EventStatus)
	}

	if event.Labels == nil {
		event.Labels = make(map[string]string)
	}

	event.Labels["from_plugin"] = pluginName

	for k, v := range ins.GetLabels() {
		event.Labels[k] = v
	}

	var hostname string
	if config.Config.Global.LabelHasHostname {
		var err error
		hostname, err = os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
	}

	for key, val := range config.Config.Global.Labels {
		event.Labels[key] = strings.ReplaceAll(val, "$hostname", hostname)
	}

	return nil
}

func forward(event *types.Event) {
	if config.Config.TestMode || Duty == nil {
		printStdout(event)
		return
	}
	Duty.Push(event)
}

func printStdout(event *types.Event) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprint(event.EventTime))
	sb.WriteString(" ")
	sb.WriteString(time.Unix(event.EventTime, 0).Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(event.AlertKey)
	sb.WriteString(" ")
	sb.WriteString(event.EventStatus)
	sb.WriteString(" ")

	keys := make([]string, 0, len(event.Labels))
	for k := range event.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(event.Labels[k])
	}

	sb.WriteString(" ")
	sb.WriteString(event.TitleRule)
	sb.WriteString(" ")
	sb.WriteString(event.Description)

	fmt.Fprintln(Stdout, sb.String())
}
