package duty

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cprobe/mapscan/logger"
	"github.com/cprobe/mapscan/pkg/safe"
	"github.com/cprobe/mapscan/types"
)

// events buffered before new ones are dropped
const queueSize = 10000

// Duty forwards events to an HTTP endpoint in the background.
type Duty struct {
	url    string
	queue  *safe.Queue[*types.Event]
	client *http.Client
	quit   chan struct{}
	done   chan struct{}
}

func New(url string, client *http.Client) *Duty {
	return &Duty{
		url:    url,
		queue:  safe.NewQueueLimited[*types.Event](queueSize),
		client: client,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (d *Duty) Start() {
	go d.consume()
}

// Stop flushes what is queued and waits for the consumer to exit.
func (d *Duty) Stop() {
	close(d.quit)
	<-d.done
}

func (d *Duty) Push(event *types.Event) {
	if !d.queue.PushFront(event) {
		logger.Logger.Warnw("forward queue full, event dropped", "alert_key", event.AlertKey)
	}
}

func (d *Duty) consume() {
	defer close(d.done)

	ticker := time.NewTicker(400 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-d.quit:
			d.flush()
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

func (d *Duty) flush() {
	for _, event := range d.queue.PopBackAll() {
		if err := d.send(event); err != nil {
			logger.Logger.Errorw("forward event fail", "alert_key", event.AlertKey, "error", err)
			continue
		}
		logger.Logger.Debugw("forward event done", "alert_key", event.AlertKey)
	}
}

func (d *Duty) send(event *types.Event) error {
	bs, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.url, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request fail: %s, response: %s", res.Status, string(body))
	}
	return nil
}
