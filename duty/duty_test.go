package duty

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cprobe/mapscan/types"
)

func TestDutyForwardsOnStop(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var e types.Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		keys = append(keys, e.AlertKey)
		mu.Unlock()
	}))
	defer srv.Close()

	d := New(srv.URL, srv.Client())
	d.Start()
	d.Push(types.BuildEvent(map[string]string{"check": "a"}))
	d.Push(types.BuildEvent(map[string]string{"check": "b"}))
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", len(keys))
	}
}

func TestDutySendRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	d := New(srv.URL, srv.Client())
	if err := d.send(types.BuildEvent(map[string]string{"check": "a"})); err == nil {
		t.Fatal("expected error for 400 response")
	}
}
