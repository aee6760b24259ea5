package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shelfcast/pkg/config"
)

func TestFridayFallback(t *testing.T) {
	fri := time.Date(2016, 4, 29, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)

	if ok, _ := (FridayFallback{}).IsEvent(context.Background(), fri); !ok {
		t.Fatalf("friday should be an event day")
	}
	if ok, _ := (FridayFallback{}).IsEvent(context.Background(), mon); ok {
		t.Fatalf("monday should not be an event day")
	}
}

func TestHTTPEventCalendar(t *testing.T) {
	var calls atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Date string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"is_event": req.Date == "2016-12-25",
			"name":     "Christmas",
		})
	}))
	defer ts.Close()

	cfg := &config.Config{}
	cfg.Calendar.ServiceURL = ts.URL
	cfg.Calendar.Timeout = time.Second
	cfg.Calendar.CacheTTL = time.Minute
	cal := NewHTTPEventCalendar(cfg)

	christmas := time.Date(2016, 12, 25, 0, 0, 0, 0, time.UTC)
	ok, err := cal.IsEvent(context.Background(), christmas)
	if err != nil {
		t.Fatalf("is event: %v", err)
	}
	if !ok {
		t.Fatalf("expected event day")
	}

	ok, err = cal.IsEvent(context.Background(), time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("is event: %v", err)
	}
	if ok {
		t.Fatalf("expected ordinary day")
	}

	// repeat lookups hit the per-day cache
	if _, err := cal.IsEvent(context.Background(), christmas); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("upstream calls = %d, want 2 (third served from cache)", got)
	}
}
