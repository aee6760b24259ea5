package calendar

import (
	"context"
	"fmt"
	"time"

	domsvc "shelfcast/internal/domain/service"
	icache "shelfcast/internal/service/cache"
	"shelfcast/pkg/config"
	xhttp "shelfcast/pkg/http"
	"shelfcast/pkg/util"
)

// HTTPEventCalendar asks an external promotions/events service whether a
// calendar day carries a known demand-lifting event. Responses are cached
// per day; event calendars change rarely.
type HTTPEventCalendar struct {
	baseURL string
	client  *xhttp.Client
	cache   *icache.TTLCache
	ttl     time.Duration
}

func NewHTTPEventCalendar(cfg *config.Config) *HTTPEventCalendar {
	timeout := cfg.Calendar.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ttl := cfg.Calendar.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HTTPEventCalendar{
		baseURL: cfg.Calendar.ServiceURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:   icache.NewTTLCache(),
		ttl:     ttl,
	}
}

type eventReq struct {
	Date string `json:"date"`
}

type eventResp struct {
	IsEvent bool   `json:"is_event"`
	Name    string `json:"name"`
}

func (c *HTTPEventCalendar) IsEvent(ctx context.Context, date time.Time) (bool, error) {
	key := util.FormatDate(date)
	if v, ok := c.cache.Get(key); ok {
		if b, ok2 := v.(bool); ok2 {
			return b, nil
		}
	}

	var er eventResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/events/check",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    eventReq{Date: key},
	}, &er)
	if err != nil {
		return false, fmt.Errorf("post events: %w", err)
	}

	c.cache.Set(key, er.IsEvent, c.ttl)
	return er.IsEvent, nil
}

var _ domsvc.EventCalendar = (*HTTPEventCalendar)(nil)

// FridayFallback is the heuristic calendar used when no events feed is
// configured: Fridays are treated as event days.
type FridayFallback struct{}

func (FridayFallback) IsEvent(_ context.Context, date time.Time) (bool, error) {
	return date.Weekday() == time.Friday, nil
}

var _ domsvc.EventCalendar = FridayFallback{}
