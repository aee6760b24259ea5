package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shelfcast/internal/domain/models"
)

type recordingProc struct {
	mu   sync.Mutex
	got  []*models.SalesObservation
	fail bool
}

func (p *recordingProc) Process(_ context.Context, o *models.SalesObservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream down")
	}
	p.got = append(p.got, o)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string, string)      {}
func (nopMetrics) RecordObservation(string, string)     {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordForecastDemand(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)        {}

func validObs() *models.SalesObservation {
	return &models.SalesObservation{
		ItemID:    "FOODS_3_090",
		StoreID:   "CA_1",
		Date:      time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC),
		Sales:     3,
		SellPrice: 2.99,
	}
}

func TestPipelineForwardsValidObservation(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, nopMetrics{})
	if err := p.Process(context.Background(), validObs()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d observations, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, nopMetrics{})

	o := validObs()
	o.ItemID = ""
	if err := p.Process(context.Background(), o); err == nil {
		t.Fatalf("expected validation error for empty item_id")
	}

	o = validObs()
	o.Sales = -1
	if err := p.Process(context.Background(), o); err == nil {
		t.Fatalf("expected validation error for negative sales")
	}
	if proc.count() != 0 {
		t.Fatalf("invalid observations must not reach downstream")
	}
}

func TestPipelineThrottlesPerStore(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	// two observations for the same store in the same instant: second is dropped
	if err := p.Process(context.Background(), validObs()); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if err := p.Process(context.Background(), validObs()); err != nil {
		t.Fatalf("throttled process should not error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d observations, want 1 after throttle", proc.count())
	}

	// a different store is not affected
	other := validObs()
	other.StoreID = "TX_1"
	if err := p.Process(context.Background(), other); err != nil {
		t.Fatalf("other store process: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream saw %d observations, want 2", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &recordingProc{fail: true}
	p := NewIngestPipeline(proc, nopMetrics{}, WithBufferSize(10))

	if err := p.Process(context.Background(), validObs()); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffer depth = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithTransform(func(o *models.SalesObservation) *models.SalesObservation {
		o.StateID = "CA"
		return o
	}))
	if err := p.Process(context.Background(), validObs()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.got[0].StateID != "CA" {
		t.Fatalf("transform not applied")
	}
}
