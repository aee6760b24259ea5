package usecase

import (
	"context"
	"testing"
	"time"

	"shelfcast/internal/domain/models"
)

type fakeStorage struct {
	stored []*models.SalesObservation
	err    error
}

func (f *fakeStorage) Init(context.Context) error { return nil }
func (f *fakeStorage) Store(_ context.Context, o *models.SalesObservation) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, o)
	return nil
}
func (f *fakeStorage) StoreBatch(_ context.Context, obs []*models.SalesObservation) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, obs...)
	return nil
}
func (f *fakeStorage) Health(context.Context) error { return nil }
func (f *fakeStorage) Close() error                 { return nil }

func TestKafkaSalesHandlerStoresObservation(t *testing.T) {
	store := &fakeStorage{}
	h := NewKafkaSalesHandler("sales.observations", store, newFakeMetrics())

	msg := []byte(`{"item_id":"FOODS_3_090","store_id":"CA_1","dept_id":"FOODS_3","cat_id":"FOODS","state_id":"CA","date":"2016-04-25","sales":3,"sell_price":2.99}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored %d observations, want 1", len(store.stored))
	}
	o := store.stored[0]
	if o.ItemID != "FOODS_3_090" || o.StoreID != "CA_1" {
		t.Fatalf("identity lost: %q/%q", o.ItemID, o.StoreID)
	}
	want := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	if !o.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", o.Date, want)
	}
}

func TestKafkaSalesHandlerBadPayload(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaSalesHandler("sales.observations", &fakeStorage{}, m)

	if err := h.Handle(context.Background(), []byte(`{not json`)); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if m.errs["consumer_unmarshal"] != 1 {
		t.Fatalf("consumer_unmarshal errors = %d, want 1", m.errs["consumer_unmarshal"])
	}

	if err := h.Handle(context.Background(), []byte(`{"item_id":"x","store_id":"y","date":"25/04/2016"}`)); err == nil {
		t.Fatalf("expected date parse error")
	}
	if m.errs["consumer_bad_date"] != 1 {
		t.Fatalf("consumer_bad_date errors = %d, want 1", m.errs["consumer_bad_date"])
	}
}
