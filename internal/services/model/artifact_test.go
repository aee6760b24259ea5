package model

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/services/features"
)

func testArtifact() *Artifact {
	cols := features.Schema()
	weights := make(map[string]float64, len(cols))
	for _, c := range cols {
		weights[c] = 0
	}
	weights["lag_1"] = 0.5
	weights["rolling_mean_7"] = 0.3
	weights["is_event"] = 1.2
	return &Artifact{
		Name:           "demand_lr_v2",
		TrainedAt:      time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC),
		MAPE:           27.4,
		FeatureColumns: cols,
		Intercept:      0.8,
		Weights:        weights,
		Encoders: map[string]map[string]int{
			features.ColItemID: {"FOODS_3_090": 7},
			features.ColCatID:  {"FOODS": 1},
		},
	}
}

func TestArtifactSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	a := testArtifact()
	if err := a.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != a.Name {
		t.Fatalf("name = %q, want %q", got.Name, a.Name)
	}
	if got.Weights["lag_1"] != 0.5 {
		t.Fatalf("lag_1 weight = %v, want 0.5", got.Weights["lag_1"])
	}
	if got.Encoding().Code(features.ColItemID, "FOODS_3_090") != 7 {
		t.Fatalf("encoder table lost in round trip")
	}
}

func TestArtifactLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestArtifactValidateMissingWeight(t *testing.T) {
	a := testArtifact()
	delete(a.Weights, "lag_7")
	if err := a.Validate(); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestArtifactValidateWrongSchema(t *testing.T) {
	a := testArtifact()
	a.FeatureColumns = a.FeatureColumns[:5]
	if err := a.Validate(); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestArtifactInfo(t *testing.T) {
	info := testArtifact().Info()
	if info.Name != "demand_lr_v2" {
		t.Fatalf("info name = %q", info.Name)
	}
	if info.FeatureCount != len(features.Schema()) {
		t.Fatalf("feature count = %d, want %d", info.FeatureCount, len(features.Schema()))
	}
}

func TestLinearRegressorPredict(t *testing.T) {
	r, err := NewLinearRegressor(testArtifact())
	if err != nil {
		t.Fatalf("new regressor: %v", err)
	}
	vals := make([]float64, len(features.Schema()))
	for i, name := range features.Schema() {
		switch name {
		case "lag_1":
			vals[i] = 10
		case "rolling_mean_7":
			vals[i] = 8
		case "is_event":
			vals[i] = 1
		}
	}
	got, err := r.Predict(vals)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := 0.8 + 0.5*10 + 0.3*8 + 1.2*1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("predict = %v, want %v", got, want)
	}
}

func TestLinearRegressorClampsNegative(t *testing.T) {
	a := testArtifact()
	a.Intercept = -100
	r, err := NewLinearRegressor(a)
	if err != nil {
		t.Fatalf("new regressor: %v", err)
	}
	got, err := r.Predict(make([]float64, len(features.Schema())))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 0 {
		t.Fatalf("predict = %v, want 0 (demand never negative)", got)
	}
}

func TestLinearRegressorLengthMismatch(t *testing.T) {
	r, err := NewLinearRegressor(testArtifact())
	if err != nil {
		t.Fatalf("new regressor: %v", err)
	}
	if _, err := r.Predict(make([]float64, 3)); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
