package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/services/features"
)

// Artifact is the persisted output of a training run: the regressor's
// coefficients, the categorical encoder tables it was fit with, and the
// exact feature schema it expects. It is loaded once at process start and
// read-only thereafter.
type Artifact struct {
	Name           string                    `json:"name"`
	TrainedAt      time.Time                 `json:"trained_at"`
	MAPE           float64                   `json:"mape"`
	FeatureColumns []string                  `json:"feature_columns"`
	Intercept      float64                   `json:"intercept"`
	Weights        map[string]float64        `json:"weights"`
	Encoders       map[string]map[string]int `json:"encoders"`
}

// Load reads and validates an artifact file. The feature schema embedded in
// the artifact must match the builder's schema exactly; anything else would
// silently misalign every prediction.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("validate artifact: %w", err)
	}
	return &a, nil
}

// Save writes the artifact to path. Used by the offline training pipeline;
// the serving path never writes.
func (a *Artifact) Save(path string) error {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Validate checks internal consistency and schema agreement.
func (a *Artifact) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(a.FeatureColumns) == 0 {
		return fmt.Errorf("feature_columns is required")
	}
	if err := features.ValidateSchema(a.FeatureColumns); err != nil {
		return err
	}
	for _, name := range a.FeatureColumns {
		if _, ok := a.Weights[name]; !ok {
			return fmt.Errorf("%w: no weight for feature %q", models.ErrSchemaMismatch, name)
		}
	}
	return nil
}

// Encoding builds the read-only categorical encoding from the persisted
// encoder tables.
func (a *Artifact) Encoding() *features.Encoding {
	return features.NewEncoding(a.Encoders)
}

// Info summarizes the artifact for the serving layer.
func (a *Artifact) Info() models.ModelInfo {
	return models.ModelInfo{
		Name:         a.Name,
		TrainedAt:    a.TrainedAt,
		MAPE:         a.MAPE,
		FeatureCount: len(a.FeatureColumns),
	}
}
