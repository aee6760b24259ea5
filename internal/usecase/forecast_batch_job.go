package usecase

import (
	"context"
	"fmt"

	"shelfcast/internal/domain/models"
	applogger "shelfcast/pkg/logger"
	"shelfcast/pkg/queue"
)

const forecastBatchJobType = "forecast_batch"

// ForecastBatchJob runs queued batch forecasts off the request path. Large
// batches are enqueued by the API and drained by queue workers.
type ForecastBatchJob struct {
	forecaster *Forecaster
	l          *applogger.Logger
}

func NewForecastBatchJob(forecaster *Forecaster, l *applogger.Logger) *ForecastBatchJob {
	return &ForecastBatchJob{forecaster: forecaster, l: l}
}

func (j *ForecastBatchJob) Name() string { return "forecast_batch_job" }

func (j *ForecastBatchJob) Type() string { return forecastBatchJobType }

func (j *ForecastBatchJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.BatchForecastRequest](payload)
	if err != nil {
		return fmt.Errorf("parse batch payload: %w", err)
	}
	items := make([]models.ItemContext, 0, len(req.Items))
	for _, r := range req.Items {
		items = append(items, models.ItemContext{
			ItemID:    r.ItemID,
			StoreID:   r.StoreID,
			DeptID:    r.DeptID,
			CatID:     r.CatID,
			StateID:   r.StateID,
			SellPrice: r.SellPrice,
		})
	}
	daysAhead := req.DaysAhead
	if daysAhead == 0 {
		daysAhead = 7
	}
	results, err := j.forecaster.ForecastBatch(ctx, items, daysAhead)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if j.l != nil {
		j.l.Info("batch forecast job done",
			applogger.Int("items", len(results)),
			applogger.Int("failed", failed),
		)
	}
	return nil
}

var _ queue.Job = (*ForecastBatchJob)(nil)
