package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	models "shelfcast/internal/domain/models"
	icache "shelfcast/internal/service/cache"
	"shelfcast/internal/service/metrics"
	"shelfcast/internal/service/ratelimit"
	"shelfcast/internal/usecase"
	xhttp "shelfcast/pkg/http"
	applogger "shelfcast/pkg/logger"
	"shelfcast/pkg/queue"

	"github.com/labstack/echo/v4"
)

// batchEnqueueThreshold is the batch size above which batch requests are
// queued instead of served inline.
const batchEnqueueThreshold = 25

// ForecastEchoHandler serves the forecast API.
type ForecastEchoHandler struct {
	logger     *applogger.Logger
	forecaster *usecase.Forecaster
	modelInfo  models.ModelInfo
	cache      icache.BytesCache
	cacheTTL   time.Duration
	rl         *ratelimit.Limiter
	jobs       queue.QueueService

	served  atomic.Int64
	started time.Time
}

func NewForecastEchoHandler(logger *applogger.Logger, forecaster *usecase.Forecaster, info models.ModelInfo) *ForecastEchoHandler {
	metrics.Register()
	return &ForecastEchoHandler{
		logger:     logger,
		forecaster: forecaster,
		modelInfo:  info,
		cacheTTL:   60 * time.Second,
		rl:         ratelimit.New(),
		started:    time.Now(),
	}
}

// SetCache injects a response cache.
func (h *ForecastEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

// SetQueue injects the batch job queue.
func (h *ForecastEchoHandler) SetQueue(q queue.QueueService) { h.jobs = q }

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.POST("/forecast", h.Forecast)
	g.POST("/forecast/batch", h.ForecastBatch)
	g.GET("/model", h.Model)
	g.GET("/stats", h.Stats)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"model":  h.modelInfo.Name,
	})
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	endpoint := "forecast"
	defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":forecast", 10, 5) {
		h.logger.Warn("forecast rate_limited", applogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := forecastCacheKey(req)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("forecast cache_get_error", applogger.Error(err))
		} else if ok {
			h.logger.Debug("forecast cache_hit", applogger.String("key", cacheKey))
			var series models.ForecastSeries
			if err := json.Unmarshal(b, &series); err == nil {
				return xhttp.SuccessResponse(c, &series)
			}
		}
	}

	series, err := h.forecaster.Forecast(c.Request().Context(), toItemContext(req), req.DaysAhead)
	if err != nil {
		metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("forecast usecase error", applogger.Error(err))
		return h.errorResponse(c, err)
	}
	h.served.Add(1)

	if h.cache != nil {
		if b, err := json.Marshal(series); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil {
				h.logger.Warn("forecast cache_set_error", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, series)
}

func (h *ForecastEchoHandler) ForecastBatch(c echo.Context) error {
	start := time.Now()
	endpoint := "forecast_batch"
	defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BatchForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":batch", 3, 1) {
		h.logger.Warn("forecast batch rate_limited", applogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	// Large batches go to the queue; the caller polls results elsewhere.
	if h.jobs != nil && len(req.Items) > batchEnqueueThreshold {
		if err := h.jobs.PublishMessage(c.Request().Context(), "forecast_batch", req); err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			h.logger.Error("forecast batch enqueue error", applogger.Error(err))
			return h.errorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]interface{}{
			"queued": true,
			"items":  len(req.Items),
		})
	}

	items := make([]models.ItemContext, 0, len(req.Items))
	for i := range req.Items {
		items = append(items, toItemContext(&req.Items[i]))
	}
	results, err := h.forecaster.ForecastBatch(c.Request().Context(), items, req.DaysAhead)
	if err != nil {
		metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("forecast batch usecase error", applogger.Error(err))
		return h.errorResponse(c, err)
	}
	for _, r := range results {
		if r.Error == "" {
			h.served.Add(1)
		}
	}
	return xhttp.SuccessResponse(c, results)
}

func (h *ForecastEchoHandler) Model(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.modelInfo)
}

func (h *ForecastEchoHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"forecasts_served": h.served.Load(),
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"model":            h.modelInfo,
	})
}

func (h *ForecastEchoHandler) errorResponse(c echo.Context, err error) error {
	if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrInvalidHorizon) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	if errors.Is(err, models.ErrSchemaMismatch) {
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()))
	}
	return xhttp.AppErrorResponse(c, err)
}

func toItemContext(r *models.ForecastRequest) models.ItemContext {
	return models.ItemContext{
		ItemID:    r.ItemID,
		StoreID:   r.StoreID,
		DeptID:    r.DeptID,
		CatID:     r.CatID,
		StateID:   r.StateID,
		SellPrice: r.SellPrice,
	}
}

func forecastCacheKey(r *models.ForecastRequest) string {
	b, _ := json.Marshal(r)
	return "forecast:" + string(b)
}
