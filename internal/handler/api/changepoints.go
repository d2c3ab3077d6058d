package api

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"CPDetect/internal/domain/models"
	drepo "CPDetect/internal/domain/repository"
	"CPDetect/internal/events"
	"CPDetect/internal/repository"
	"CPDetect/internal/usecase"
	"CPDetect/pkg/cache"
	xhttp "CPDetect/pkg/http"
	"CPDetect/pkg/logger"
	"CPDetect/pkg/util"
)

// Handler serves the precomputed-artifact API around the detection engine:
// raw prices, the curated event table, the latest change-point run, and an
// endpoint that triggers a fresh run.
type Handler struct {
	log      *logger.Logger
	detector *usecase.Detector
	store    drepo.Storage // optional
	cache    cache.Service
	cacheTTL time.Duration
	dataset  string

	prices models.PriceSeries
	events []models.Event

	mu     sync.RWMutex
	latest *models.RunResult
}

// NewHandler creates the API handler over preloaded inputs.
func NewHandler(log *logger.Logger, detector *usecase.Detector, store drepo.Storage, c cache.Service, cacheTTL time.Duration, dataset string, prices models.PriceSeries, evts []models.Event) *Handler {
	return &Handler{
		log:      log,
		detector: detector,
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		dataset:  dataset,
		prices:   prices,
		events:   evts,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/prices", h.Prices)
	g.GET("/events", h.Events)
	g.GET("/change-points", h.ChangePoints)
	g.GET("/alignments", h.Alignments)
	g.POST("/detect", h.Detect)
}

// Health reports component status.
func (h *Handler) Health(c echo.Context) error {
	components := map[string]string{"engine": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			components["store"] = "unhealthy"
		} else {
			components["store"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":     "ok",
		"components": components,
	})
}

// Prices serves the loaded price series, optionally windowed by start/end.
func (h *Handler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start, end, err := parseWindow(req.Start, req.End)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	out := make(models.PriceSeries, 0, len(h.prices))
	for _, p := range h.prices {
		if !start.IsZero() && p.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && p.Timestamp.After(end) {
			continue
		}
		out = append(out, p)
	}
	return xhttp.SuccessResponse(c, out)
}

// Events serves the curated event table.
func (h *Handler) Events(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.events)
}

// ChangePoints serves the latest run: in-process copy, then cache, then the
// durable store.
func (h *Handler) ChangePoints(c echo.Context) error {
	res, err := h.latestRun(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoRuns) {
			return xhttp.NotFoundResponse(c, "no completed runs; POST /api/detect first")
		}
		h.log.Error("load latest run", logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Alignments joins the latest run's change points against the event table by
// nearest-date proximity.
func (h *Handler) Alignments(c echo.Context) error {
	res, err := h.latestRun(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoRuns) {
			return xhttp.NotFoundResponse(c, "no completed runs; POST /api/detect first")
		}
		return xhttp.AppErrorResponse(c, err)
	}

	window := events.DefaultWindow
	if days := c.QueryParam("window_days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return xhttp.BadRequestResponse(c, "window_days must be a positive integer")
		}
		window = time.Duration(n) * 24 * time.Hour
	}
	return xhttp.SuccessResponse(c, events.Align(res.Records, h.events, window))
}

// Detect runs inference synchronously and caches the result.
func (h *Handler) Detect(c echo.Context) error {
	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ov := usecase.RunOverrides{
		NumChains: req.NumChains,
		NumDraws:  req.NumDraws,
		NumTune:   req.NumTune,
	}
	if req.Seed != 0 {
		ov.Seed = req.Seed
		ov.HasSeed = true
	}

	res, err := h.detector.Run(c.Request().Context(), h.prices, ov)
	if err != nil {
		h.log.Error("detection run failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, mapRunError(err))
	}

	h.mu.Lock()
	h.latest = res
	h.mu.Unlock()
	if h.cache != nil {
		if err := h.cache.Set(c.Request().Context(), h.cacheKey(), res, h.cacheTTL); err != nil {
			h.log.Warn("cache run result", logger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) latestRun(ctx context.Context) (*models.RunResult, error) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	if h.cache != nil {
		var cached models.RunResult
		if err := h.cache.Get(ctx, h.cacheKey(), &cached); err == nil {
			return &cached, nil
		}
	}
	if h.store != nil {
		return h.store.LatestRun(ctx, h.dataset)
	}
	return nil, repository.ErrNoRuns
}

func (h *Handler) cacheKey() string {
	return "cpdetect:latest:" + h.dataset
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	var start, end time.Time
	if startRaw != "" {
		t, ok := util.ParseDate(startRaw)
		if !ok {
			return start, end, xhttp.BadRequestErrorf("invalid 'start' date '%s', use YYYY-MM-DD", startRaw)
		}
		start = t
	}
	if endRaw != "" {
		t, ok := util.ParseDate(endRaw)
		if !ok {
			return start, end, xhttp.BadRequestErrorf("invalid 'end' date '%s', use YYYY-MM-DD", endRaw)
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return start, end, xhttp.BadRequestError("invalid date range: start must be <= end")
	}
	return start, end, nil
}
