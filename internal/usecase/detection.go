// Package usecase wires the preprocessing, model, sampler, diagnostics and
// summary stages into one inference run, and hands completed runs to the
// configured sinks. The engine stages themselves stay pure; this is the only
// place that knows about config, metrics, storage and publishing.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CPDetect/internal/domain/models"
	drepo "CPDetect/internal/domain/repository"
	"CPDetect/internal/inference"
	"CPDetect/internal/preprocess"
	"CPDetect/pkg/config"
	"CPDetect/pkg/logger"
	"CPDetect/pkg/util"
)

// Detector runs change-point inference over a price series.
type Detector struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics drepo.Metrics
	store   drepo.Storage   // optional
	pub     drepo.Publisher // optional
}

// NewDetector creates the detection use case. Store and publisher may be nil
// when the corresponding sink is disabled.
func NewDetector(cfg *config.Config, log *logger.Logger, metrics drepo.Metrics, store drepo.Storage, pub drepo.Publisher) *Detector {
	return &Detector{cfg: cfg, log: log, metrics: metrics, store: store, pub: pub}
}

// RunOverrides carries per-request sampler settings; zero values fall back
// to config.
type RunOverrides struct {
	NumChains int
	NumDraws  int
	NumTune   int
	Seed      uint64
	HasSeed   bool
}

// Run executes one full inference run. Validation, divergence and timeout
// errors propagate to the caller; convergence failure does not, it is
// carried on the result.
func (d *Detector) Run(ctx context.Context, series models.PriceSeries, ov RunOverrides) (*models.RunResult, error) {
	started := time.Now()
	dataset := d.cfg.Data.Dataset

	res, err := d.run(ctx, series, ov, started)
	d.metrics.RecordRunDuration(dataset, time.Since(started))
	if err != nil {
		d.metrics.RecordRun(dataset, outcome(err))
		return nil, err
	}
	d.metrics.RecordRun(dataset, "ok")
	d.metrics.RecordRecordsEmitted(dataset, len(res.Records))

	d.deliver(ctx, res)
	return res, nil
}

func (d *Detector) run(ctx context.Context, series models.PriceSeries, ov RunOverrides, started time.Time) (*models.RunResult, error) {
	dataset := d.cfg.Data.Dataset

	if start, end, ok := d.expectedBounds(); ok {
		gaps, err := preprocess.ValidateCoverage(series, start, end, d.cfg.Data.Frequency)
		if err != nil {
			return nil, err
		}
		if len(gaps) > 0 {
			d.log.Warn("coverage gaps detected", logger.String("dataset", dataset), logger.Int("gaps", len(gaps)))
		}
	}

	returns, err := preprocess.LogReturns(series)
	if err != nil {
		return nil, err
	}

	adf := preprocess.ADFTest(returns.Values, preprocess.DefaultSignificance)
	d.log.Info("stationarity check",
		logger.String("dataset", dataset),
		logger.Float("statistic", adf.Statistic),
		logger.Float("p_value", adf.PValue),
		logger.Bool("stationary", adf.Stationary),
	)

	model, err := inference.BuildModel(returns, d.cfg.Inference.MinSegmentFraction)
	if err != nil {
		return nil, err
	}

	opts := inference.Options{
		NumChains:      d.cfg.Inference.NumChains,
		NumDraws:       d.cfg.Inference.NumDraws,
		NumTune:        d.cfg.Inference.NumTune,
		Seed:           d.cfg.Inference.Seed,
		MaxDivergences: d.cfg.Inference.MaxDivergences,
	}
	if ov.NumChains > 0 {
		opts.NumChains = ov.NumChains
	}
	if ov.NumDraws > 0 {
		opts.NumDraws = ov.NumDraws
	}
	if ov.NumTune > 0 {
		opts.NumTune = ov.NumTune
	}
	if ov.HasSeed {
		opts.Seed = ov.Seed
	}

	sampleCtx := ctx
	if d.cfg.Inference.Timeout > 0 {
		var cancel context.CancelFunc
		sampleCtx, cancel = context.WithTimeout(ctx, d.cfg.Inference.Timeout)
		defer cancel()
	}

	ensemble, err := inference.Sample(sampleCtx, model, returns, opts)
	if err != nil {
		return nil, err
	}
	var divergences int
	for _, c := range ensemble.Chains {
		divergences += c.Divergences
	}
	if divergences > 0 {
		d.metrics.RecordDivergences(dataset, divergences)
	}

	diag := inference.CheckConvergence(ensemble, inference.Thresholds{
		RHatMax:     d.cfg.Inference.RHatThreshold,
		ESSPerChain: d.cfg.Inference.ESSFloor,
	})
	for name, v := range diag.Variables {
		d.metrics.RecordRHat(name, v.RHat)
	}
	if !diag.OK {
		d.log.Warn("chains did not converge; results flagged", logger.String("dataset", dataset))
	}

	summary := inference.SummaryOptions{CredibleMass: d.cfg.Inference.CredibleInterval}
	records := inference.Summarize(ensemble, model, returns, diag, summary)

	res := &models.RunResult{
		RunID:       fmt.Sprintf("%s-%d", started.UTC().Format("20060102T150405"), opts.Seed),
		Dataset:     dataset,
		StartedAt:   started.UTC(),
		Duration:    time.Since(started),
		Records:     records,
		Diagnostics: diag,
	}
	d.log.Info("inference run complete",
		logger.String("run_id", res.RunID),
		logger.Int("change_points", len(records)),
		logger.Bool("convergence_ok", diag.OK),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}

// deliver hands the result to the configured sinks. Sink failures are logged,
// not fatal: the result is already computed and returned to the caller.
func (d *Detector) deliver(ctx context.Context, res *models.RunResult) {
	if d.store != nil {
		if err := d.store.StoreRun(ctx, res); err != nil {
			d.log.Error("store run failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
	if d.pub != nil {
		if err := d.pub.PublishRun(ctx, res); err != nil {
			d.log.Error("publish run failed", logger.String("run_id", res.RunID), logger.Error(err))
		}
	}
}

func (d *Detector) expectedBounds() (time.Time, time.Time, bool) {
	start, ok1 := util.ParseDate(d.cfg.Data.ExpectedStart)
	end, ok2 := util.ParseDate(d.cfg.Data.ExpectedEnd)
	return start, end, ok1 && ok2
}

func outcome(err error) string {
	var divErr *inference.SamplerDivergenceError
	var toErr *inference.SamplerTimeoutError
	switch {
	case errors.As(err, &toErr):
		return "timeout"
	case errors.As(err, &divErr):
		return "divergence"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "invalid_input"
	}
}
