package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CPDetect/internal/domain/models"
	pkgch "CPDetect/pkg/clickhouse"
)

// ErrNoRuns is returned when no completed run exists for a dataset.
var ErrNoRuns = errors.New("no completed runs for dataset")

// ClickHouseRunStore persists inference runs and their change-point records.
type ClickHouseRunStore struct {
	client   *pkgch.Client
	database string
}

// NewClickHouseRunStore creates the store over an existing client.
func NewClickHouseRunStore(client *pkgch.Client, database string) *ClickHouseRunStore {
	return &ClickHouseRunStore{client: client, database: database}
}

// Init ensures the run and record tables exist.
func (s *ClickHouseRunStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.runs (
			run_id String,
			dataset String,
			started_at DateTime64(3),
			duration_ms Int64,
			convergence_ok UInt8,
			diagnostics String
		) ENGINE=MergeTree ORDER BY (dataset, started_at)`, s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.change_points (
			run_id String,
			dataset String,
			date Date,
			ci_low Date,
			ci_high Date,
			mean_before Float64,
			mean_after Float64,
			impact_pct Float64,
			convergence_ok UInt8,
			confidence String
		) ENGINE=MergeTree ORDER BY (dataset, run_id, date)`, s.database),
	})
}

// StoreRun writes the run header and one row per change-point record.
func (s *ClickHouseRunStore) StoreRun(ctx context.Context, res *models.RunResult) error {
	diag, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	_, err = s.client.DB().ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s.runs (run_id, dataset, started_at, duration_ms, convergence_ok, diagnostics) VALUES (?, ?, ?, ?, ?, ?)", s.database),
		res.RunID, res.Dataset, res.StartedAt, res.Duration.Milliseconds(), boolToUInt8(res.Diagnostics.OK), string(diag),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range res.Records {
		_, err := s.client.DB().ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s.change_points (run_id, dataset, date, ci_low, ci_high, mean_before, mean_after, impact_pct, convergence_ok, confidence) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.database),
			res.RunID, res.Dataset, r.Date, r.DateCILow, r.DateCIHigh,
			r.MeanBefore, r.MeanAfter, r.ImpactPct, boolToUInt8(r.ConvergenceOK), r.Confidence,
		)
		if err != nil {
			return fmt.Errorf("insert change point: %w", err)
		}
	}
	return nil
}

// LatestRun loads the most recent run for the dataset with its records.
func (s *ClickHouseRunStore) LatestRun(ctx context.Context, dataset string) (*models.RunResult, error) {
	row := s.client.DB().QueryRowContext(ctx,
		fmt.Sprintf("SELECT run_id, started_at, duration_ms, diagnostics FROM %s.runs WHERE dataset = ? ORDER BY started_at DESC LIMIT 1", s.database),
		dataset,
	)

	var res models.RunResult
	var durationMs int64
	var diag string
	if err := row.Scan(&res.RunID, &res.StartedAt, &durationMs, &diag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	res.Dataset = dataset
	res.Duration = time.Duration(durationMs) * time.Millisecond
	if err := json.Unmarshal([]byte(diag), &res.Diagnostics); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}

	rows, err := s.client.DB().QueryContext(ctx,
		fmt.Sprintf("SELECT date, ci_low, ci_high, mean_before, mean_after, impact_pct, convergence_ok, confidence FROM %s.change_points WHERE dataset = ? AND run_id = ? ORDER BY date", s.database),
		dataset, res.RunID,
	)
	if err != nil {
		return nil, fmt.Errorf("query change points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.ChangePointRecord
		var ok uint8
		if err := rows.Scan(&r.Date, &r.DateCILow, &r.DateCIHigh, &r.MeanBefore, &r.MeanAfter, &r.ImpactPct, &ok, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scan change point: %w", err)
		}
		r.ConvergenceOK = ok == 1
		res.Records = append(res.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change points: %w", err)
	}
	return &res, nil
}

// Health pings the underlying pool.
func (s *ClickHouseRunStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close closes the underlying client.
func (s *ClickHouseRunStore) Close() error {
	return s.client.Close()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
