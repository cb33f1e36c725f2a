package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/groundwave/model"
)

// ErrNotFound is returned when no sweep run has the requested ID.
var ErrNotFound = errors.New("sweep run not found")

const (
	// fixed width so text ordering matches time ordering
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

	defaultListLimit = 50
	maxListLimit     = 500
)

// SweepRun is one persisted sweep: its inputs and index-aligned results.
type SweepRun struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Dimension model.Dimension       `json:"dimension"`
	Field     model.ResultField     `json:"field"`
	Workers   int                   `json:"workers"`
	Baseline  model.InputParameters `json:"baseline"`
	Inputs    model.Values          `json:"inputs"`
	Results   model.Values          `json:"results"`
	Failures  int                   `json:"failures"`
}

// SweepSummary is a SweepRun without its inputs and results.
type SweepSummary struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Dimension model.Dimension   `json:"dimension"`
	Field     model.ResultField `json:"field"`
	Workers   int               `json:"workers"`
	Points    int               `json:"points"`
	Failures  int               `json:"failures"`
}

// SweepStore persists sweep runs.
type SweepStore interface {
	Save(ctx context.Context, run SweepRun) (SweepRun, error)
	Get(ctx context.Context, id string) (SweepRun, error)
	List(ctx context.Context, limit int) ([]SweepSummary, error)
}

type sweepRequest struct {
	Baseline model.InputParameters `json:"baseline"`
	Inputs   model.Values          `json:"inputs"`
}

// SweepSQLite is a SweepStore over a SQLite handle from Open.
type SweepSQLite struct {
	db *sql.DB
}

var _ SweepStore = (*SweepSQLite)(nil)

func NewSweepSQLite(db *sql.DB) *SweepSQLite { return &SweepSQLite{db: db} }

// Save inserts run. An empty ID or zero CreatedAt is filled in; the stored
// run is returned.
func (r *SweepSQLite) Save(ctx context.Context, run SweepRun) (SweepRun, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	request, err := json.Marshal(sweepRequest{Baseline: run.Baseline, Inputs: run.Inputs})
	if err != nil {
		return SweepRun{}, fmt.Errorf("encode sweep request: %w", err)
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return SweepRun{}, fmt.Errorf("encode sweep results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (id, created_at, dimension, field, workers, points, failures, request, results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.Format(timeLayout),
		run.Dimension.String(),
		run.Field.String(),
		run.Workers,
		len(run.Results),
		run.Failures,
		string(request),
		string(results),
	)
	if err != nil {
		return SweepRun{}, fmt.Errorf("insert sweep run: %w", err)
	}
	return run, nil
}

// Get loads the run with the given ID.
func (r *SweepSQLite) Get(ctx context.Context, id string) (SweepRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, dimension, field, workers, failures, request, results
		FROM sweep_runs WHERE id = ?
	`, id)

	var (
		run                    SweepRun
		created, dim, field    string
		requestRaw, resultsRaw string
	)
	err := row.Scan(&run.ID, &created, &dim, &field, &run.Workers, &run.Failures, &requestRaw, &resultsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return SweepRun{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return SweepRun{}, fmt.Errorf("load sweep run %s: %w", id, err)
	}

	if err := decodeHeader(created, dim, field, &run.CreatedAt, &run.Dimension, &run.Field); err != nil {
		return SweepRun{}, fmt.Errorf("decode sweep run %s: %w", id, err)
	}
	var req sweepRequest
	if err := json.Unmarshal([]byte(requestRaw), &req); err != nil {
		return SweepRun{}, fmt.Errorf("decode sweep request %s: %w", id, err)
	}
	run.Baseline = req.Baseline
	run.Inputs = req.Inputs
	if err := json.Unmarshal([]byte(resultsRaw), &run.Results); err != nil {
		return SweepRun{}, fmt.Errorf("decode sweep results %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit run summaries, newest first. limit <= 0 selects
// the default page size; larger values are capped.
func (r *SweepSQLite) List(ctx context.Context, limit int) ([]SweepSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, dimension, field, workers, points, failures
		FROM sweep_runs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sweep runs: %w", err)
	}
	defer rows.Close()

	out := make([]SweepSummary, 0, limit)
	for rows.Next() {
		var (
			s                   SweepSummary
			created, dim, field string
		)
		if err := rows.Scan(&s.ID, &created, &dim, &field, &s.Workers, &s.Points, &s.Failures); err != nil {
			return nil, fmt.Errorf("scan sweep run: %w", err)
		}
		if err := decodeHeader(created, dim, field, &s.CreatedAt, &s.Dimension, &s.Field); err != nil {
			return nil, fmt.Errorf("decode sweep run %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sweep runs: %w", err)
	}
	return out, nil
}

func decodeHeader(created, dim, field string, at *time.Time, d *model.Dimension, f *model.ResultField) error {
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return err
	}
	*at = t.UTC()
	if *d, err = model.ParseDimension(dim); err != nil {
		return err
	}
	if *f, err = model.ParseResultField(field); err != nil {
		return err
	}
	return nil
}
