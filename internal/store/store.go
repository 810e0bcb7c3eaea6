// Package store persists enrichment runs, enriched awards, and per-source
// watermarks in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/enrich"
)

// RunStatus values for enrichment_runs.status.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one enrichment run's persistent record.
type Run struct {
	ID         string
	Status     string
	Spec       map[string]any
	Report     *enrich.RunReport
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store is a pgx pool backed enrichment store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a store to PostgreSQL.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Pool exposes the underlying pool for custom queries.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// =============================================================================
// RUNS
// =============================================================================

// CreateRun records the start of an enrichment run.
func (s *Store) CreateRun(ctx context.Context, runID string, spec map[string]any) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal run spec: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO enrichment_runs (id, status, spec, started_at)
		VALUES ($1, $2, $3, NOW())
	`, runID, RunStatusRunning, specJSON)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run complete or failed and stores its report.
func (s *Store) FinishRun(ctx context.Context, runID, status string, report *enrich.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE enrichment_runs
		SET status = $1, report = $2, finished_at = NOW()
		WHERE id = $3
	`, status, reportJSON, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID, or nil when absent.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{}
	var specJSON, reportJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, status, spec, report, started_at, finished_at
		FROM enrichment_runs WHERE id = $1
	`, runID).Scan(&run.ID, &run.Status, &specJSON, &reportJSON, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if len(specJSON) > 0 {
		if err := json.Unmarshal(specJSON, &run.Spec); err != nil {
			return nil, fmt.Errorf("unmarshal run spec: %w", err)
		}
	}
	if len(reportJSON) > 0 {
		run.Report = &enrich.RunReport{}
		if err := json.Unmarshal(reportJSON, run.Report); err != nil {
			return nil, fmt.Errorf("unmarshal run report: %w", err)
		}
	}
	return run, nil
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, started_at, finished_at
		FROM enrichment_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// ENRICHED AWARDS
// =============================================================================

// SaveEnriched upserts a batch of enriched awards for a run.
func (s *Store) SaveEnriched(ctx context.Context, runID string, results []*cdm.EnrichedAward) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range results {
		payload, err := json.Marshal(e.ToRecord())
		if err != nil {
			return fmt.Errorf("marshal enriched award: %w", err)
		}
		provenance, err := json.Marshal(e.Provenance)
		if err != nil {
			return fmt.Errorf("marshal provenance: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO enriched_awards
			(cdm_id, run_id, award_cdm_id, vendor_cdm_id, canonical_vendor_id, match_status, payload, provenance, enriched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cdm_id) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				vendor_cdm_id = EXCLUDED.vendor_cdm_id,
				canonical_vendor_id = EXCLUDED.canonical_vendor_id,
				match_status = EXCLUDED.match_status,
				payload = EXCLUDED.payload,
				provenance = EXCLUDED.provenance,
				enriched_at = EXCLUDED.enriched_at
		`, cdm.EnrichedID(e.Award.CdmID), runID, e.Award.CdmID, e.VendorCdmID,
			e.CanonicalVendorID, string(e.Status), payload, provenance, e.EnrichedAt)
		if err != nil {
			return fmt.Errorf("upsert enriched award %s: %w", e.Award.CdmID, err)
		}
	}

	return tx.Commit(ctx)
}

// EnrichedForRun loads the enriched award payloads for a run.
func (s *Store) EnrichedForRun(ctx context.Context, runID string) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM enriched_awards WHERE run_id = $1 ORDER BY cdm_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query enriched awards: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan enriched award: %w", err)
		}
		var record map[string]any
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("unmarshal enriched award: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// CountByStatus tallies a run's awards by match status.
func (s *Store) CountByStatus(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT match_status, COUNT(*) FROM enriched_awards
		WHERE run_id = $1 GROUP BY match_status
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// =============================================================================
// WATERMARKS
// Incremental fetch state per source dataset.
// =============================================================================

// GetWatermark returns the stored watermark for a dataset, or "" when unset.
func (s *Store) GetWatermark(ctx context.Context, datasetID string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM source_watermarks WHERE dataset_id = $1
	`, datasetID).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get watermark: %w", err)
	}
	return value, nil
}

// SetWatermark upserts a dataset watermark.
func (s *Store) SetWatermark(ctx context.Context, datasetID, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO source_watermarks (dataset_id, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (dataset_id) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, datasetID, value)
	if err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}
