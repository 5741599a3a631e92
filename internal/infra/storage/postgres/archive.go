package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/veriscan/veriscan/internal/domain/scanning"
	"github.com/veriscan/veriscan/internal/infra/storage"
)

// ArchiveStore persists terminal runs and their findings to PostgreSQL. The
// in-memory store remains authoritative for live state; the archive exists
// so completed work survives process restarts.
type ArchiveStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewArchiveStore creates an archive store over the given pool.
func NewArchiveStore(pool *pgxpool.Pool, tracer trace.Tracer) *ArchiveStore {
	return &ArchiveStore{pool: pool, tracer: tracer}
}

var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

// ArchiveRun upserts the run row and inserts its findings in one
// transaction.
func (s *ArchiveStore) ArchiveRun(ctx context.Context, run scanning.Run, findings []scanning.Finding) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("run_id", run.ID.String()),
		attribute.String("status", run.Status.String()),
		attribute.Int("num_findings", len(findings)),
	)

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.archive.archive_run", dbAttrs, func(ctx context.Context) error {
		config, err := json.Marshal(run.Config)
		if err != nil {
			return fmt.Errorf("marshaling run config: %w", err)
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("beginning archive tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `
			INSERT INTO archived_runs (
				id, project_id, target_id, suite_id, status, error,
				created_by, config, safe_mode, rate_limit,
				created_at, started_at, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				error = EXCLUDED.error,
				started_at = EXCLUDED.started_at,
				completed_at = EXCLUDED.completed_at`,
			run.ID, run.ProjectID, run.TargetID, run.SuiteID, run.Status.String(), run.Error,
			run.CreatedBy, config, run.SafeMode, run.RateLimit,
			run.CreatedAt, run.StartedAt, run.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting archived run: %w", err)
		}

		for _, f := range findings {
			_, err = tx.Exec(ctx, `
				INSERT INTO archived_findings (
					id, run_id, severity, finding_type, location, status, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
				f.ID, f.RunID, f.Severity.String(), f.Type, f.Location, f.Status, f.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting archived finding: %w", err)
			}
		}

		return tx.Commit(ctx)
	})
}

// GetRun loads an archived run. Returns nil with no error when the run was
// never archived.
func (s *ArchiveStore) GetRun(ctx context.Context, id uuid.UUID) (*scanning.Run, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("run_id", id.String()))

	var run *scanning.Run
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.archive.get_run", dbAttrs, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, project_id, target_id, suite_id, status, error,
				created_by, config, safe_mode, rate_limit,
				created_at, started_at, completed_at
			FROM archived_runs WHERE id = $1`, id)

		var (
			r      scanning.Run
			status string
			config []byte
		)
		err := row.Scan(
			&r.ID, &r.ProjectID, &r.TargetID, &r.SuiteID, &status, &r.Error,
			&r.CreatedBy, &config, &r.SafeMode, &r.RateLimit,
			&r.CreatedAt, &r.StartedAt, &r.CompletedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("loading archived run: %w", err)
		}

		r.Status = scanning.ParseRunStatus(status)
		if len(config) > 0 {
			if err := json.Unmarshal(config, &r.Config); err != nil {
				return fmt.Errorf("unmarshaling run config: %w", err)
			}
		}
		run = &r
		return nil
	})
	return run, err
}

// FindingsByRun loads the archived findings for a run in creation order.
func (s *ArchiveStore) FindingsByRun(ctx context.Context, runID uuid.UUID) ([]scanning.Finding, error) {
	dbAttrs := append(defaultDBAttributes, attribute.String("run_id", runID.String()))

	var findings []scanning.Finding
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.archive.findings_by_run", dbAttrs, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
			SELECT id, run_id, severity, finding_type, location, status, created_at
			FROM archived_findings WHERE run_id = $1 ORDER BY created_at, id`, runID)
		if err != nil {
			return fmt.Errorf("querying archived findings: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				f        scanning.Finding
				severity string
			)
			if err := rows.Scan(&f.ID, &f.RunID, &severity, &f.Type, &f.Location, &f.Status, &f.CreatedAt); err != nil {
				return fmt.Errorf("scanning archived finding: %w", err)
			}
			f.Severity = scanning.ParseSeverity(severity)
			findings = append(findings, f)
		}
		return rows.Err()
	})
	return findings, err
}
