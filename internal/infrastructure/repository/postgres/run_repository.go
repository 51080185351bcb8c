package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/facturaflow/validator/internal/core/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026030103)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL,
	status TEXT NOT NULL,
	result JSONB,
	error_message TEXT,
	pushed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_runs_group_id ON validation_runs(group_id);
CREATE INDEX IF NOT EXISTS idx_validation_runs_created_at ON validation_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) Create(ctx context.Context, run *domain.ValidationRun) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO validation_runs (id, group_id, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, run.ID, run.GroupID, string(run.Status), run.Error, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.ValidationRun, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, group_id, status, result, error_message, pushed_at, created_at, updated_at
FROM validation_runs
WHERE id = $1
`, id)

	var run domain.ValidationRun
	var status string
	var resultRaw []byte
	var pushedAt sql.NullTime

	err := row.Scan(&run.ID, &run.GroupID, &status, &resultRaw, &run.Error, &pushedAt, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get run", errors.New(id))
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	if len(resultRaw) > 0 {
		var result domain.ValidationResult
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal run result: %w", err)
		}
		run.Result = &result
	}
	if pushedAt.Valid {
		t := pushedAt.Time
		run.PushedAt = &t
	}
	return &run, nil
}

func (r *RunRepository) SetStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE validation_runs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return requireRow(res, domain.ErrRunNotFound, "update run status", id)
}

func (r *RunRepository) SaveResult(ctx context.Context, id string, status domain.RunStatus, result *domain.ValidationResult) error {
	resultRaw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE validation_runs
SET status = $2, result = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, string(status), resultRaw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save run result: %w", err)
	}
	return requireRow(res, domain.ErrRunNotFound, "save run result", id)
}

func (r *RunRepository) MarkPushed(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE validation_runs
SET pushed_at = $2, updated_at = $2
WHERE id = $1
`, id, at)
	if err != nil {
		return fmt.Errorf("mark run pushed: %w", err)
	}
	return requireRow(res, domain.ErrRunNotFound, "mark run pushed", id)
}
