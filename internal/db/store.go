package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fractracker/complaints/internal/models"
)

// ErrNoRuns is returned by GetLatestRun before the first batch.
var ErrNoRuns = errors.New("no runs recorded")

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL,
	report_date TEXT NOT NULL,
	state TEXT,
	county TEXT,
	agency TEXT NOT NULL DEFAULT '',
	submission_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	status_reason TEXT,
	submission_time TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS submissions_id_agency_idx ON submissions (id, agency);

CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	summary JSONB
);
`

var submissionColumns = []string{
	"id", "report_date", "state", "county", "agency",
	"submission_type", "status", "status_reason", "submission_time",
}

// Store is the PostgreSQL ledger backend and batch run history.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Read returns every submission record in the order it was written.
func (s *Store) Read(ctx context.Context) ([]models.SubmissionRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, report_date, state, county, agency, submission_type, status, status_reason, submission_time
		FROM submissions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SubmissionRecord
	for rows.Next() {
		var (
			r       models.SubmissionRecord
			channel string
			status  string
		)
		if err := rows.Scan(&r.ID, &r.ReportDate, &r.State, &r.County, &r.Agency, &channel, &status, &r.StatusReason, &r.SubmissionTime); err != nil {
			return nil, err
		}
		r.SubmissionType = models.Channel(channel)
		r.Status = models.Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Write replaces the ledger contents in one transaction.
func (s *Store) Write(ctx context.Context, records []models.SubmissionRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.ID, r.ReportDate, r.State, r.County, r.Agency, string(r.SubmissionType), string(r.Status), r.StatusReason, r.SubmissionTime})
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE submissions RESTART IDENTITY`); err != nil {
			return err
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"submissions"}, submissionColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copied %d of %d submissions", n, len(rows))
		}
		return nil
	})
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id::text`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (*models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id::text, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var run models.Run
	if err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRuns
		}
		return nil, err
	}
	return &run, nil
}
