package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	// Note: In production, use dedicated migration tools (e.g., golang-migrate/migrate)
	// that run as a separate deployment step before app services start.
	const lockID = 427591306 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	// Ensure lock is released when done
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS experiments (
			id UUID PRIMARY KEY,
			text_original TEXT NOT NULL,
			changes TEXT[] NOT NULL,
			method TEXT NOT NULL,
			distance TEXT,
			permutations INT NOT NULL,
			samples INT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS run_results (
			id UUID PRIMARY KEY,
			experiment_id UUID REFERENCES experiments(id) ON DELETE CASCADE,
			statistic DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			seed BIGINT NOT NULL,
			perturbed_text TEXT,
			completed_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS run_results_experiment_idx
			ON run_results (experiment_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateExperiment(ctx context.Context, exp Experiment) (Experiment, error) {
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}
	if exp.Status == "" {
		exp.Status = StatusPending
	}
	exp.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experiments (id, text_original, changes, method, distance, permutations, samples, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		exp.ID, exp.Text, pq.Array(exp.Changes), exp.Method, exp.Distance,
		exp.Permutations, exp.Samples, exp.Status, exp.CreatedAt,
	)
	if err != nil {
		return Experiment{}, fmt.Errorf("insert experiment: %w", err)
	}
	return exp, nil
}

func (s *PostgresStore) GetExperiment(ctx context.Context, id uuid.UUID) (Experiment, error) {
	var exp Experiment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text_original, changes, method, distance, permutations, samples, status, created_at
		FROM experiments WHERE id = $1`, id,
	).Scan(&exp.ID, &exp.Text, pq.Array(&exp.Changes), &exp.Method, &exp.Distance,
		&exp.Permutations, &exp.Samples, &exp.Status, &exp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Experiment{}, ErrExperimentNotFound
	}
	if err != nil {
		return Experiment{}, fmt.Errorf("select experiment: %w", err)
	}
	return exp, nil
}

func (s *PostgresStore) UpdateExperimentStatus(ctx context.Context, id uuid.UUID, status ExperimentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE experiments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update experiment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExperimentNotFound
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result RunResult) (RunResult, error) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	result.CompletedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_results (id, experiment_id, statistic, p_value, seed, perturbed_text, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ID, result.ExperimentID, result.Statistic, result.PValue,
		result.Seed, result.PerturbedText, result.CompletedAt,
	)
	if err != nil {
		return RunResult{}, fmt.Errorf("insert run result: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, experimentID uuid.UUID) ([]RunResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, experiment_id, statistic, p_value, seed, perturbed_text, completed_at
		FROM run_results WHERE experiment_id = $1 ORDER BY completed_at`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("select run results: %w", err)
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var r RunResult
		if err := rows.Scan(&r.ID, &r.ExperimentID, &r.Statistic, &r.PValue,
			&r.Seed, &r.PerturbedText, &r.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
