package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-tracker/internal/platform/database"
)

const dbTimeout = 5 * time.Second

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository is a PostgreSQL-backed Repository over the
// job_applications and interview_rounds tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository creates a repository on pool.
func NewPostgresRepository(pool *pgxpool.Pool) (*PostgresRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresRepository{pool: pool, now: time.Now}, nil
}

func (r *PostgresRepository) ListApplications(ctx context.Context) ([]Application, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT id, company_name, application_status, review, created_at, updated_at
		 FROM job_applications
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	apps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Application, error) {
		var a Application
		var status string
		err := row.Scan(&a.ID, &a.CompanyName, &status, &a.Review, &a.CreatedAt, &a.UpdatedAt)
		a.ApplicationStatus = Status(status)
		a.Rounds = []Round{}
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, application_id, round_name, round_number, status, created_at, updated_at
		 FROM interview_rounds
		 ORDER BY application_id, round_number, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	rounds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Round, error) {
		var rd Round
		var status string
		err := row.Scan(&rd.ID, &rd.ApplicationID, &rd.RoundName, &rd.RoundNumber, &status, &rd.CreatedAt, &rd.UpdatedAt)
		rd.Status = Status(status)
		return rd, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rounds: %w", err)
	}

	index := make(map[string]int, len(apps))
	for i, a := range apps {
		index[a.ID] = i
	}
	for _, rd := range rounds {
		if i, ok := index[rd.ApplicationID]; ok {
			apps[i].Rounds = append(apps[i].Rounds, rd)
		}
	}
	return apps, nil
}

func (r *PostgresRepository) CreateApplication(ctx context.Context, app Application) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_applications (id, company_name, application_status, review, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			app.ID, app.CompanyName, string(app.ApplicationStatus), app.Review, app.CreatedAt, app.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert application: %w", mapPgError(err))
		}
		for _, rd := range app.Rounds {
			if err := insertRound(ctx, tx, rd); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) UpdateApplication(ctx context.Context, id string, p ApplicationPatch) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx,
		`UPDATE job_applications
		 SET company_name = COALESCE($2, company_name),
		     application_status = COALESCE($3, application_status),
		     review = COALESCE($4, review),
		     updated_at = $5
		 WHERE id = $1`,
		id, p.CompanyName, statusParam(p.ApplicationStatus), p.Review, r.now(),
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteApplication removes the rounds and the application in one transaction.
func (r *PostgresRepository) DeleteApplication(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM interview_rounds WHERE application_id = $1`, id); err != nil {
			return fmt.Errorf("delete rounds: %w", err)
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM job_applications WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("application %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *PostgresRepository) CreateRound(ctx context.Context, rd Round) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	return insertRound(ctx, r.pool, rd)
}

func (r *PostgresRepository) UpdateRound(ctx context.Context, id string, p RoundPatch) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx,
		`UPDATE interview_rounds
		 SET round_name = COALESCE($2, round_name),
		     round_number = COALESCE($3, round_number),
		     status = COALESCE($4, status),
		     updated_at = $5
		 WHERE id = $1`,
		id, p.RoundName, p.RoundNumber, statusParam(p.Status), r.now(),
	)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) DeleteRound(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, `DELETE FROM interview_rounds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("round %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRound(ctx context.Context, db execer, rd Round) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO interview_rounds (id, application_id, round_name, round_number, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rd.ID, rd.ApplicationID, rd.RoundName, rd.RoundNumber, string(rd.Status), rd.CreatedAt, rd.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert round: %w", mapPgError(err))
	}
	return nil
}

// mapPgError translates constraint violations into the package sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("application: %w", ErrNotFound)
		}
	}
	return err
}

func statusParam(s *Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
