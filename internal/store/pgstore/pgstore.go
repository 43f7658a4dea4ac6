// Package pgstore is the PostgreSQL backend (STORE_DRIVER=postgres).
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"milestone-tracker/internal/model"
	"milestone-tracker/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects, pings and applies the schema.
func Open(ctx context.Context, dbURL string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore ping: %w", err)
	}
	s := New(pool, log)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s.log.Info("connected to postgres")
	return s, nil
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Store {
	return &Store{pool: pool, log: log.With(zap.String("store", "postgres"))}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pgstore migrate: %w", err)
	}
	return nil
}

func (s *Store) Users() store.Users           { return userRepo{s} }
func (s *Store) Milestones() store.Milestones { return milestoneRepo{s} }
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return err
}

type userRepo struct{ s *Store }

const userCols = `id, name, email, password_hash, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r userRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.s.pool.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r userRepo) ByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r userRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r userRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		r.s.log.Debug("insert user failed", zap.String("id", u.ID), zap.Error(err))
		return mapErr(err)
	}
	return nil
}

type milestoneRepo struct{ s *Store }

const milestoneCols = `id, user_id, title, description, status, category, due_date, created_at, updated_at`

func scanMilestone(row pgx.Row) (*model.Milestone, error) {
	m := &model.Milestone{}
	if err := row.Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &m.Status,
		&m.Category, &m.DueDate, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

func (r milestoneRepo) query(ctx context.Context, q string, args ...any) ([]model.Milestone, error) {
	rows, err := r.s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r milestoneRepo) List(ctx context.Context) ([]model.Milestone, error) {
	return r.query(ctx, `SELECT `+milestoneCols+` FROM milestones ORDER BY seq`)
}

func (r milestoneRepo) ListByUser(ctx context.Context, userID string) ([]model.Milestone, error) {
	return r.query(ctx, `SELECT `+milestoneCols+` FROM milestones WHERE user_id = $1 ORDER BY seq`, userID)
}

func (r milestoneRepo) ByID(ctx context.Context, id string) (*model.Milestone, error) {
	return scanMilestone(r.s.pool.QueryRow(ctx, `SELECT `+milestoneCols+` FROM milestones WHERE id = $1`, id))
}

func (r milestoneRepo) Create(ctx context.Context, m *model.Milestone) error {
	_, err := r.s.pool.Exec(ctx,
		`INSERT INTO milestones (`+milestoneCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.UserID, m.Title, m.Description, m.Status,
		m.Category, m.DueDate, m.CreatedAt, m.UpdatedAt,
	)
	return mapErr(err)
}

// Update locks the row for the read-modify-write so concurrent updates serialize.
func (r milestoneRepo) Update(ctx context.Context, id string, fn store.Mutation) (*model.Milestone, error) {
	tx, err := r.s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := scanMilestone(tx.QueryRow(ctx,
		`SELECT `+milestoneCols+` FROM milestones WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	fn(m)

	_, err = tx.Exec(ctx,
		`UPDATE milestones
		 SET title=$1, description=$2, status=$3, category=$4, due_date=$5, updated_at=$6
		 WHERE id=$7`,
		m.Title, m.Description, m.Status, m.Category, m.DueDate, m.UpdatedAt, id,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r milestoneRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
