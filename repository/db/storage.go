package db

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"taskmanager/internal/domain/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	queryTimeout   = 15 * time.Second
	connectTimeout = 15 * time.Second

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// Storage is the PostgreSQL-backed credential and task store.
type Storage struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func NewStorage(connStr string, logger zerolog.Logger) (*Storage, error) {
	logger = logger.With().Str("component", "postgres").Logger()

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse database config")
		return nil, err
	}
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create connection pool")
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error().Err(err).Msg("failed to ping database")
		return nil, err
	}

	logger.Info().Str("host", cfg.ConnConfig.Host).Msg("connected to database")
	return &Storage{pool: pool, logger: logger}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error or panic.
func (s *Storage) withTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(tx)
}

var readOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// duplicateError maps a unique violation on the users table to the matching
// domain error. ok is false for any other error.
func duplicateError(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !stdErrors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil, false
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return errors.ErrUsernameTaken, true
	case emailConstraint:
		return errors.ErrEmailTaken, true
	}
	return errors.ErrUserAlreadyExists, true
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stdErrors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
