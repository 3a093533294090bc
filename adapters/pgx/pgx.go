// Package pgx implements core.StorageAdapter on PostgreSQL through pgx.
package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/lborres/guildhall/core"
)

// DB is the subset of *pgxpool.Pool the adapter uses
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// DefaultQueryTimeout bounds each storage call when no option overrides it
const DefaultQueryTimeout = 5 * time.Second

type Adapter struct {
	db           DB
	queryTimeout time.Duration
}

var _ core.StorageAdapter = (*Adapter)(nil)

type Option func(*Adapter)

// WithQueryTimeout bounds each storage call. Zero or negative disables it.
func WithQueryTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.queryTimeout = d
	}
}

func New(db DB, opts ...Option) *Adapter {
	a := &Adapter{
		db:           db,
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Ping(ctx context.Context) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	return a.db.Ping(ctx)
}

func (a *Adapter) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if a.queryTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.queryTimeout)
}

// ConnConfig controls how Connect dials the database
type ConnConfig struct {
	URL      string
	MaxConns int32
	// Attempts is the number of retries after the first failed ping
	Attempts uint64
	Backoff  time.Duration
}

// Connect opens a pool and pings it, retrying with exponential backoff
// while the server is unreachable.
func Connect(ctx context.Context, c ConnConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}

	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var pool *pgxpool.Pool
	err = retry.Do(ctx, retry.WithMaxRetries(c.Attempts, retry.NewExponential(backoff)), func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("host", cfg.ConnConfig.Host).Wrap(err)
	}
	return pool, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return isCode(err, pgerrcode.UniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return isCode(err, pgerrcode.ForeignKeyViolation)
}
