// Package persistence opens the Bun database used by the credential and
// profile stores. SQLite DSNs go through sqliteshim, postgres:// DSNs through
// the pgx stdlib driver. The connection is handed to go-persistence-bun,
// which owns model registration and SQL migrations.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	persistencebun "github.com/goliatone/go-persistence-bun"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// CodeStoreUnavailable is attached to connection and query failures
const CodeStoreUnavailable = "STORE_UNAVAILABLE"

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type options struct {
	retries     uint64
	retryBase   time.Duration
	pingTimeout time.Duration
	debug       bool
}

type Option func(*options)

// WithRetries sets how many times the initial ping is retried
func WithRetries(n uint64) Option {
	return func(o *options) {
		o.retries = n
	}
}

// WithRetryBase sets the first backoff interval
func WithRetryBase(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryBase = d
		}
	}
}

// WithPingTimeout bounds the connection check done by the client
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// WithDebug logs every query instead of only the failed ones
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// Client is the go-persistence-bun client plus the concrete Bun handle the
// stores are built on.
type Client struct {
	*persistencebun.Client
	db      *bun.DB
	dialect string
}

// Bun returns the database handle
func (c *Client) Bun() *bun.DB {
	return c.db
}

// Dialect returns DialectSQLite or DialectPostgres
func (c *Client) Dialect() string {
	return c.dialect
}

// Close closes the underlying database
func (c *Client) Close() error {
	return c.db.Close()
}

// RegisterModel queues models for registration with Bun. Call it before Open.
func RegisterModel(models ...any) {
	persistencebun.RegisterModel(models...)
}

// Dialect returns the dialect name for dsn
func Dialect(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to dsn, pings it with exponential backoff and builds the
// persistence client on top of the connection. The returned error carries
// CodeStoreUnavailable when the store cannot be reached.
func Open(ctx context.Context, dsn string, opts ...Option) (*Client, error) {
	o := options{
		retries:     5,
		retryBase:   200 * time.Millisecond,
		pingTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if strings.TrimSpace(dsn) == "" {
		return nil, oops.Code(CodeStoreUnavailable).In("persistence").Errorf("empty connection string")
	}

	name := Dialect(dsn)

	var (
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)
	switch name {
	case DialectPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		dialect = pgdialect.New()
	default:
		sqldb, err = sql.Open(sqliteshim.ShimName, strings.TrimPrefix(dsn, "sqlite://"))
		dialect = sqlitedialect.New()
	}
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).In("persistence").With("dialect", name).Wrapf(err, "open database")
	}

	backoff := retry.WithMaxRetries(o.retries, retry.NewExponential(o.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := sqldb.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = sqldb.Close()
		return nil, oops.Code(CodeStoreUnavailable).In("persistence").With("dialect", name).Wrapf(err, "connect to database")
	}

	client, err := persistencebun.New(newClientConfig(dsn, name, o), sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return nil, oops.Code(CodeStoreUnavailable).In("persistence").With("dialect", name).Wrapf(err, "create persistence client")
	}

	db, ok := client.DB().(*bun.DB)
	if !ok {
		_ = sqldb.Close()
		return nil, oops.Code(CodeStoreUnavailable).In("persistence").Errorf("unexpected database handle %T", client.DB())
	}

	return &Client{Client: client, db: db, dialect: name}, nil
}

// Migrate registers the SQL migrations found in each fsys and runs the ones
// not yet applied. Calling it again with the same files is a no-op.
func Migrate(ctx context.Context, client *Client, migrations ...fs.FS) error {
	client.RegisterSQLMigrations(migrations...)
	if err := client.Migrate(ctx); err != nil {
		return oops.Code(CodeStoreUnavailable).In("persistence").With("dialect", client.dialect).Wrapf(err, "run migrations")
	}
	return nil
}

// Health pings the database
func Health(ctx context.Context, db *bun.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return oops.Code(CodeStoreUnavailable).In("persistence").Wrapf(err, "ping")
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound reports whether a select found no rows
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type clientConfig struct {
	driver      string
	server      string
	database    string
	debug       bool
	pingTimeout time.Duration
}

var _ persistencebun.Config = clientConfig{}

func newClientConfig(dsn, dialect string, o options) clientConfig {
	cfg := clientConfig{
		driver:      dialect,
		debug:       o.debug,
		pingTimeout: o.pingTimeout,
	}

	if dialect == DialectPostgres {
		if u, err := url.Parse(dsn); err == nil {
			cfg.server = u.Host
			cfg.database = strings.TrimPrefix(u.Path, "/")
		}
		return cfg
	}

	file := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "file:")
	if i := strings.IndexByte(file, '?'); i >= 0 {
		file = file[:i]
	}
	cfg.database = file
	return cfg
}

func (c clientConfig) GetDebug() bool                { return c.debug }
func (c clientConfig) GetDriver() string             { return c.driver }
func (c clientConfig) GetServer() string             { return c.server }
func (c clientConfig) GetDatabase() string           { return c.database }
func (c clientConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c clientConfig) GetOtelIdentifier() string     { return "" }
