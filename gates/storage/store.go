package storage

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/bool64/sqluct"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"userapi/domain"
	"userapi/iternal/config"
)

const tracerName = "userapi/gates/storage"

var (
	_ domain.UserStore   = (*Store)(nil)
	_ domain.UserSession = (*Session)(nil)
)

// Store is the process-wide database handle. Every request works through a
// Session obtained from Begin.
type Store struct {
	db     *sqlx.DB
	driver string
	sq     sq.StatementBuilderType
	sm     sqluct.Mapper
	log    *slog.Logger
	tracer trace.Tracer
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg config.DB, log *slog.Logger) (*Store, error) {
	const op = "storage.Open"
	conn, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DataSource())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Driver == config.DriverSQLite {
		// sqlite allows one writer; a single connection keeps transactions
		// from tripping over SQLITE_BUSY and keeps in-memory databases alive.
		conn.SetMaxOpenConns(1)
		if _, err := conn.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	log.Debug(op+": connected", "driver", cfg.Driver)
	return NewDB(conn, log), nil
}

func NewDB(db *sqlx.DB, log *slog.Logger) *Store {
	s := &Store{
		db:     db,
		driver: db.DriverName(),
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
	if s.driver == config.DriverPostgres {
		s.sm = sqluct.Mapper{Dialect: sqluct.DialectPostgres}
		s.sq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	} else {
		s.sm = sqluct.Mapper{Dialect: sqluct.DialectSQLite3}
		s.sq = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	}
	return s
}

// Begin opens a transaction and wraps it into a Session owned by the caller.
func (p *Store) Begin(ctx context.Context) (domain.UserSession, error) {
	const op = "storage.Store.Begin"
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		p.log.Error(op+": failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		tx:     tx,
		sq:     p.sq,
		sm:     &p.sm,
		log:    p.log,
		tracer: p.tracer,
		driver: p.driver,
	}, nil
}

func (p *Store) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Store) Close() error {
	return p.db.Close()
}

func (p *Store) Driver() string {
	return p.driver
}
