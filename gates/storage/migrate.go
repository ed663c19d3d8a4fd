package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	goose "github.com/pressly/goose/v3"

	"userapi/iternal/config"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// gooseLogger routes goose output into slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...), "component", "goose")
}

func (p *Store) migrator() (*goose.Provider, error) {
	dialect := goose.DialectSQLite3
	if p.driver == config.DriverPostgres {
		dialect = goose.DialectPostgres
	}
	fsys, err := fs.Sub(migrations, "migrations/"+p.driver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, p.db.DB, fsys, goose.WithLogger(gooseLogger{log: p.log}))
}

// Migrate creates the schema when it is missing. Running it again is a no-op.
func Migrate(ctx context.Context, p *Store) error {
	const op = "storage.Migrate"
	provider, err := p.migrator()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		p.log.Error(op+": migration failed", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, res := range results {
		p.log.Info(op+": applied migration", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}

// MigrationVersion reports the schema version recorded by goose.
func MigrationVersion(ctx context.Context, p *Store) (int64, error) {
	const op = "storage.MigrationVersion"
	provider, err := p.migrator()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}
