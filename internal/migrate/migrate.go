// Package migrate applies embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/lockout-auth/migrations"
)

// Up runs all pending migrations from the embedded filesystem.
func Up(ctx context.Context, dsn string, log *zap.Logger) error {
	db, err := open(dsn, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Version returns the currently applied schema version.
func Version(ctx context.Context, dsn string, log *zap.Logger) (int64, error) {
	db, err := open(dsn, log)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func open(dsn string, log *zap.Logger) (*sql.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(log.Named("goose")))
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	return sql.Open("pgx", dsn)
}
