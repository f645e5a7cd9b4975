package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/artur/slide-bot/internal/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func init() {
	goose.AddNamedMigrationContext("00002_add_date_added.go", addDateAddedUp, addDateAddedDown)
}

// Migrate brings the schema up to date. It is safe to run against a
// database created by an older deployment whose users table predates
// the date_added column.
func (db *DB) Migrate(ctx context.Context) error {
	logger := db.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "db")
	logger.Info("running migrations")

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("migrations completed", "version", version)
	return nil
}

func addDateAddedUp(ctx context.Context, tx *sql.Tx) error {
	exists, err := hasColumn(ctx, tx, "users", "date_added")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE users ADD COLUMN date_added TEXT`)
	return err
}

func addDateAddedDown(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `ALTER TABLE users DROP COLUMN date_added`)
	return err
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return false, err
	}

	found := false
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return false, err
		}
		// columns: cid, name, type, notnull, dflt_value, pk
		var name string
		switch v := values[1].(type) {
		case string:
			name = v
		case []byte:
			name = string(v)
		}
		if strings.EqualFold(name, column) {
			found = true
		}
	}
	return found, rows.Err()
}

// gooseLogger routes goose output into slog.
type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	panic(fmt.Sprintf(format, v...))
}
