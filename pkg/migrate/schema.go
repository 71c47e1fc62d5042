package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedded embed.FS

// Migrations returns the embedded migration set for the given dialect.
func Migrations(dialect string) (fs.FS, goose.Dialect, error) {
	switch dialect {
	case db.DialectPostgres:
		sub, err := fs.Sub(embedded, "migrations/postgres")
		return sub, goose.DialectPostgres, err
	case db.DialectSQLite:
		sub, err := fs.Sub(embedded, "migrations/sqlite")
		return sub, goose.DialectSQLite3, err
	default:
		return nil, "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

// EnsureSchema applies every pending embedded migration. It is idempotent, so callers
// may invoke it on each boot.
func EnsureSchema(ctx context.Context, client *db.Client) (int, error) {
	if client == nil {
		return 0, fmt.Errorf("db client is required")
	}

	fsys, dialect, err := Migrations(client.Dialect())
	if err != nil {
		return 0, err
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return 0, fmt.Errorf("extracting sql.DB: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}
