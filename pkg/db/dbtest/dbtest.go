// Package dbtest opens throwaway SQLite stores with the production schema applied.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/migrate"
	"github.com/google/uuid"
)

// DSN returns a private in-memory SQLite DSN. db.New switches foreign keys on.
func DSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// New opens a fresh store through db.New, applies the embedded migrations and closes it
// when t ends.
func New(t testing.TB) *db.Client {
	t.Helper()

	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DriverSQLite, DSN: DSN()}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if _, err := migrate.EnsureSchema(ctx, client); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return client
}
