package migrate_test

import (
	"context"
	"testing"

	"github.com/angelmondragon/shelfstock-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shelfstock-backend/pkg/migrate"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	client := dbtest.New(t)

	applied, err := migrate.EnsureSchema(context.Background(), client)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no pending migrations, got %d", applied)
	}

	for _, table := range []string{"products", "product_identifiers", "containers", "container_contents", "shelves", "shelf_containers"} {
		if !client.DB().Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestMigrationsRejectsUnknownDialect(t *testing.T) {
	if _, _, err := migrate.Migrations("mysql"); err == nil {
		t.Fatal("expected unknown dialect to fail")
	}
}
