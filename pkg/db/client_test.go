package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic rollback to leave 0 records, got %d", count)
	}
}

func TestPingAndDialect(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if got := client.Dialect(); got != DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", got)
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	cases := map[string]string{
		"file:inv.db":                      "file:inv.db?_foreign_keys=on",
		"file:inv.db?cache=shared":         "file:inv.db?cache=shared&_foreign_keys=on",
		"file:inv.db?_foreign_keys=on":     "file:inv.db?_foreign_keys=on",
		"file:inv.db?_fk=1":                "file:inv.db?_fk=1",
		"/var/lib/shelfstock/inventory.db": "/var/lib/shelfstock/inventory.db?_foreign_keys=on",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Fatalf("SQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSQLiteEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "fk.db")
	client, err := New(ctx, config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	conn := client.DB()
	for _, stmt := range []string{
		`CREATE TABLE parents (id TEXT PRIMARY KEY)`,
		`CREATE TABLE children (id TEXT PRIMARY KEY, parent_id TEXT NOT NULL REFERENCES parents(id) ON DELETE CASCADE)`,
		`INSERT INTO parents (id) VALUES ('p1')`,
		`INSERT INTO children (id, parent_id) VALUES ('c1', 'p1')`,
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	err = conn.Exec(`INSERT INTO children (id, parent_id) VALUES ('c2', 'missing')`).Error
	if !IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	if err := conn.Exec(`DELETE FROM parents WHERE id = 'p1'`).Error; err != nil {
		t.Fatalf("delete parent: %v", err)
	}
	var children int64
	if err := conn.Raw(`SELECT COUNT(*) FROM children`).Scan(&children).Error; err != nil {
		t.Fatalf("count children: %v", err)
	}
	if children != 0 {
		t.Fatalf("expected cascade to remove children, got %d", children)
	}
}

func TestNewSQLiteRejectsDisabledForeignKeys(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "nofk.db") + "?_foreign_keys=off"
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil); err == nil {
		t.Fatal("expected New to refuse a store without foreign key enforcement")
	}
}
