package dbtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	"github.com/angelmondragon/shelfstock-backend/pkg/migrate"
)

// EnvPostgresDSN points the Postgres helpers at an existing server instead of a container.
const EnvPostgresDSN = "SHELFSTOCK_TEST_DB_DSN"

const postgresImage = "postgres:18-alpine"

// NewPostgres returns a migrated Postgres store isolated in its own schema. It uses
// SHELFSTOCK_TEST_DB_DSN when set and otherwise starts a container. The test is
// skipped under -short or when no Docker daemon is reachable.
func NewPostgres(t testing.TB) *db.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}

	ctx := context.Background()
	dsn := os.Getenv(EnvPostgresDSN)
	if dsn == "" {
		dsn = startContainer(ctx, t)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin := openPostgres(t, dsn)
	if err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", schema)).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_ = admin.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)).Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	scoped, err := withSearchPath(dsn, schema)
	if err != nil {
		t.Fatalf("scope dsn: %v", err)
	}
	conn := openPostgres(t, scoped)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	client := db.NewFromGorm(conn)
	if _, err := migrate.EnsureSchema(ctx, client); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return client
}

func startContainer(ctx context.Context, t testing.TB) string {
	t.Helper()

	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("shelfstock_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return dsn
}

func openPostgres(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(pgdriver.New(pgdriver.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	return conn
}

// withSearchPath accepts URL and keyword/value DSNs.
func withSearchPath(dsn, schema string) (string, error) {
	if !strings.Contains(dsn, "://") {
		return strings.TrimSpace(dsn) + " search_path=" + schema, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
