package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestClassifyViolation_Postgres(t *testing.T) {
	cases := []struct {
		code string
		kind ViolationKind
	}{
		{"23505", ViolationUnique},
		{"23503", ViolationForeignKey},
		{"23514", ViolationCheck},
		{"23502", ViolationNotNull},
	}
	for _, tc := range cases {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tc.code, ConstraintName: "uq_products_name", TableName: "products"})
		v, ok := ClassifyViolation(err)
		if !ok {
			t.Fatalf("code %s: expected violation", tc.code)
		}
		if v.Kind != tc.kind {
			t.Fatalf("code %s: expected %s, got %s", tc.code, tc.kind, v.Kind)
		}
		if v.Table != "products" || !v.Involves("products_name") {
			t.Fatalf("code %s: unexpected violation %+v", tc.code, v)
		}
	}

	if _, ok := ClassifyViolation(&pgconn.PgError{Code: "40001"}); ok {
		t.Fatal("serialization failure is not an integrity violation")
	}
}

func TestClassifyViolation_SQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.WithContext(ctx).Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	err := db.WithContext(ctx).Create(&testModel{Name: "dup"}).Error
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	v, ok := ClassifyViolation(err)
	if !ok || v.Kind != ViolationUnique {
		t.Fatalf("expected unique violation, got %+v (ok=%v) from %v", v, ok, err)
	}
	if v.Table != "test_models" || !v.Involves("name") {
		t.Fatalf("unexpected violation detail %+v", v)
	}
	if !IsUniqueViolation(err, "test_models.name") {
		t.Fatal("IsUniqueViolation should match the column")
	}
	if IsUniqueViolation(err, "identifier_value") {
		t.Fatal("IsUniqueViolation should not match unrelated constraints")
	}
}

func TestClassifyViolation_Messages(t *testing.T) {
	v, ok := ClassifyViolation(errors.New("FOREIGN KEY constraint failed"))
	if !ok || v.Kind != ViolationForeignKey {
		t.Fatalf("expected foreign key violation, got %+v", v)
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")) {
		t.Fatal("IsForeignKeyViolation should match sqlite message")
	}

	v, ok = ClassifyViolation(errors.New("CHECK constraint failed: chk_container_contents_quantity"))
	if !ok || v.Kind != ViolationCheck || v.Constraint != "chk_container_contents_quantity" {
		t.Fatalf("unexpected check violation %+v", v)
	}

	if _, ok := ClassifyViolation(gorm.ErrDuplicatedKey); !ok {
		t.Fatal("gorm duplicated key should classify as unique")
	}
	if _, ok := ClassifyViolation(errors.New("connection reset")); ok {
		t.Fatal("plain errors are not violations")
	}
	if _, ok := ClassifyViolation(nil); ok {
		t.Fatal("nil is not a violation")
	}
}

func TestViolationIsPrimaryKey(t *testing.T) {
	pg := Violation{Kind: ViolationUnique, Constraint: "products_pkey"}
	if !pg.IsPrimaryKey("product_id") {
		t.Fatal("postgres pkey constraint should be detected")
	}
	lite := Violation{Kind: ViolationUnique, Constraint: "products.product_id"}
	if !lite.IsPrimaryKey("product_id") {
		t.Fatal("sqlite pk column should be detected")
	}
	name := Violation{Kind: ViolationUnique, Constraint: "products.name"}
	if name.IsPrimaryKey("product_id") {
		t.Fatal("name column is not the primary key")
	}
	fk := Violation{Kind: ViolationForeignKey, Constraint: "products_pkey"}
	if fk.IsPrimaryKey("product_id") {
		t.Fatal("only unique violations can hit the primary key")
	}
}

func TestIsOutOfRange(t *testing.T) {
	if !IsOutOfRange(fmt.Errorf("update: %w", &pgconn.PgError{Code: "22003", Message: "integer out of range"})) {
		t.Fatal("expected SQLSTATE 22003 to be out of range")
	}
	if IsOutOfRange(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation is not an overflow")
	}
	if !IsOutOfRange(errors.New("integer overflow")) {
		t.Fatal("expected sqlite overflow message to match")
	}
	if IsOutOfRange(nil) {
		t.Fatal("nil is not an overflow")
	}
}
