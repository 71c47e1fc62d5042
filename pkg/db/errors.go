package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ViolationKind names the class of integrity constraint a statement tripped.
type ViolationKind string

const (
	ViolationUnique     ViolationKind = "unique"
	ViolationForeignKey ViolationKind = "foreign_key"
	ViolationCheck      ViolationKind = "check"
	ViolationNotNull    ViolationKind = "not_null"
)

// Postgres SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgNumericOutOfRange   = "22003"
)

// Violation describes a constraint failure reported by either supported driver.
// Constraint holds the Postgres constraint name, or the SQLite "table.column" list.
type Violation struct {
	Kind       ViolationKind
	Constraint string
	Table      string
	Detail     string
}

// Involves reports whether the violated constraint mentions name (a column or constraint fragment).
func (v Violation) Involves(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(strings.ToLower(v.Constraint), name)
}

// IsPrimaryKey reports whether a unique violation hit the table's primary key.
func (v Violation) IsPrimaryKey(pkColumn string) bool {
	if v.Kind != ViolationUnique {
		return false
	}
	c := strings.ToLower(v.Constraint)
	return strings.HasSuffix(c, "_pkey") || strings.HasSuffix(c, "."+strings.ToLower(pkColumn))
}

var sqlitePrefixes = []struct {
	prefix string
	kind   ViolationKind
}{
	{"UNIQUE constraint failed", ViolationUnique},
	{"FOREIGN KEY constraint failed", ViolationForeignKey},
	{"CHECK constraint failed", ViolationCheck},
	{"NOT NULL constraint failed", ViolationNotNull},
}

// ClassifyViolation inspects err for an integrity constraint failure.
func ClassifyViolation(err error) (Violation, bool) {
	if err == nil {
		return Violation{}, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		v := Violation{Constraint: pgErr.ConstraintName, Table: pgErr.TableName, Detail: pgErr.Detail}
		switch pgErr.Code {
		case pgUniqueViolation:
			v.Kind = ViolationUnique
		case pgForeignKeyViolation:
			v.Kind = ViolationForeignKey
		case pgCheckViolation:
			v.Kind = ViolationCheck
		case pgNotNullViolation:
			v.Kind = ViolationNotNull
		default:
			return Violation{}, false
		}
		return v, true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Violation{Kind: ViolationUnique}, true
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return Violation{Kind: ViolationForeignKey}, true
	}

	msg := err.Error()
	for _, p := range sqlitePrefixes {
		idx := strings.Index(msg, p.prefix)
		if idx < 0 {
			continue
		}
		v := Violation{Kind: p.kind, Detail: msg}
		rest := strings.TrimSpace(strings.TrimPrefix(msg[idx+len(p.prefix):], ":"))
		if rest != "" {
			v.Constraint = rest
			if dot := strings.Index(rest, "."); dot > 0 && !strings.ContainsAny(rest[:dot], " ") {
				v.Table = rest[:dot]
			}
		}
		return v, true
	}

	return Violation{}, false
}

// IsUniqueViolation reports whether err is a unique violation. When constraintName is
// provided, the violated constraint must mention it.
func IsUniqueViolation(err error, constraintName string) bool {
	v, ok := ClassifyViolation(err)
	if !ok || v.Kind != ViolationUnique {
		return false
	}
	return constraintName == "" || v.Involves(constraintName)
}

// IsOutOfRange reports whether err is an arithmetic overflow raised by the store, such as
// a quantity growing past the column type.
func IsOutOfRange(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgNumericOutOfRange
	}
	return strings.Contains(err.Error(), "integer overflow")
}

// IsForeignKeyViolation reports whether err is a referential integrity failure.
func IsForeignKeyViolation(err error) bool {
	v, ok := ClassifyViolation(err)
	return ok && v.Kind == ViolationForeignKey
}
