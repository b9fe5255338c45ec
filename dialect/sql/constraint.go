package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintKind classifies a constraint violation reported by a driver.
type ConstraintKind int

// Constraint kinds.
const (
	ConstraintNone ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
)

// String returns the name of the kind.
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintCheck:
		return "check"
	default:
		return "none"
	}
}

// PostgreSQL SQLSTATE codes (class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // cannot add or update a child row
	mysqlCheckViolated    = 3819
)

// SQLite extended result codes.
const (
	sqliteCheck      = 275
	sqliteForeignKey = 787
	sqliteUnique     = 2067
	sqlitePrimaryKey = 1555
)

// sqliteCoder is implemented by modernc.org/sqlite errors.
type sqliteCoder interface {
	Code() int
}

// Constraint reports which kind of constraint err violated. Errors wrapped
// in fluentdb.QueryError are unwrapped first.
func Constraint(err error) ConstraintKind {
	if err == nil {
		return ConstraintNone
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return ConstraintUnique
		case pgForeignKeyViolation:
			return ConstraintForeignKey
		case pgCheckViolation:
			return ConstraintCheck
		}
		return ConstraintNone
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ConstraintUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey
		case mysqlCheckViolated:
			return ConstraintCheck
		}
		return ConstraintNone
	}
	var liteErr sqliteCoder
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteUnique, sqlitePrimaryKey:
			return ConstraintUnique
		case sqliteForeignKey:
			return ConstraintForeignKey
		case sqliteCheck:
			return ConstraintCheck
		}
	}
	// Drivers without typed errors, including SQL Server.
	msg := err.Error()
	switch {
	case containsAny(msg, "UNIQUE constraint failed", "violates unique constraint",
		"Cannot insert duplicate key", "Violation of UNIQUE KEY constraint", "Violation of PRIMARY KEY constraint"):
		return ConstraintUnique
	case containsAny(msg, "FOREIGN KEY constraint failed", "violates foreign key constraint",
		"conflicted with the FOREIGN KEY constraint", "conflicted with the REFERENCE constraint"):
		return ConstraintForeignKey
	case containsAny(msg, "CHECK constraint failed", "violates check constraint",
		"conflicted with the CHECK constraint"):
		return ConstraintCheck
	}
	return ConstraintNone
}

// IsConstraintError reports whether err is any constraint violation.
func IsConstraintError(err error) bool { return Constraint(err) != ConstraintNone }

// IsUniqueConstraintError reports whether err is a duplicate key violation.
func IsUniqueConstraintError(err error) bool { return Constraint(err) == ConstraintUnique }

// IsForeignKeyConstraintError reports whether err is a foreign key violation.
func IsForeignKeyConstraintError(err error) bool { return Constraint(err) == ConstraintForeignKey }

// IsCheckConstraintError reports whether err is a check constraint violation.
func IsCheckConstraintError(err error) bool { return Constraint(err) == ConstraintCheck }

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
