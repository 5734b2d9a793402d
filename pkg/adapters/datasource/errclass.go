package datasource

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/panelize-ai/panelize-engine/pkg/memdb"
)

// pgUndefinedColumn is the PostgreSQL SQLSTATE for a missing column.
const pgUndefinedColumn = "42703"

// IsUnknownColumn reports whether err means the query referenced a column
// the backend does not have. The orchestrator retries auto-inferred queries
// exactly once on this class of failure.
func IsUnknownColumn(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedColumn
	}

	var unknownCol *memdb.UnknownColumnError
	if errors.As(err, &unknownCol) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid column name") || strings.Contains(msg, "unknown column") {
		return true
	}
	// Postgres-style message without a typed error (e.g. over a text
	// protocol): require the word column so "relation does not exist"
	// stays an ordinary failure.
	return strings.Contains(msg, "column") && strings.Contains(msg, "does not exist")
}
