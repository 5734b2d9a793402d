// Package mssql implements the datasource executor over database/sql with
// the go-mssqldb driver. Positional $N markers are rewritten to SQL Server's
// @pN named parameters.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/adapters/datasource"
	"github.com/panelize-ai/panelize-engine/pkg/retry"
)

func init() {
	datasource.Register("mssql", func(ctx context.Context, deps datasource.Deps) (datasource.QueryExecutor, error) {
		return NewExecutor(ctx, deps.Config.MSSQL.ConnectionString(), deps.Logger)
	})
}

// Executor runs queries against SQL Server.
type Executor struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.QueryExecutor = (*Executor)(nil)

// NewExecutor opens a connection and verifies it is reachable, retrying
// transient failures with backoff.
func NewExecutor(ctx context.Context, connString string, logger *zap.Logger) (*Executor, error) {
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*sql.DB, error) {
		d, err := sql.Open("sqlserver", connString)
		if err != nil {
			return nil, fmt.Errorf("open sqlserver connection: %w", err)
		}
		if err := d.PingContext(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("ping sqlserver: %w", err)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &Executor{db: db, logger: logger}, nil
}

// NewExecutorWithDB wraps an existing handle. Used by tests with sqlmock.
func NewExecutorWithDB(db *sql.DB, logger *zap.Logger) *Executor {
	return &Executor{db: db, logger: logger}
}

// paramRegex matches $N positional markers for conversion to @pN.
var paramRegex = regexp.MustCompile(`\$(\d+)`)

// convertPositionalParams rewrites $1, $2, ... to @p1, @p2, ...
func convertPositionalParams(query string) string {
	return paramRegex.ReplaceAllStringFunc(query, func(match string) string {
		num, err := strconv.Atoi(match[1:])
		if err != nil {
			return match
		}
		return fmt.Sprintf("@p%d", num)
	})
}

// Query runs a parameterized SELECT wrapped with a TOP bound.
func (e *Executor) Query(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	converted := convertPositionalParams(sqlQuery)
	wrapped := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", datasource.EffectiveLimit(limit), converted)

	namedParams := make([]any, len(params))
	for i, param := range params {
		namedParams[i] = sql.Named(fmt.Sprintf("p%d", i+1), param)
	}

	rows, err := e.db.QueryContext(ctx, wrapped, namedParams...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]datasource.ColumnInfo, len(columnNames))
	for i, name := range columnNames {
		columns[i] = datasource.ColumnInfo{
			Name: name,
			Type: columnTypes[i].DatabaseTypeName(),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		scanTargets := make([]any, len(columnNames))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			val := values[i]
			// Text columns arrive as []byte from the driver.
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				val = string(b)
			}
			rowMap[name] = val
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

func isStringType(dbType string) bool {
	switch dbType {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	default:
		return false
	}
}

// Close releases the connection.
func (e *Executor) Close() error {
	return e.db.Close()
}
