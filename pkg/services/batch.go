// Package services holds the query orchestrator: strategy selection,
// validation, execution and the batch join.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/adapters/datasource"
	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
	"github.com/panelize-ai/panelize-engine/pkg/config"
	"github.com/panelize-ai/panelize-engine/pkg/filters"
	"github.com/panelize-ai/panelize-engine/pkg/logging"
	"github.com/panelize-ai/panelize-engine/pkg/memdb"
	"github.com/panelize-ai/panelize-engine/pkg/models"
	"github.com/panelize-ai/panelize-engine/pkg/rewrite"
	sqlsafe "github.com/panelize-ai/panelize-engine/pkg/sql"
)

// BatchRequest is one transport-level request: a set of query templates that
// share a filter-value map and a datasource selector.
type BatchRequest struct {
	Queries      []models.QueryTemplate `json:"queries"`
	FilterValues models.FilterValues    `json:"filter_values,omitempty"`
	Datasource   string                 `json:"datasource,omitempty"`
}

// ErrorKind classifies a per-query failure for the caller.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindMetadata   ErrorKind = "metadata"
	ErrorKindExecution  ErrorKind = "execution"
)

// QueryError is the per-key error entry in a batch response.
type QueryError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// BatchResponse maps each requested key to either rows or an error, plus the
// SQL that actually ran. Bound parameter values are never echoed; only the
// marker-bearing SQL text is.
type BatchResponse struct {
	ResultsByKey     map[string]*datasource.QueryExecutionResult `json:"results_by_key"`
	ExecutedSQLByKey map[string]string                           `json:"executed_sql_by_key"`
	ErrorsByKey      map[string]*QueryError                      `json:"errors_by_key"`
}

// BatchService orchestrates batch query execution.
type BatchService struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *memdb.Store

	// newExecutor is swappable in tests.
	newExecutor func(ctx context.Context, name string) (datasource.QueryExecutor, error)
}

// NewBatchService builds the orchestrator. The store backs both the memory
// datasource and schema hints for auto-inference.
func NewBatchService(cfg *config.Config, logger *zap.Logger, store *memdb.Store) *BatchService {
	s := &BatchService{cfg: cfg, logger: logger, store: store}
	s.newExecutor = func(ctx context.Context, name string) (datasource.QueryExecutor, error) {
		return datasource.New(ctx, name, datasource.Deps{Config: cfg, Logger: logger, Store: store})
	}
	return s
}

// Execute runs every query in the batch concurrently and joins the results.
// Failures scope to one key: every requested key receives either a row-set
// or an error, never neither, and siblings are unaffected.
func (s *BatchService) Execute(ctx context.Context, req *BatchRequest) *BatchResponse {
	resp := &BatchResponse{
		ResultsByKey:     make(map[string]*datasource.QueryExecutionResult),
		ExecutedSQLByKey: make(map[string]string),
		ErrorsByKey:      make(map[string]*QueryError),
	}

	logger := s.logger.With(zap.String("batch_id", uuid.NewString()))
	logger.Debug("executing batch",
		zap.Int("queries", len(req.Queries)),
		zap.String("datasource", req.Datasource))

	exec, err := s.newExecutor(ctx, req.Datasource)
	if err != nil {
		logger.Error("failed to build executor",
			zap.String("datasource", req.Datasource),
			zap.String("error", logging.SanitizeError(err)))
		for _, q := range req.Queries {
			resp.ErrorsByKey[q.Key] = &QueryError{Kind: ErrorKindExecution, Message: err.Error()}
		}
		return resp
	}
	defer exec.Close()

	type outcome struct {
		key         string
		result      *datasource.QueryExecutionResult
		executedSQL string
		queryErr    *QueryError
	}

	outcomes := make([]outcome, len(req.Queries))
	var wg sync.WaitGroup
	for i, tmpl := range req.Queries {
		wg.Add(1)
		go func(i int, tmpl models.QueryTemplate) {
			defer wg.Done()
			result, executedSQL, queryErr := s.runQuery(ctx, logger, exec, tmpl, req.FilterValues)
			outcomes[i] = outcome{key: tmpl.Key, result: result, executedSQL: executedSQL, queryErr: queryErr}
		}(i, tmpl)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.executedSQL != "" {
			resp.ExecutedSQLByKey[o.key] = o.executedSQL
		}
		if o.queryErr != nil {
			resp.ErrorsByKey[o.key] = o.queryErr
		} else {
			resp.ResultsByKey[o.key] = o.result
		}
	}
	return resp
}

// plan is the outcome of strategy selection for one query.
type plan struct {
	sql          string
	params       []any
	autoInferred bool
}

func (s *BatchService) runQuery(ctx context.Context, logger *zap.Logger, exec datasource.QueryExecutor, tmpl models.QueryTemplate, values models.FilterValues) (*datasource.QueryExecutionResult, string, *QueryError) {
	p, queryErr := s.selectStrategy(logger, tmpl, values)
	if queryErr != nil {
		return nil, "", queryErr
	}

	if verdict := sqlsafe.Validate(p.sql); !verdict.Valid {
		logger.Warn("query rejected by validator",
			zap.String("key", tmpl.Key),
			zap.String("reason", verdict.Reason),
			zap.String("sql", logging.SanitizeSQL(p.sql)))
		return nil, "", &QueryError{Kind: ErrorKindValidation, Message: verdict.Reason}
	}

	result, err := exec.Query(ctx, p.sql, p.params, s.cfg.RowLimit)
	if err == nil {
		return result, p.sql, nil
	}

	// One bounded fallback: an auto-inferred filter that guessed a column
	// wrong reruns the untouched template. Nothing else is ever retried.
	if p.autoInferred && values.HasAny() && datasource.IsUnknownColumn(err) {
		logger.Info("auto-inferred filter missed a column, retrying unfiltered",
			zap.String("key", tmpl.Key),
			zap.String("error", logging.SanitizeError(err)))

		if verdict := sqlsafe.Validate(tmpl.SQL); !verdict.Valid {
			return nil, "", &QueryError{Kind: ErrorKindValidation, Message: verdict.Reason}
		}
		result, retryErr := exec.Query(ctx, tmpl.SQL, nil, s.cfg.RowLimit)
		if retryErr != nil {
			return nil, "", &QueryError{Kind: ErrorKindExecution, Message: retryErr.Error()}
		}
		return result, tmpl.SQL, nil
	}

	logger.Warn("query execution failed",
		zap.String("key", tmpl.Key),
		zap.String("error", logging.SanitizeError(err)))
	return nil, "", &QueryError{Kind: ErrorKindExecution, Message: err.Error()}
}

// selectStrategy picks how the template and filter values become runnable
// SQL, in priority order: lookup bypass, explicit metadata, auto-inference,
// the placeholder ladder, unmodified.
func (s *BatchService) selectStrategy(logger *zap.Logger, tmpl models.QueryTemplate, values models.FilterValues) (plan, *QueryError) {
	// Lookup queries feed filter-option lists; filtering one by the value
	// it populates would be circular. They always run unmodified.
	if tmpl.IsLookup {
		return plan{sql: tmpl.SQL}, nil
	}

	hasValues := values.HasAny()
	hasTokens := sqlsafe.HasUnresolvedPlaceholders(tmpl.SQL)

	switch {
	case len(tmpl.FilterMeta) > 0 && hasValues:
		keys := make([]string, len(tmpl.FilterMeta))
		for i, b := range tmpl.FilterMeta {
			keys[i] = b.FilterKey
		}
		if queryErr := s.scanForInjection(logger, tmpl.Key, values, keys); queryErr != nil {
			return plan{}, queryErr
		}
		pq, err := filters.BuildParameterized(tmpl.SQL, tmpl.FilterMeta, values)
		if err != nil {
			kind := ErrorKindValidation
			if errors.Is(err, apperrors.ErrInvalidFilterMeta) {
				kind = ErrorKindMetadata
			}
			return plan{}, &QueryError{Kind: kind, Message: err.Error()}
		}
		return plan{sql: pq.SQL, params: pq.Params}, nil

	case hasValues && !hasTokens:
		bindings := filters.InferBindings(values, s.columnsFor(tmpl.SQL))
		if len(bindings) == 0 {
			return plan{sql: tmpl.SQL}, nil
		}
		keys := make([]string, len(bindings))
		for i, b := range bindings {
			keys[i] = b.FilterKey
		}
		if queryErr := s.scanForInjection(logger, tmpl.Key, values, keys); queryErr != nil {
			return plan{}, queryErr
		}
		pq, err := filters.BuildParameterized(tmpl.SQL, bindings, values)
		if err != nil {
			return plan{}, &QueryError{Kind: ErrorKindValidation, Message: err.Error()}
		}
		return plan{sql: pq.SQL, params: pq.Params, autoInferred: true}, nil

	case hasValues && hasTokens:
		keys := sqlsafe.ExtractPlaceholders(tmpl.SQL)
		if queryErr := s.scanForInjection(logger, tmpl.Key, values, keys); queryErr != nil {
			return plan{}, queryErr
		}
		if misplaced := sqlsafe.PlaceholdersInStringLiterals(tmpl.SQL); len(misplaced) > 0 {
			logger.Warn("placeholders inside string literals",
				zap.String("key", tmpl.Key),
				zap.Strings("placeholders", misplaced))
		}
		rewritten := rewrite.Apply(tmpl.SQL, values)
		if sqlsafe.HasUnresolvedPlaceholders(rewritten) {
			// The ladder guarantees zero tokens; residue is a rewrite bug.
			logger.Error("placeholder ladder left unresolved tokens",
				zap.String("key", tmpl.Key),
				zap.String("sql", logging.SanitizeSQL(rewritten)))
			return plan{}, &QueryError{Kind: ErrorKindValidation, Message: "template placeholders could not be resolved"}
		}
		return plan{sql: rewritten}, nil

	default:
		return plan{sql: tmpl.SQL}, nil
	}
}

func (s *BatchService) scanForInjection(logger *zap.Logger, key string, values models.FilterValues, keys []string) *QueryError {
	flagged := sqlsafe.CheckFilterValues(values, keys)
	if len(flagged) == 0 {
		return nil
	}
	for _, f := range flagged {
		logger.Warn("filter value flagged as SQL injection",
			zap.String("key", key),
			zap.String("filter_key", f.FilterKey),
			zap.String("fingerprint", f.Fingerprint))
	}
	return &QueryError{
		Kind:    ErrorKindValidation,
		Message: fmt.Sprintf("filter %q failed the injection check", flagged[0].FilterKey),
	}
}

var fromTableRegex = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z_]\w*)`)

// columnsFor returns schema hints for auto-inference. Only the in-memory
// store holds schemas; for real backends inference binds optimistically and
// leans on the unknown-column retry.
func (s *BatchService) columnsFor(sqlText string) []string {
	if s.store == nil {
		return nil
	}
	m := fromTableRegex.FindStringSubmatch(sqlText)
	if m == nil {
		return nil
	}
	table, err := s.store.Get(m[1])
	if err != nil {
		return nil
	}
	return table.ColumnNames()
}
