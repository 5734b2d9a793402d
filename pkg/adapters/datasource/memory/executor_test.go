package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/panelize-ai/panelize-engine/pkg/adapters/datasource"
	"github.com/panelize-ai/panelize-engine/pkg/memdb"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	store := memdb.NewStore()
	_, err := store.LoadTable("orders", []map[string]any{
		{"id": float64(1), "region": "EMEA", "total": float64(10)},
		{"id": float64(2), "region": "APAC", "total": float64(20)},
		{"id": float64(3), "region": "EMEA", "total": float64(30)},
	})
	require.NoError(t, err)
	return NewExecutor(store, zap.NewNop())
}

func TestQueryInlinesParams(t *testing.T) {
	exec := newExecutor(t)

	res, err := exec.Query(context.Background(), "SELECT id FROM orders WHERE region = $1 AND total > $2", []any{"EMEA", int64(15)}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	assert.Equal(t, float64(3), res.Rows[0]["id"])
}

func TestQueryReportsSchemaTypes(t *testing.T) {
	exec := newExecutor(t)

	res, err := exec.Query(context.Background(), "SELECT id, region FROM orders", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []datasource.ColumnInfo{
		{Name: "id", Type: "numeric"},
		{Name: "region", Type: "text"},
	}, res.Columns)
}

func TestQueryAppliesRowLimit(t *testing.T) {
	exec := newExecutor(t)

	res, err := exec.Query(context.Background(), "SELECT id FROM orders", nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
}

func TestQuerySurfacesUnboundMarker(t *testing.T) {
	exec := newExecutor(t)

	_, err := exec.Query(context.Background(), "SELECT id FROM orders WHERE region = $1", nil, 0)
	assert.Error(t, err)
}

func TestQueryPropagatesEngineErrors(t *testing.T) {
	exec := newExecutor(t)

	_, err := exec.Query(context.Background(), "SELECT id FROM orders WHERE warehouse = $1", []any{"north"}, 0)
	require.Error(t, err)
	assert.True(t, datasource.IsUnknownColumn(err))
}
