package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelize-ai/panelize-engine/pkg/apperrors"
	"github.com/panelize-ai/panelize-engine/pkg/models"
)

func TestValidateFilterMeta(t *testing.T) {
	valid := []models.FilterBinding{
		{FilterKey: "region", Column: "region", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		{FilterKey: "period", Column: "orders.created_at", Operator: models.OperatorRange, ValueType: models.ValueTypeDate},
		{FilterKey: "statuses", Column: "status", Operator: models.OperatorIn, ValueType: models.ValueTypeString},
		{FilterKey: "q", Column: "name", Operator: models.OperatorLike, ValueType: models.ValueTypeString},
	}
	require.NoError(t, ValidateFilterMeta(valid))

	tests := []struct {
		name    string
		binding models.FilterBinding
	}{
		{
			name:    "empty filter key",
			binding: models.FilterBinding{Column: "region", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		},
		{
			name:    "column with injection payload",
			binding: models.FilterBinding{FilterKey: "r", Column: "region = '' OR 1=1 --", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		},
		{
			name:    "column with two dots",
			binding: models.FilterBinding{FilterKey: "r", Column: "a.b.c", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		},
		{
			name:    "column starting with digit",
			binding: models.FilterBinding{FilterKey: "r", Column: "1region", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		},
		{
			name:    "LIKE on integer",
			binding: models.FilterBinding{FilterKey: "n", Column: "n", Operator: models.OperatorLike, ValueType: models.ValueTypeInteger},
		},
		{
			name:    "range on boolean",
			binding: models.FilterBinding{FilterKey: "b", Column: "b", Operator: models.OperatorRange, ValueType: models.ValueTypeBoolean},
		},
		{
			name:    "unknown operator",
			binding: models.FilterBinding{FilterKey: "r", Column: "r", Operator: "regex", ValueType: models.ValueTypeString},
		},
		{
			name:    "unknown value type",
			binding: models.FilterBinding{FilterKey: "r", Column: "r", Operator: models.OperatorEq, ValueType: "uuid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilterMeta([]models.FilterBinding{tt.binding})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidFilterMeta)
		})
	}
}

func TestBuildParameterized(t *testing.T) {
	bindings := []models.FilterBinding{
		{FilterKey: "region", Column: "region", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		{FilterKey: "period", Column: "created_at", Operator: models.OperatorRange, ValueType: models.ValueTypeDate},
		{FilterKey: "statuses", Column: "status", Operator: models.OperatorIn, ValueType: models.ValueTypeString},
		{FilterKey: "q", Column: "name", Operator: models.OperatorLike, ValueType: models.ValueTypeString},
		{FilterKey: "min_total", Column: "total", Operator: models.OperatorEq, ValueType: models.ValueTypeDecimal},
	}

	t.Run("scalar equality", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"region": models.NewScalar("EMEA"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE region = $1", pq.SQL)
		assert.Equal(t, []any{"EMEA"}, pq.Params)
	})

	t.Run("complete range emits two markers", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"period": models.NewRange("2024-01-01", "2024-12-31"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE created_at >= $1 AND created_at <= $2", pq.SQL)
		assert.Equal(t, []any{"2024-01-01", "2024-12-31"}, pq.Params)
	})

	t.Run("partial range contributes nothing", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"period": models.NewRange("2024-01-01", ""),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders", pq.SQL)
		assert.Empty(t, pq.Params)
	})

	t.Run("list expands to IN with one marker per element", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"statuses": models.NewList("pending", "shipped", "delivered"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE status IN ($1, $2, $3)", pq.SQL)
		assert.Equal(t, []any{"pending", "shipped", "delivered"}, pq.Params)
	})

	t.Run("like wraps the value in wildcards", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"q": models.NewScalar("acme"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE name LIKE $1", pq.SQL)
		assert.Equal(t, []any{"%acme%"}, pq.Params)
	})

	t.Run("typed values are converted", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"min_total": models.NewScalar("10.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, []any{10.5}, pq.Params)
	})

	t.Run("bad typed value fails the build", func(t *testing.T) {
		_, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"min_total": models.NewScalar("lots"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("marker count always equals param count", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"region":   models.NewScalar("EMEA"),
			"period":   models.NewRange("2024-01-01", "2024-12-31"),
			"statuses": models.NewList("pending", "shipped"),
		})
		require.NoError(t, err)
		assert.Len(t, pq.Params, len(markerRegex.FindAllString(pq.SQL, -1)))
	})

	t.Run("fragment lands before ORDER BY", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders ORDER BY total DESC LIMIT 10", bindings, models.FilterValues{
			"region": models.NewScalar("EMEA"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE region = $1 ORDER BY total DESC LIMIT 10", pq.SQL)
	})

	t.Run("existing WHERE is extended with AND", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders WHERE total > 0", bindings, models.FilterValues{
			"region": models.NewScalar("EMEA"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders WHERE total > 0 AND region = $1", pq.SQL)
	})

	t.Run("no matching values returns template untouched", func(t *testing.T) {
		pq, err := BuildParameterized("SELECT * FROM orders", bindings, models.FilterValues{
			"unrelated": models.NewScalar("x"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM orders", pq.SQL)
		assert.Empty(t, pq.Params)
	})

	t.Run("invalid metadata fails before building", func(t *testing.T) {
		bad := []models.FilterBinding{
			{FilterKey: "r", Column: "region; DROP TABLE orders", Operator: models.OperatorEq, ValueType: models.ValueTypeString},
		}
		_, err := BuildParameterized("SELECT * FROM orders", bad, models.FilterValues{
			"r": models.NewScalar("EMEA"),
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFilterMeta)
	})
}
