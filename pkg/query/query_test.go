package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/query"
	"github.com/cubestudio/dataset-admin/pkg/query/parser"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	exprs, err := query.ParseFilter("sourceType = 'github' AND id IN (1, 2)")
	require.NoError(t, err)
	require.Len(t, exprs, 2)

	assert.Equal(t, &parser.ValidCompareExpr{
		Column:   "source_type",
		Kind:     parser.Text,
		Operator: parser.Equals,
		Value:    "github",
	}, exprs[0])
	assert.Equal(t, []interface{}{float64(1), float64(2)}, exprs[1].Value)
}

func TestParseFilterEmpty(t *testing.T) {
	t.Parallel()

	exprs, err := query.ParseFilter("  ")
	require.NoError(t, err)
	assert.Empty(t, exprs)
}

func TestParseOrderBy(t *testing.T) {
	t.Parallel()

	samples := []struct {
		input    string
		expected []query.OrderBy
	}{
		{"", []query.OrderBy{}},
		{"name", []query.OrderBy{{Column: "name"}}},
		{"name ASC", []query.OrderBy{{Column: "name", Ascending: true}}},
		{"changedOn desc, id asc", []query.OrderBy{
			{Column: "changed_on"},
			{Column: "id", Ascending: true},
		}},
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample.input, func(t *testing.T) {
			t.Parallel()

			clauses, err := query.ParseOrderBy(sample.input)
			require.NoError(t, err)
			assert.Equal(t, sample.expected, clauses)
		})
	}
}

func TestParseOrderByErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"secret", "name sideways", "name asc extra"} {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseOrderBy(input)
			require.Error(t, err)
		})
	}
}
