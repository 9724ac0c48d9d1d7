package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/query"
	"github.com/cubestudio/dataset-admin/pkg/query/parser"
)

func TestValidQueries(t *testing.T) {
	t.Parallel()

	samples := []string{
		"name = 'mnist'",
		"id >= 4 AND name LIKE 'mn%'",
		"sourceType = 'github'",
		"`download_url` ILIKE '%oss%'",
		"status IN ('正常', '下线')",
		"id NOT IN (1, 2, 3)",
		"created_on > '2024-01-01'",
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseFilter(sample)
			require.NoError(t, err)
		})
	}
}

func TestInvalidQueries(t *testing.T) {
	t.Parallel()

	samples := []string{
		"secret = 'x'",
		"id = 'one'",
		"name = 3",
		"id LIKE '1%'",
		"created_on LIKE '2024%'",
		"status IN ('a', 1)",
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample, func(t *testing.T) {
			t.Parallel()

			_, err := query.ParseFilter(sample)
			require.Error(t, err)
		})
	}
}

func TestValidateColumn(t *testing.T) {
	t.Parallel()

	column, kind, err := parser.ValidateColumn("storageClass")
	require.NoError(t, err)
	assert.Equal(t, "storage_class", column)
	assert.Equal(t, parser.Text, kind)

	column, kind, err = parser.ValidateColumn("ID")
	require.NoError(t, err)
	assert.Equal(t, "id", column)
	assert.Equal(t, parser.Numeric, kind)
}
