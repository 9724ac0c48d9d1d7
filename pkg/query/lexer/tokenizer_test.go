package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/query/lexer"
)

func debug(tokens []lexer.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		parts = append(parts, token.Debug())
	}

	return strings.Join(parts, " ")
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	samples := []struct {
		input    string
		expected string
	}{
		{
			input:    "name = 'mnist'",
			expected: "identifier(name) equals string(mnist) eof",
		},
		{
			input:    "id >= 10 AND id < 20",
			expected: "identifier(id) greater_equals number(10) and identifier(id) less number(20) eof",
		},
		{
			input:    `label ILIKE "%手写%"`,
			expected: "identifier(label) ilike string(%手写%) eof",
		},
		{
			input:    "status IN ('正常', '下线')",
			expected: "identifier(status) in open_paren string(正常) comma string(下线) close_paren eof",
		},
		{
			input:    "sourceType NOT IN ('github')",
			expected: "identifier(sourceType) not in open_paren string(github) close_paren eof",
		},
		{
			input:    "`file_type` <> 'csv'",
			expected: "identifier(file_type) not_equals string(csv) eof",
		},
		{
			input:    "entries_num != -1 and name like 'a%'",
			expected: "identifier(entries_num) not_equals number(-1) and identifier(name) like string(a%) eof",
		},
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample.input, func(t *testing.T) {
			t.Parallel()

			tokens, err := lexer.Tokenize(sample.input)
			require.NoError(t, err)
			assert.Equal(t, sample.expected, debug(tokens))
		})
	}
}

func TestTokenizeOffsets(t *testing.T) {
	t.Parallel()

	tokens, err := lexer.Tokenize("id  = 3")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, 0, tokens[0].Offset)
	assert.Equal(t, 4, tokens[1].Offset)
	assert.Equal(t, 6, tokens[2].Offset)
	assert.Equal(t, 7, tokens[3].Offset)
}

func TestTokenizeInvalidInput(t *testing.T) {
	t.Parallel()

	samples := []string{
		"name = 'mnist",
		"name = mnist'",
		`name = "mnist'`,
		"name ~ 'mnist'",
		"name.version = 'x'",
	}

	for _, sample := range samples {
		sample := sample
		t.Run(sample, func(t *testing.T) {
			t.Parallel()

			_, err := lexer.Tokenize(sample)
			require.Error(t, err)
		})
	}
}
