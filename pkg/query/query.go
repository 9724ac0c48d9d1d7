package query

import (
	"fmt"
	"strings"

	"github.com/cubestudio/dataset-admin/pkg/query/lexer"
	"github.com/cubestudio/dataset-admin/pkg/query/parser"
)

func ParseFilter(input string) ([]*parser.ValidCompareExpr, error) {
	if strings.TrimSpace(input) == "" {
		return make([]*parser.ValidCompareExpr, 0), nil
	}

	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, fmt.Errorf("error while lexing %s: %w", input, err)
	}

	ast, err := parser.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("error while parsing %s: %w", input, err)
	}

	validExpressions := make([]*parser.ValidCompareExpr, 0, len(ast.Exprs))

	for _, expr := range ast.Exprs {
		ve, err := parser.ValidateExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("error while validating %s: %w", input, err)
		}

		validExpressions = append(validExpressions, ve)
	}

	return validExpressions, nil
}

type OrderBy struct {
	Column    string
	Ascending bool
}

// ParseOrderBy parses a comma separated list of "<column> [ASC|DESC]" clauses.
// Columns default to descending order.
func ParseOrderBy(input string) ([]OrderBy, error) {
	clauses := make([]OrderBy, 0)

	for _, part := range strings.Split(input, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}

		if len(fields) > 2 { //nolint:mnd
			return nil, fmt.Errorf("invalid order_by clause %q", strings.TrimSpace(part))
		}

		column, _, err := parser.ValidateColumn(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid order_by clause %q: %w", strings.TrimSpace(part), err)
		}

		clause := OrderBy{Column: column}

		if len(fields) == 2 { //nolint:mnd
			switch strings.ToUpper(fields[1]) {
			case "ASC":
				clause.Ascending = true
			case "DESC":
			default:
				return nil, fmt.Errorf("invalid order_by direction %q", fields[1])
			}
		}

		clauses = append(clauses, clause)
	}

	return clauses, nil
}
