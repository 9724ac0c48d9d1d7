package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

/*

Validation type-checks the parsed tree against the dataset table.

Column names may be written in snake or camel case and are normalized to the
snake case column name. Only the columns in searchableColumns are accepted.

Values:
  - numeric columns take numbers, and lists of numbers for IN
  - text columns take quoted strings, and lists of strings for IN
  - time columns take quoted strings and do not support LIKE

*/

type ColumnKind int

const (
	Text ColumnKind = iota
	Numeric
	Time
)

func (k ColumnKind) String() string {
	switch k {
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

//nolint:gochecknoglobals
var searchableColumns = map[string]ColumnKind{
	"id":            Numeric,
	"name":          Text,
	"version":       Text,
	"label":         Text,
	"describe":      Text,
	"subdataset":    Text,
	"industry":      Text,
	"field":         Text,
	"usage":         Text,
	"research":      Text,
	"source_type":   Text,
	"source":        Text,
	"file_type":     Text,
	"storage_class": Text,
	"storage_size":  Text,
	"status":        Text,
	"years":         Text,
	"url":           Text,
	"download_url":  Text,
	"path":          Text,
	"price":         Text,
	"entries_num":   Text,
	"duration":      Text,
	"owner":         Text,
	"created_by":    Text,
	"changed_by":    Text,
	"created_on":    Time,
	"changed_on":    Time,
}

// SearchableColumns returns the sorted column names accepted by filters and orderings.
func SearchableColumns() []string {
	columns := make([]string, 0, len(searchableColumns))
	for column := range searchableColumns {
		columns = append(columns, column)
	}

	sort.Strings(columns)

	return columns
}

type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(format string, a ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, a...)}
}

// ValidCompareExpr is a comparison whose column exists and whose value fits the column.
type ValidCompareExpr struct {
	Column   string
	Kind     ColumnKind
	Operator OperatorKind
	Value    interface{}
}

// ValidateColumn normalizes name and checks it against the searchable columns.
func ValidateColumn(name string) (string, ColumnKind, error) {
	column := strcase.ToSnake(strings.TrimSpace(name))

	kind, ok := searchableColumns[column]
	if !ok {
		return "", Text, NewValidationError(
			"invalid column %q. Allowed values are %v",
			name,
			SearchableColumns(),
		)
	}

	return column, kind, nil
}

func checkScalar(column string, kind ColumnKind, value Value) error {
	_, isNumber := value.(NumberExpr)

	switch {
	case kind == Numeric && !isNumber:
		return NewValidationError("expected numeric value for column %s. Found %v", column, value.value())
	case kind != Numeric && isNumber:
		return NewValidationError("expected a quoted string value for column %s. Found %v", column, value.value())
	default:
		return nil
	}
}

func validateValue(column string, kind ColumnKind, operator OperatorKind, value Value) (interface{}, error) {
	switch operator {
	case In, NotIn:
		list, ok := value.(ListExpr)
		if !ok {
			return nil, NewValidationError("%s on column %s requires a list of values", operator, column)
		}

		for _, item := range list.Values {
			if err := checkScalar(column, kind, item); err != nil {
				return nil, err
			}
		}

		return list.value(), nil
	case Like, ILike:
		if kind != Text {
			return nil, NewValidationError("%s is only supported on text columns, %s is %s", operator, column, kind)
		}
	case Equals, NotEquals, Less, LessEquals, Greater, GreaterEquals:
	}

	if _, ok := value.(ListExpr); ok {
		return nil, NewValidationError("only IN and NOT IN support a list of values")
	}

	if err := checkScalar(column, kind, value); err != nil {
		return nil, err
	}

	return value.value(), nil
}

func ValidateExpression(expression *CompareExpr) (*ValidCompareExpr, error) {
	column, kind, err := ValidateColumn(expression.Column)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	value, err := validateValue(column, kind, expression.Operator, expression.Right)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	return &ValidCompareExpr{
		Column:   column,
		Kind:     kind,
		Operator: expression.Operator,
		Value:    value,
	}, nil
}
