package parser

type Value interface {
	value() interface{}
}

type NumberExpr struct {
	Value float64
}

func (n NumberExpr) value() interface{} { return n.Value }

type StringExpr struct {
	Value string
}

func (s StringExpr) value() interface{} { return s.Value }

// ListExpr is the parenthesized right-hand side of IN and NOT IN.
type ListExpr struct {
	Values []Value
}

func (l ListExpr) value() interface{} {
	values := make([]interface{}, 0, len(l.Values))
	for _, v := range l.Values {
		values = append(values, v.value())
	}

	return values
}

type OperatorKind int

const (
	Equals OperatorKind = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
	Like
	ILike
	In
	NotIn
)

func (op OperatorKind) String() string {
	switch op {
	case Equals:
		return "="
	case NotEquals:
		return "!="
	case Less:
		return "<"
	case LessEquals:
		return "<="
	case Greater:
		return ">"
	case GreaterEquals:
		return ">="
	case Like:
		return "LIKE"
	case ILike:
		return "ILIKE"
	case In:
		return "IN"
	case NotIn:
		return "NOT IN"
	default:
		return "?"
	}
}

// column operator value
type CompareExpr struct {
	Column   string
	Operator OperatorKind
	Right    Value
}

type AndExpr struct {
	Exprs []*CompareExpr
}
