package parser

import (
	"fmt"
	"strconv"

	"github.com/cubestudio/dataset-admin/pkg/query/lexer"
)

type Error struct {
	message string
}

func NewParserError(format string, a ...any) *Error {
	return &Error{message: fmt.Sprintf(format, a...)}
}

func (e *Error) Error() string {
	return e.message
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF, Value: "EOF"}
	}

	return p.tokens[p.pos]
}

func (p *parser) kind() lexer.TokenKind {
	return p.current().Kind
}

func (p *parser) advance() lexer.Token {
	token := p.current()
	p.pos++

	return token
}

func (p *parser) unexpected(expected string) *Error {
	token := p.current()

	return NewParserError("expected %s at offset %d, got %s", expected, token.Offset, token.Debug())
}

//nolint:gochecknoglobals
var operators = map[lexer.TokenKind]OperatorKind{
	lexer.Equals:        Equals,
	lexer.NotEquals:     NotEquals,
	lexer.Less:          Less,
	lexer.LessEquals:    LessEquals,
	lexer.Greater:       Greater,
	lexer.GreaterEquals: GreaterEquals,
	lexer.Like:          Like,
	lexer.ILike:         ILike,
}

func (p *parser) parseValue() (Value, error) {
	switch p.kind() {
	case lexer.Number:
		token := p.advance()

		n, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return nil, NewParserError("number %q could not be parsed: %v", token.Value, err)
		}

		return NumberExpr{Value: n}, nil
	case lexer.String:
		return StringExpr{Value: p.advance().Value}, nil
	default:
		return nil, p.unexpected("number or string")
	}
}

func (p *parser) parseList() (ListExpr, error) {
	if p.kind() != lexer.OpenParen {
		return ListExpr{}, p.unexpected("'('")
	}

	p.advance()

	values := make([]Value, 0)

	for {
		value, err := p.parseValue()
		if err != nil {
			return ListExpr{}, err
		}

		values = append(values, value)

		if p.kind() != lexer.Comma {
			break
		}

		p.advance()
	}

	if p.kind() != lexer.CloseParen {
		return ListExpr{}, p.unexpected("')'")
	}

	p.advance()

	return ListExpr{Values: values}, nil
}

func (p *parser) parseExpression() (*CompareExpr, error) {
	if p.kind() != lexer.Identifier {
		return nil, p.unexpected("column name")
	}

	column := p.advance().Value

	switch p.kind() {
	case lexer.In:
		p.advance()

		list, err := p.parseList()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Column: column, Operator: In, Right: list}, nil
	case lexer.Not:
		p.advance()

		if p.kind() != lexer.In {
			return nil, p.unexpected("IN after NOT")
		}

		p.advance()

		list, err := p.parseList()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Column: column, Operator: NotIn, Right: list}, nil
	default:
		operator, ok := operators[p.kind()]
		if !ok {
			return nil, p.unexpected("operator")
		}

		p.advance()

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Column: column, Operator: operator, Right: value}, nil
	}
}

func (p *parser) parse() (*AndExpr, error) {
	exprs := make([]*CompareExpr, 0)

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, expr)

		if p.kind() != lexer.And {
			break
		}

		p.advance()
	}

	if p.kind() != lexer.EOF {
		return nil, NewParserError(
			"unexpected leftover token(s) after parsing: %s",
			p.current().Debug(),
		)
	}

	return &AndExpr{Exprs: exprs}, nil
}

func Parse(tokens []lexer.Token) (*AndExpr, error) {
	p := &parser{tokens: tokens}

	return p.parse()
}
