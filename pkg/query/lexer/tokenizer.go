package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

type Error struct {
	message string
}

func NewLexerError(format string, a ...any) *Error {
	return &Error{message: fmt.Sprintf(format, a...)}
}

func (e *Error) Error() string {
	return e.message
}

type handler func(lex *lexer, match string)

type pattern struct {
	regex   *regexp.Regexp
	handler handler
}

// Patterns are anchored and tried in order, so two-character operators must
// precede their one-character prefixes.
//
//nolint:gochecknoglobals
var patterns = []pattern{
	{regexp.MustCompile(`^\s+`), skip},
	{regexp.MustCompile(`^"[^"]*"`), quoted},
	{regexp.MustCompile(`^'[^']*'`), quoted},
	{regexp.MustCompile("^`[^`]*`"), quotedIdentifier},
	{regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?`), emit(Number)},
	{regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`), symbol},
	{regexp.MustCompile(`^\(`), emit(OpenParen)},
	{regexp.MustCompile(`^\)`), emit(CloseParen)},
	{regexp.MustCompile(`^,`), emit(Comma)},
	{regexp.MustCompile(`^(!=|<>)`), emit(NotEquals)},
	{regexp.MustCompile(`^==?`), emit(Equals)},
	{regexp.MustCompile(`^<=`), emit(LessEquals)},
	{regexp.MustCompile(`^<`), emit(Less)},
	{regexp.MustCompile(`^>=`), emit(GreaterEquals)},
	{regexp.MustCompile(`^>`), emit(Greater)},
}

type lexer struct {
	source string
	pos    int
	tokens []Token
}

func Tokenize(source string) ([]Token, error) {
	lex := &lexer{source: source, tokens: make([]Token, 0)}

	for lex.pos < len(lex.source) {
		remainder := lex.source[lex.pos:]
		matched := false

		for _, p := range patterns {
			if match := p.regex.FindString(remainder); match != "" {
				p.handler(lex, match)
				lex.pos += len(match)
				matched = true

				break
			}
		}

		if !matched {
			return lex.tokens, NewLexerError("unrecognized token near %q", remainder)
		}
	}

	lex.tokens = append(lex.tokens, Token{Kind: EOF, Value: "EOF", Offset: lex.pos})

	return lex.tokens, nil
}

func (lex *lexer) push(kind TokenKind, value string) {
	lex.tokens = append(lex.tokens, Token{Kind: kind, Value: value, Offset: lex.pos})
}

func emit(kind TokenKind) handler {
	return func(lex *lexer, match string) {
		lex.push(kind, match)
	}
}

func skip(*lexer, string) {}

func quoted(lex *lexer, match string) {
	lex.push(String, match[1:len(match)-1])
}

func quotedIdentifier(lex *lexer, match string) {
	lex.push(Identifier, match[1:len(match)-1])
}

func symbol(lex *lexer, match string) {
	if kind, found := keywords[strings.ToUpper(match)]; found {
		lex.push(kind, match)

		return
	}

	lex.push(Identifier, match)
}
