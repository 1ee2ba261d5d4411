package selectexpr

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for select expression tokens.
const (
	TokenIdent  TokenType = iota // column, relation or alias name
	TokenStar                    // *
	TokenComma                   // ,
	TokenColon                   // :
	TokenLParen                  // (
	TokenRParen                  // )
	TokenEOF                     // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "identifier"
	case TokenStar:
		return "'*'"
	case TokenComma:
		return "','"
	case TokenColon:
		return "':'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenEOF:
		return "end of input"
	default:
		return "unknown"
	}
}

// Token is a lexical token. Pos is the byte offset in the input.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a select expression.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize converts the input into a slice of tokens ending in TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token, skipping whitespace.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	var typ TokenType
	switch r {
	case '*':
		typ = TokenStar
	case ',':
		typ = TokenComma
	case ':':
		typ = TokenColon
	case '(':
		typ = TokenLParen
	case ')':
		typ = TokenRParen
	default:
		if !isIdentRune(r) {
			return Token{}, &ParseError{
				Input:   l.input,
				Pos:     start,
				Message: fmt.Sprintf("illegal character %q", r),
			}
		}
		return l.scanIdent(), nil
	}

	l.pos += size
	return Token{Type: typ, Value: l.input[start:l.pos], Pos: start}, nil
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentRune(r) {
			break
		}
		l.pos += size
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s can be written as a bare identifier in a
// select expression or filter path segment.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}
