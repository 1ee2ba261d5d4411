package selectexpr

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed select expression. The parser does not
// attempt recovery; the first problem found is returned.
type ParseError struct {
	Input   string
	Pos     int // byte offset of the offending token
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("select %q: offset %d: %s", e.Input, e.Pos, e.Message)
}

// Parse parses a select expression into a Selection.
// An empty or whitespace-only expression yields All().
func Parse(input string) (Selection, error) {
	if strings.TrimSpace(input) == "" {
		return All(), nil
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{input: input, tokens: tokens}
	sel, err := p.parseSelection(0)
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.Type {
	case TokenEOF:
		return sel, nil
	case TokenRParen:
		return nil, p.errorAt(tok, "unbalanced parentheses: unexpected ')'")
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("expected ',' or end of input, got %s", tok.Type))
	}
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(input string) Selection {
	sel, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return sel
}

type parser struct {
	input  string
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok Token, msg string) *ParseError {
	return &ParseError{Input: p.input, Pos: tok.Pos, Message: msg}
}

// parseSelection parses item (',' item)*. depth is the embed nesting level.
func (p *parser) parseSelection(depth int) (Selection, error) {
	sel := Selection{}
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenComma:
			if len(sel) == 0 {
				return nil, p.errorAt(tok, "leading comma")
			}
			return nil, p.errorAt(tok, "consecutive commas")
		case TokenEOF:
			if len(sel) > 0 {
				return nil, p.errorAt(tok, "trailing comma")
			}
			return nil, p.errorAt(tok, "expected identifier or '*'")
		case TokenRParen:
			if len(sel) > 0 {
				return nil, p.errorAt(tok, "trailing comma")
			}
			if depth == 0 {
				return nil, p.errorAt(tok, "unbalanced parentheses: unexpected ')'")
			}
			return nil, p.errorAt(tok, "expected identifier or '*'")
		}

		item, err := p.parseItem(depth)
		if err != nil {
			return nil, err
		}
		sel = append(sel, item)

		if p.peek().Type != TokenComma {
			return sel, nil
		}
		p.advance()
	}
}

func (p *parser) parseItem(depth int) (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenStar:
		if next := p.peek(); next.Type == TokenColon || next.Type == TokenLParen {
			return nil, p.errorAt(next, fmt.Sprintf("unexpected %s after '*'", next.Type))
		}
		return Wildcard{}, nil
	case TokenIdent:
	case TokenColon:
		return nil, p.errorAt(tok, "stray ':' without alias")
	case TokenLParen:
		return nil, p.errorAt(tok, "'(' must follow a relation name")
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("expected identifier or '*', got %s", tok.Type))
	}

	name, alias := tok.Value, ""
	if p.peek().Type == TokenColon {
		p.advance()
		next := p.advance()
		switch next.Type {
		case TokenIdent:
			alias, name = name, next.Value
		case TokenStar:
			return nil, p.errorAt(next, "a wildcard cannot be aliased")
		default:
			return nil, p.errorAt(next, fmt.Sprintf("expected identifier after ':', got %s", next.Type))
		}
	}
	if alias == name {
		alias = ""
	}

	if p.peek().Type != TokenLParen {
		return Column{Name: name, Alias: alias}, nil
	}

	open := p.advance()
	if p.peek().Type == TokenRParen {
		return nil, p.errorAt(p.peek(), fmt.Sprintf("empty embed body for %q", name))
	}
	if p.peek().Type == TokenEOF {
		return nil, p.errorAt(open, "unbalanced parentheses: missing ')'")
	}

	children, err := p.parseSelection(depth + 1)
	if err != nil {
		return nil, err
	}

	if closing := p.peek(); closing.Type != TokenRParen {
		if closing.Type == TokenEOF {
			return nil, p.errorAt(open, "unbalanced parentheses: missing ')'")
		}
		return nil, p.errorAt(closing, fmt.Sprintf("expected ',' or ')', got %s", closing.Type))
	}
	p.advance()

	return Embed{Relation: name, Alias: alias, Children: children}, nil
}
