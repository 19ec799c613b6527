package parser

import (
	"github.com/xplshn/astro/pkg/lexer"
	"github.com/xplshn/astro/pkg/syntax"
	"github.com/xplshn/astro/pkg/token"
	"github.com/xplshn/astro/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	source   []rune
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
}

// bailout carries the first syntax error up to Parse
type bailout struct{ err *util.Diagnostic }

// Parse tokenizes and parses a whole source file
func Parse(source []rune, fileIndex int) (syntax.Node, error) {
	tokens, err := lexer.Tokenize(source, fileIndex)
	if err != nil {
		return nil, err
	}
	return NewParser(source, tokens).Parse()
}

// NewParser creates and initializes a new Parser from a token stream. The
// stream must be terminated by an EOF token.
func NewParser(source []rune, tokens []token.Token) *Parser {
	p := &Parser{source: source, tokens: tokens}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokTypes ...token.Type) bool {
	for _, t := range tokTypes {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) fail(tok token.Token, format string, args ...interface{}) {
	panic(bailout{util.Errorf(tok, format, args...)})
}

func (p *Parser) expect(tokType token.Type, message string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	p.fail(p.current, "%s", message)
}

// span returns the source text from start up to and including the previous token
func (p *Parser) span(start token.Token) string {
	end := p.previous.Offset + p.previous.Len
	if start.Offset < 0 || end > len(p.source) || start.Offset > end {
		return ""
	}
	return string(p.source[start.Offset:end])
}

// Parse builds the tree for the whole token stream
func (p *Parser) Parse() (root syntax.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			root, err = nil, b.err
		}
	}()

	tok := p.current
	var stmts []syntax.Node
	for {
		stmts = append(stmts, p.parseStmt())
		if p.check(token.EOF) {
			break
		}
	}
	return syntax.New(syntax.Program, tok, p.span(tok), stmts...), nil
}

func (p *Parser) parseStmt() syntax.Node {
	tok := p.current
	p.expect(token.Ident, "Expected a statement (assignment or call).")
	id := syntax.NewIdent(p.previous)

	switch {
	case p.match(token.Eq):
		exp := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after assignment.")
		return syntax.New(syntax.Assign, tok, p.span(tok), id, exp)
	case p.match(token.LParen):
		args := p.parseArgs()
		p.expect(token.Semi, "Expected ';' after call statement.")
		return syntax.New(syntax.CallStmt, tok, p.span(tok), append([]syntax.Node{id}, args...)...)
	default:
		p.fail(p.current, "Expected '=' or '(' after '%s'.", id.Text())
		return nil
	}
}

// parseArgs parses a possibly empty argument list; the '(' is already consumed
func (p *Parser) parseArgs() []syntax.Node {
	var args []syntax.Node
	if !p.check(token.RParen) {
		for {
			args = append(args, p.parseExpr())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RParen, "Expected ')' after arguments.")
	return args
}

// Expression Parsing

func (p *Parser) parseExpr() syntax.Node {
	tok := p.current
	left := p.parseTerm()
	for p.match(token.Plus, token.Minus) {
		op := syntax.NewOperator(p.previous)
		right := p.parseTerm()
		left = syntax.New(syntax.Binary, tok, p.span(tok), left, op, right)
	}
	return left
}

func (p *Parser) parseTerm() syntax.Node {
	tok := p.current
	left := p.parseFactor()
	for p.match(token.Star, token.Slash, token.Rem) {
		op := syntax.NewOperator(p.previous)
		right := p.parseFactor()
		left = syntax.New(syntax.Binary, tok, p.span(tok), left, op, right)
	}
	return left
}

// parseFactor handles '**' (right associative) and negation. Negation binds
// to a primary only, so "-x ** 2" must be written "-(x ** 2)" or "(-x) ** 2".
func (p *Parser) parseFactor() syntax.Node {
	tok := p.current
	if p.match(token.Minus) {
		op := syntax.NewOperator(p.previous)
		operand := p.parsePrimary()
		return syntax.New(syntax.Unary, tok, p.span(tok), op, operand)
	}
	left := p.parsePrimary()
	if p.match(token.Pow) {
		op := syntax.NewOperator(p.previous)
		right := p.parseFactor()
		return syntax.New(syntax.Binary, tok, p.span(tok), left, op, right)
	}
	return left
}

func (p *Parser) parsePrimary() syntax.Node {
	tok := p.current
	switch {
	case p.match(token.Number):
		return syntax.NewNumber(p.previous)
	case p.match(token.Ident):
		id := syntax.NewIdent(p.previous)
		if p.match(token.LParen) {
			args := p.parseArgs()
			return syntax.New(syntax.Call, tok, p.span(tok), append([]syntax.Node{id}, args...)...)
		}
		return id
	case p.match(token.LParen):
		exp := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return syntax.New(syntax.Paren, tok, p.span(tok), exp)
	}
	p.fail(tok, "Expected an expression.")
	return nil
}
