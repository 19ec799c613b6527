package lexer

import (
	"unicode"

	"github.com/xplshn/astro/pkg/token"
	"github.com/xplshn/astro/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
}

func NewLexer(source []rune, fileIndex int) *Lexer {
	return &Lexer{source: source, fileIndex: fileIndex, line: 1, column: 1}
}

// Tokenize runs the lexer to completion. The returned slice always ends with an EOF token.
func Tokenize(source []rune, fileIndex int) ([]token.Token, error) {
	l := NewLexer(source, fileIndex)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine), nil
	}

	ch := l.peek()
	if unicode.IsLetter(ch) {
		l.advance()
		return l.identifier(startPos, startCol, startLine), nil
	}
	if unicode.IsDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(': return l.makeToken(token.LParen, "", startPos, startCol, startLine), nil
	case ')': return l.makeToken(token.RParen, "", startPos, startCol, startLine), nil
	case ';': return l.makeToken(token.Semi, "", startPos, startCol, startLine), nil
	case ',': return l.makeToken(token.Comma, "", startPos, startCol, startLine), nil
	case '=': return l.makeToken(token.Eq, "", startPos, startCol, startLine), nil
	case '+': return l.makeToken(token.Plus, "", startPos, startCol, startLine), nil
	case '-': return l.makeToken(token.Minus, "", startPos, startCol, startLine), nil
	case '/': return l.makeToken(token.Slash, "", startPos, startCol, startLine), nil
	case '%': return l.makeToken(token.Rem, "", startPos, startCol, startLine), nil
	case '*':
		if l.match('*') {
			return l.makeToken(token.Pow, "", startPos, startCol, startLine), nil
		}
		return l.makeToken(token.Star, "", startPos, startCol, startLine), nil
	}

	tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
	return tok, util.Errorf(tok, "Unexpected character: '%c'", ch)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex, Offset: startPos,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

// here makes a zero-width token at the current position
func (l *Lexer) here() token.Token {
	return l.makeToken(token.EOF, "", l.pos, l.column, l.line)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) identifier(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	return l.makeToken(token.Ident, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
}

func (l *Lexer) digits() bool {
	if !unicode.IsDigit(l.peek()) {
		return false
	}
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	return true
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) (token.Token, error) {
	l.digits()

	if l.match('.') {
		if !l.digits() {
			return token.Token{}, util.Errorf(l.here(), "Malformed number: expected a digit after '.'")
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !l.digits() {
			return token.Token{}, util.Errorf(l.here(), "Malformed number: exponent has no digits")
		}
	}

	return l.makeToken(token.Number, string(l.source[startPos:l.pos]), startPos, startCol, startLine), nil
}
