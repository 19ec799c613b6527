package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Ident
	Number
	LParen
	RParen
	Semi
	Comma
	Eq
	Plus
	Minus
	Star
	Slash
	Rem
	Pow
)

var typeNames = map[Type]string{
	EOF:    "end of input",
	Ident:  "identifier",
	Number: "number",
	LParen: "'('",
	RParen: "')'",
	Semi:   "';'",
	Comma:  "','",
	Eq:     "'='",
	Plus:   "'+'",
	Minus:  "'-'",
	Star:   "'*'",
	Slash:  "'/'",
	Rem:    "'%'",
	Pow:    "'**'",
}

// Operators maps operator tokens to their source spelling
var Operators = map[Type]string{
	Plus:  "+",
	Minus: "-",
	Star:  "*",
	Slash: "/",
	Rem:   "%",
	Pow:   "**",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Offset    int
	Line      int
	Column    int
	Len       int
}

// Location formats the position of the token the way every diagnostic prefixes it.
func (t Token) Location() string {
	return fmt.Sprintf("Line %d, col %d", t.Line, t.Column)
}
