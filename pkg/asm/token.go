package asm

import "fmt"

type TokenType int

type Token struct {
	Type   TokenType // Type of the token
	Lexeme string    // Actual string from source code
	Pos    Position  // Position in source code
}

const (
	EOF     TokenType = iota // End of file
	NEWLINE                  // end of an instruction line

	IDENT  // mnemonic, label or kind keyword
	INT    // integer literal
	FLOAT  // floating point literal, trailing f for single precision
	CHAR   // 'c'
	STRING // "..."
	COLON  // :

	ILLEGAL // illegal token
)

var tokenNames = map[TokenType]string{
	EOF:     "end of input",
	NEWLINE: "end of line",
	IDENT:   "identifier",
	INT:     "integer",
	FLOAT:   "float",
	CHAR:    "char",
	STRING:  "string",
	COLON:   ":",
	ILLEGAL: "illegal",
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// String returns a string representation of the Token
func (t Token) String() string {
	return fmt.Sprintf("T_{%s, %q, %s}", t.Type, t.Lexeme, t.Pos)
}
