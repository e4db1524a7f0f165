package asm

import (
	"regexp"
)

// Token regex patterns
var tokenRegexes = map[TokenType]*regexp.Regexp{
	FLOAT:  regexp.MustCompile(`^[+-]?(\d+\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+)f?`),
	INT:    regexp.MustCompile(`^[+-]?\d+`),
	CHAR:   regexp.MustCompile(`^'([^'\\\n]|\\[^\n]+?)'`),
	STRING: regexp.MustCompile(`^"([^"\\\n]|\\.)*"`),
	IDENT:  regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*`),
	COLON:  regexp.MustCompile(`^:`),
}

var (
	blankRegex   = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex = regexp.MustCompile(`^(//|#)[^\n]*`)
)

// Token precedence order for matching (floats before the integer prefix they start with)
var tokenPrecedenceOrder = []TokenType{
	FLOAT, INT, CHAR, STRING, IDENT, COLON,
}

// Match the first token at the start of the string
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if s[0] == '\n' {
		return NEWLINE, "\n", true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if match := tokenRegexes[tokenType].FindString(s); match != "" {
			return tokenType, match, true
		}
	}

	return ILLEGAL, string(s[0]), false
}
