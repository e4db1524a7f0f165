package asm

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
		column:   1,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipBlanks()

	// End of input
	if l.position >= l.length {
		return Token{Type: EOF, Pos: l.currentPosition()}
	}

	pos := l.currentPosition()
	tokenType, lexeme, matched := MatchToken(l.input[l.position:])
	if !matched {
		l.advance(1)
		return Token{Type: ILLEGAL, Lexeme: lexeme, Pos: pos}
	}

	l.advance(len(lexeme))
	return Token{Type: tokenType, Lexeme: lexeme, Pos: pos}
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	// save state
	cpos := l.position
	cline := l.line
	ccol := l.column

	token := l.NextToken()

	// restore state
	l.position = cpos
	l.line = cline
	l.column = ccol

	return token
}

// Skip blanks and comments; newlines are tokens
func (l *Lexer) skipBlanks() {
	for l.position < l.length {
		rest := l.input[l.position:]
		if m := blankRegex.FindString(rest); m != "" {
			l.advance(len(m))
		} else if m := commentRegex.FindString(rest); m != "" {
			l.advance(len(m))
		} else {
			break
		}
	}
}

// Advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
