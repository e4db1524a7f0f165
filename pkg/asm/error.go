package asm

import (
	"fmt"
	"strings"
)

// Error collects every message of a failed assembly
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0]
	}
	return fmt.Sprintf("assembly failed with %d errors:\n%s", len(e.Messages), strings.Join(e.Messages, "\n"))
}

// addError records an assembly error at the current token
func (a *Assembler) addError(msg string) {
	a.addErrorAt(msg, a.currentToken.Pos)
}

// addErrorAt records an assembly error with location
func (a *Assembler) addErrorAt(msg string, pos Position) {
	a.errors = append(a.errors, fmt.Sprintf("%s at %s", msg, pos))
}

// Errors returns the list of assembly errors
func (a *Assembler) Errors() []string {
	return a.errors
}
