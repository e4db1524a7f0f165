package asm

import "fmt"

// Position locates a token in assembly source
type Position struct {
	Line   int
	Column int
	Offset int
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("Line: %d, Column %d", p.Line, p.Column)
}
