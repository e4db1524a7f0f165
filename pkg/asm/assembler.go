package asm

import (
	"fmt"
	"slices"

	"nix/pkg/bytecode"
	"nix/pkg/stack"
)

// fixup is a jump or call whose label is resolved once every line is read
type fixup struct {
	index int      // token index in the program
	label string   // referenced label
	pos   Position // operand position for error reporting
}

type Assembler struct {
	lexer        *Lexer              // lexer instance
	currentToken Token               // current token
	pb           bytecode.Program    // program being built
	labels       map[string]int      // label name to instruction index
	fixups       []fixup             // unresolved label operands
	macros       map[string]int64    // macro name to id
	defined      map[string]bool     // macros with a definition
	macroPos     map[string]Position // first mention of each macro
	blocks       *stack.Stack[block] // open structural blocks
	errors       []string            // list of errors
}

// NewAssembler creates a new assembler instance
func NewAssembler(l *Lexer) *Assembler {
	a := &Assembler{
		lexer:    l,
		pb:       bytecode.Program{},
		labels:   make(map[string]int),
		macros:   make(map[string]int64),
		defined:  make(map[string]bool),
		macroPos: make(map[string]Position),
		blocks:   stack.NewStack[block](),
		errors:   []string{},
	}

	// Initialize current token
	a.nextToken()

	return a
}

// Assemble reads every line of the input and resolves labels
func (a *Assembler) Assemble() {
	for a.currentToken.Type != EOF {
		a.line()
	}

	a.closeBlocks()
	a.resolveLabels()
	a.checkMacros()
}

// line assembles a single `[label:] [mnemonic [operand]]` line
func (a *Assembler) line() {
	if a.currentToken.Type == NEWLINE {
		a.nextToken()
		return
	}

	if a.currentToken.Type == IDENT && a.lexer.Peek().Type == COLON {
		a.defineLabel(a.currentToken)
		a.nextToken() // label
		a.nextToken() // colon
	}

	switch a.currentToken.Type {
	case NEWLINE, EOF:
		// label on its own line
	case IDENT:
		if !a.instruction() {
			return
		}
	default:
		a.addError(fmt.Sprintf("Expected mnemonic, found %s %q", a.currentToken.Type, a.currentToken.Lexeme))
		a.skipLine()
		return
	}

	a.endLine()
}

// instruction assembles the mnemonic under the cursor and its operand.
// On failure the rest of the line has already been skipped.
func (a *Assembler) instruction() bool {
	mnemonic := a.currentToken
	op, ok := bytecode.LookupMnemonic(mnemonic.Lexeme)
	if !ok {
		a.addError(fmt.Sprintf("Unknown mnemonic `%s`", mnemonic.Lexeme))
		a.skipLine()
		return false
	}
	a.nextToken()

	tok, ok := a.operand(op)
	if !ok {
		a.skipLine()
		return false
	}

	a.nest(op, mnemonic.Pos)
	a.pb = append(a.pb, tok)
	return true
}

// defineLabel binds name to the index of the next instruction
func (a *Assembler) defineLabel(t Token) {
	if _, exists := a.labels[t.Lexeme]; exists {
		a.addError(fmt.Sprintf("Redefinition of label `%s`", t.Lexeme))
		return
	}
	if _, isOp := bytecode.LookupMnemonic(t.Lexeme); isOp {
		a.addError(fmt.Sprintf("Cannot use mnemonic `%s` as label", t.Lexeme))
		return
	}
	a.labels[t.Lexeme] = len(a.pb)
}

// resolveLabels patches every label operand with its instruction index
func (a *Assembler) resolveLabels() {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			a.addErrorAt(fmt.Sprintf("Undefined label `%s`", f.label), f.pos)
			continue
		}
		a.pb[f.index].Operand = bytecode.Int(int64(target))
	}
}

// checkMacros reports macros that are used but never defined
func (a *Assembler) checkMacros() {
	names := make([]string, 0, len(a.macroPos))
	for name := range a.macroPos {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !a.defined[name] {
			a.addErrorAt(fmt.Sprintf("Undefined macro `%s`", name), a.macroPos[name])
		}
	}
}

// endLine expects the end of the current line
func (a *Assembler) endLine() {
	switch a.currentToken.Type {
	case NEWLINE:
		a.nextToken()
	case EOF:
	default:
		a.addError(fmt.Sprintf("Unexpected %s %q", a.currentToken.Type, a.currentToken.Lexeme))
		a.skipLine()
	}
}

// skipLine drops the rest of the current line after an error
func (a *Assembler) skipLine() {
	for a.currentToken.Type != NEWLINE && a.currentToken.Type != EOF {
		a.nextToken()
	}
	if a.currentToken.Type == NEWLINE {
		a.nextToken()
	}
}

// nextToken advances to the next token from the lexer
func (a *Assembler) nextToken() {
	a.currentToken = a.lexer.NextToken()
}

// Program returns the assembled program
func (a *Assembler) Program() bytecode.Program {
	return a.pb
}

// Assemble assembles src in one call, failing when any line is invalid
func Assemble(src string) (bytecode.Program, error) {
	a := NewAssembler(NewLexer(src))
	a.Assemble()

	if errs := a.Errors(); len(errs) > 0 {
		return nil, &Error{Messages: errs}
	}

	return a.Program(), nil
}
