package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"nix/pkg/bytecode"
)

// operand reads the immediate op expects and builds its token
func (a *Assembler) operand(op bytecode.Opcode) (bytecode.Token, bool) {
	tok := bytecode.Token{Op: op}

	switch op {
	case bytecode.OpStackPush, bytecode.OpIntType, bytecode.OpFloatType,
		bytecode.OpDoubleType, bytecode.OpCharType:
		v, ok := a.literal(op)
		tok.Operand = v
		return tok, ok

	case bytecode.OpStackPrev:
		v, ok := a.optionalInt(0)
		tok.Operand = v
		return tok, ok

	case bytecode.OpVarUsage, bytecode.OpVarReassign:
		// no slot means the latest binding
		v, ok := a.optionalInt(-1)
		tok.Operand = v
		return tok, ok

	case bytecode.OpStrType:
		if a.currentToken.Type != STRING {
			a.addError(fmt.Sprintf("`%s` expects a string literal", op))
			return tok, false
		}
		text, err := strconv.Unquote(a.currentToken.Lexeme)
		if err != nil {
			a.addError(fmt.Sprintf("Malformed string literal %s", a.currentToken.Lexeme))
			return tok, false
		}
		tok.Text = text
		a.nextToken()
		return tok, true

	case bytecode.OpJump, bytecode.OpFuncCall:
		return a.target(tok)

	case bytecode.OpHeapAlloc:
		if a.currentToken.Type != IDENT {
			a.addError(fmt.Sprintf("`%s` expects a kind", op))
			return tok, false
		}
		kind, ok := bytecode.ParseKind(a.currentToken.Lexeme)
		if !ok {
			a.addError(fmt.Sprintf("Unknown kind `%s`", a.currentToken.Lexeme))
			return tok, false
		}
		tok.Operand = bytecode.Value{Kind: kind}
		a.nextToken()
		return tok, true

	case bytecode.OpMacroDef, bytecode.OpMacroUsage:
		return a.macro(tok)
	}

	if a.hasOperand() {
		a.addError(fmt.Sprintf("`%s` takes no operand", op))
		return tok, false
	}

	return tok, true
}

// literal parses an int, float or char immediate
func (a *Assembler) literal(op bytecode.Opcode) (bytecode.Value, bool) {
	t := a.currentToken

	var (
		v   bytecode.Value
		err error
	)

	switch t.Type {
	case INT:
		var i int64
		i, err = strconv.ParseInt(t.Lexeme, 10, 64)
		v = bytecode.Int(i)
	case FLOAT:
		if s, single := strings.CutSuffix(t.Lexeme, "f"); single {
			var f float64
			f, err = strconv.ParseFloat(s, 32)
			v = bytecode.Float(float32(f))
		} else {
			var f float64
			f, err = strconv.ParseFloat(s, 64)
			v = bytecode.Double(f)
		}
	case CHAR:
		var r rune
		r, err = parseChar(t.Lexeme)
		v = bytecode.Char(r)
	default:
		a.addError(fmt.Sprintf("`%s` expects a literal, found %s", op, t.Type))
		return v, false
	}

	if err != nil {
		a.addError(fmt.Sprintf("Malformed literal %s", t.Lexeme))
		return v, false
	}

	a.nextToken()
	return v, true
}

// optionalInt parses an integer immediate, using def when the line ends
func (a *Assembler) optionalInt(def int64) (bytecode.Value, bool) {
	if !a.hasOperand() {
		return bytecode.Int(def), true
	}

	if a.currentToken.Type != INT {
		a.addError(fmt.Sprintf("Expected integer, found %s", a.currentToken.Type))
		return bytecode.Value{}, false
	}

	i, err := strconv.ParseInt(a.currentToken.Lexeme, 10, 64)
	if err != nil {
		a.addError(fmt.Sprintf("Malformed literal %s", a.currentToken.Lexeme))
		return bytecode.Value{}, false
	}

	a.nextToken()
	return bytecode.Int(i), true
}

// target parses a label or an absolute instruction index
func (a *Assembler) target(tok bytecode.Token) (bytecode.Token, bool) {
	switch a.currentToken.Type {
	case IDENT:
		a.fixups = append(a.fixups, fixup{
			index: len(a.pb),
			label: a.currentToken.Lexeme,
			pos:   a.currentToken.Pos,
		})
	case INT:
		i, err := strconv.ParseInt(a.currentToken.Lexeme, 10, 64)
		if err != nil {
			a.addError(fmt.Sprintf("Malformed literal %s", a.currentToken.Lexeme))
			return tok, false
		}
		tok.Operand = bytecode.Int(i)
	default:
		a.addError(fmt.Sprintf("`%s` expects a label", tok.Op))
		return tok, false
	}

	a.nextToken()
	return tok, true
}

// macro parses a macro name, numbering names by first appearance
func (a *Assembler) macro(tok bytecode.Token) (bytecode.Token, bool) {
	if a.currentToken.Type != IDENT {
		a.addError(fmt.Sprintf("`%s` expects a macro name", tok.Op))
		return tok, false
	}

	name := a.currentToken.Lexeme
	id, ok := a.macros[name]
	if !ok {
		id = int64(len(a.macros))
		a.macros[name] = id
		a.macroPos[name] = a.currentToken.Pos
	}

	if tok.Op == bytecode.OpMacroDef {
		if a.defined[name] {
			a.addError(fmt.Sprintf("Redefinition of macro `%s`", name))
			return tok, false
		}
		a.defined[name] = true
	}

	tok.Operand = bytecode.Int(id)
	a.nextToken()
	return tok, true
}

// hasOperand reports whether anything follows the mnemonic on this line
func (a *Assembler) hasOperand() bool {
	return a.currentToken.Type != NEWLINE && a.currentToken.Type != EOF
}

// parseChar decodes a quoted character literal such as 'a' or '\n'
func parseChar(lexeme string) (rune, error) {
	s, err := strconv.Unquote(lexeme)
	if err != nil {
		return 0, err
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid char literal %s", lexeme)
	}

	return r, nil
}
