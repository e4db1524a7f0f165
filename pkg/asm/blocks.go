package asm

import (
	"fmt"

	"nix/pkg/bytecode"
)

// block stages
const (
	stageOpen    = iota // if body, or loop condition
	stageElif           // elif condition, waiting for then
	stageThen           // elif body, or loop body
	stageElse           // else body
)

// block is an open structural construct
type block struct {
	op    bytecode.Opcode
	pos   Position
	stage int
}

var closers = map[bytecode.Opcode]bytecode.Opcode{
	bytecode.OpIf:         bytecode.OpEndIf,
	bytecode.OpRunWhile:   bytecode.OpEndWhile,
	bytecode.OpFuncDef:    bytecode.OpFuncRet,
	bytecode.OpMacroDef:   bytecode.OpEndMacro,
	bytecode.OpScopeEnter: bytecode.OpScopeExit,
}

// nest tracks structural nesting for op found at pos
func (a *Assembler) nest(op bytecode.Opcode, pos Position) {
	switch op {
	case bytecode.OpIf, bytecode.OpRunWhile, bytecode.OpFuncDef,
		bytecode.OpMacroDef, bytecode.OpScopeEnter:
		a.blocks.Push(block{op: op, pos: pos})

	case bytecode.OpElif:
		if b, ok := a.inside(op, bytecode.OpIf, pos); ok {
			switch b.stage {
			case stageElif:
				a.addErrorAt("`elif` without `then`", pos)
			case stageElse:
				a.addErrorAt("`elif` after `else`", pos)
			default:
				a.advanceStage(b, stageElif)
			}
		}

	case bytecode.OpThen:
		if b, ok := a.inside(op, bytecode.OpIf, pos); ok {
			if b.stage != stageElif {
				a.addErrorAt("`then` without `elif`", pos)
				return
			}
			a.advanceStage(b, stageThen)
		}

	case bytecode.OpElse:
		if b, ok := a.inside(op, bytecode.OpIf, pos); ok {
			switch b.stage {
			case stageElif:
				a.addErrorAt("`elif` without `then`", pos)
			case stageElse:
				a.addErrorAt("Duplicate `else`", pos)
			default:
				a.advanceStage(b, stageElse)
			}
		}

	case bytecode.OpWhile:
		if b, ok := a.inside(op, bytecode.OpRunWhile, pos); ok {
			if b.stage != stageOpen {
				a.addErrorAt("Duplicate `while`", pos)
				return
			}
			a.advanceStage(b, stageThen)
		}

	case bytecode.OpEndIf:
		if b, ok := a.inside(op, bytecode.OpIf, pos); ok {
			if b.stage == stageElif {
				a.addErrorAt("`elif` without `then`", pos)
			}
			a.blocks.Pop()
		}

	case bytecode.OpEndWhile:
		if b, ok := a.inside(op, bytecode.OpRunWhile, pos); ok {
			if b.stage != stageThen {
				a.addErrorAt("`runwhile` without `while`", b.pos)
			}
			a.blocks.Pop()
		}

	case bytecode.OpFuncRet, bytecode.OpEndMacro, bytecode.OpScopeExit:
		for opener, closer := range closers {
			if closer == op {
				if _, ok := a.inside(op, opener, pos); ok {
					a.blocks.Pop()
				}
				return
			}
		}
	}
}

// inside checks that the innermost open block was opened by want
func (a *Assembler) inside(op, want bytecode.Opcode, pos Position) (block, bool) {
	b, ok := a.blocks.Peek()
	if !ok {
		a.addErrorAt(fmt.Sprintf("`%s` without `%s`", op, want), pos)
		return b, false
	}

	if b.op != want {
		a.addErrorAt(fmt.Sprintf("`%s` inside `%s` opened at %s", op, b.op, b.pos), pos)
		return b, false
	}

	return b, true
}

func (a *Assembler) advanceStage(b block, stage int) {
	b.stage = stage
	a.blocks.Set(b)
}

// closeBlocks reports every block still open at the end of input
func (a *Assembler) closeBlocks() {
	for {
		b, ok := a.blocks.Pop()
		if !ok {
			return
		}
		a.addErrorAt(fmt.Sprintf("Unclosed `%s`, expected `%s`", b.op, closers[b.op]), b.pos)
	}
}
