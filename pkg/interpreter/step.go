package interpreter

import (
	"fmt"
	"os"

	"nix/pkg/bytecode"
)

var literalKinds = map[bytecode.Opcode]bytecode.Kind{
	bytecode.OpIntType:    bytecode.KindInt,
	bytecode.OpFloatType:  bytecode.KindFloat,
	bytecode.OpDoubleType: bytecode.KindDouble,
	bytecode.OpCharType:   bytecode.KindChar,
}

var coreOps = func() map[bytecode.Opcode]bool {
	ops := []bytecode.Opcode{
		bytecode.OpStackPush, bytecode.OpStackPrev, bytecode.OpStackPop,
		bytecode.OpPlus, bytecode.OpMinus, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
		bytecode.OpEq, bytecode.OpNeq, bytecode.OpGt, bytecode.OpLt, bytecode.OpGeq, bytecode.OpLeq,
		bytecode.OpLogicalAnd, bytecode.OpLogicalOr,
		bytecode.OpIf, bytecode.OpElse, bytecode.OpElif, bytecode.OpThen, bytecode.OpEndIf,
		bytecode.OpWhile, bytecode.OpRunWhile, bytecode.OpEndWhile,
		bytecode.OpPrint, bytecode.OpPrintln, bytecode.OpJump,
		bytecode.OpAddVarToStackframe, bytecode.OpAssign, bytecode.OpVarUsage, bytecode.OpVarReassign,
		bytecode.OpHeapAlloc, bytecode.OpHeapFree, bytecode.OpPtrGetI, bytecode.OpPtrSetI,
		bytecode.OpIntType, bytecode.OpFloatType, bytecode.OpDoubleType, bytecode.OpCharType, bytecode.OpStrType,
		bytecode.OpMacroDef, bytecode.OpEndMacro, bytecode.OpMacroUsage,
		bytecode.OpFuncDef, bytecode.OpFuncCall, bytecode.OpFuncRet,
		bytecode.OpScopeEnter, bytecode.OpScopeExit,
	}
	m := make(map[bytecode.Opcode]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}()

// isCore reports whether the engine implements op itself
func isCore(op bytecode.Opcode) bool {
	return coreOps[op]
}

// coreStep is the main single-step execution function
// it returns (halted, error).
func coreStep(i *Interpreter) (bool, error) {
	pc := i.ip
	if pc < 0 || pc >= len(i.pb) {
		// halt once the pointer leaves the program
		return true, nil
	}

	tok := i.pb[pc]
	i.ip = pc + 1

	switch tok.Op {
	case bytecode.OpStackPush:
		return false, i.stack.Push(tok.Operand)

	case bytecode.OpStackPrev:
		v, err := i.stack.Peek(int(tok.Operand.AsInt()))
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(v)

	case bytecode.OpStackPop:
		_, err := i.stack.Pop()
		return false, err

	case bytecode.OpPlus, bytecode.OpMinus, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
		bytecode.OpEq, bytecode.OpNeq, bytecode.OpGt, bytecode.OpLt, bytecode.OpGeq, bytecode.OpLeq,
		bytecode.OpLogicalAnd, bytecode.OpLogicalOr:
		left, right, err := i.stack.pop2()
		if err != nil {
			return false, err
		}
		res, err := evalBinary(tok.Op, left, right)
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(res)

	case bytecode.OpIntType, bytecode.OpFloatType, bytecode.OpDoubleType, bytecode.OpCharType:
		kind := literalKinds[tok.Op]
		v, ok := tok.Operand.Convert(kind)
		if !ok {
			return false, faultf(ErrInvalidDataType, "%s immediate cannot be %s", kind, tok.Operand)
		}
		return false, i.stack.Push(v)

	case bytecode.OpStrType:
		h, err := i.heap.StoreString(tok.Text)
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(h)

	case bytecode.OpIf:
		cond, err := i.popCond()
		if err != nil {
			return false, err
		}
		i.branches.Push(branch{pos: pc, taken: cond, calls: i.calls.Size()})
		if !cond {
			return false, i.skipBranch(pc)
		}
		return false, nil

	case bytecode.OpThen:
		cond, err := i.popCond()
		if err != nil {
			return false, err
		}
		if cond {
			b, ok := i.branches.Peek()
			if !ok {
				return false, faultf(ErrInvalidStackAccess, "then outside of a conditional")
			}
			b.taken = true
			i.branches.Set(b)
			return false, nil
		}
		return false, i.skipBranch(pc)

	case bytecode.OpElif, bytecode.OpElse:
		b, ok := i.branches.Peek()
		if !ok {
			return false, faultf(ErrInvalidStackAccess, "%s outside of a conditional", tok.Op)
		}
		if b.taken {
			// an earlier branch ran; nothing else in this conditional may
			end, err := endIf(i.pb, pc)
			if err != nil {
				return false, err
			}
			i.branches.Pop()
			i.ip = end + 1
			return false, nil
		}
		if tok.Op == bytecode.OpElif {
			return false, i.skipBranch(pc)
		}
		return false, nil

	case bytecode.OpEndIf:
		if _, ok := i.branches.Pop(); !ok {
			return false, faultf(ErrInvalidStackAccess, "endif outside of a conditional")
		}
		return false, nil

	case bytecode.OpRunWhile:
		return false, nil

	case bytecode.OpWhile:
		cond, err := i.popCond()
		if err != nil {
			return false, err
		}
		if !cond {
			end, err := loopExit(i.pb, pc)
			if err != nil {
				return false, err
			}
			i.ip = end + 1
		}
		return false, nil

	case bytecode.OpEndWhile:
		head, err := loopHead(i.pb, pc)
		if err != nil {
			return false, err
		}
		i.ip = head + 1
		return false, nil

	case bytecode.OpPrint, bytecode.OpPrintln:
		// ensure writer
		if i.out == nil {
			i.out = os.Stdout
		}
		v, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		s, err := i.format(v)
		if err != nil {
			return false, err
		}
		if tok.Op == bytecode.OpPrintln {
			_, err = fmt.Fprintln(i.out, s)
		} else {
			_, err = fmt.Fprint(i.out, s)
		}
		return false, err

	case bytecode.OpJump:
		target, err := i.target(tok)
		if err != nil {
			return false, err
		}
		if err := i.leaveBranches(target); err != nil {
			return false, err
		}
		i.ip = target
		return false, nil

	case bytecode.OpAddVarToStackframe:
		_, err := i.frame.Bind(bytecode.Int(0))
		return false, err

	case bytecode.OpAssign:
		v, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		return false, i.frame.Reassign(v)

	case bytecode.OpVarUsage:
		v, err := i.frame.Load(i.slot(tok))
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(v)

	case bytecode.OpVarReassign:
		v, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		return false, i.frame.Store(i.slot(tok), v)

	case bytecode.OpHeapAlloc:
		size, err := i.popInt()
		if err != nil {
			return false, err
		}
		h, err := i.heap.Allocate(tok.Operand.Kind, int(size))
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(h)

	case bytecode.OpHeapFree:
		h, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		return false, i.heap.Release(h)

	case bytecode.OpPtrGetI:
		idx, err := i.popInt()
		if err != nil {
			return false, err
		}
		h, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		v, err := i.heap.ReadIndexed(h, int(idx))
		if err != nil {
			return false, err
		}
		return false, i.stack.Push(v)

	case bytecode.OpPtrSetI:
		v, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		idx, err := i.popInt()
		if err != nil {
			return false, err
		}
		h, err := i.stack.Pop()
		if err != nil {
			return false, err
		}
		return false, i.heap.WriteIndexed(h, int(idx), v)

	case bytecode.OpFuncDef:
		// reached by falling through: skip the body
		end, err := matchForward(i.pb, pc, bytecode.OpFuncDef, bytecode.OpFuncRet)
		if err != nil {
			return false, err
		}
		i.ip = end + 1
		return false, nil

	case bytecode.OpFuncCall:
		target, err := i.target(tok)
		if err != nil {
			return false, err
		}
		if i.pb[target].Op != bytecode.OpFuncDef {
			return false, faultf(ErrInvalidJump, "call target %d is %s, not func", target, i.pb[target].Op)
		}
		return false, i.call(target)

	case bytecode.OpFuncRet, bytecode.OpEndMacro:
		return false, i.ret()

	case bytecode.OpMacroDef:
		end, err := matchForward(i.pb, pc, bytecode.OpMacroDef, bytecode.OpEndMacro)
		if err != nil {
			return false, err
		}
		i.ip = end + 1
		return false, nil

	case bytecode.OpMacroUsage:
		pos, ok := i.macros[tok.Operand.AsInt()]
		if !ok {
			return false, faultf(ErrInvalidJump, "macro %d is not defined", tok.Operand.AsInt())
		}
		return false, i.call(pos)

	case bytecode.OpScopeEnter:
		i.frame.EnterScope()
		return false, nil

	case bytecode.OpScopeExit:
		return false, i.frame.ExitScope()

	default:
		h, ok := i.handlers[tok.Op]
		if !ok {
			return false, faultf(ErrIllegalInstruction, "no handler registered for %s", tok.Op)
		}
		return false, h(i, tok)
	}
}

// skipBranch moves past the next sibling of the conditional token at pos,
// closing the conditional when that sibling is its EndIf.
func (i *Interpreter) skipBranch(pos int) error {
	next, err := nextBranch(i.pb, pos)
	if err != nil {
		return err
	}
	if i.pb[next].Op == bytecode.OpEndIf {
		i.branches.Pop()
	}
	i.ip = next + 1
	return nil
}

// target validates the jump target carried by tok
func (i *Interpreter) target(tok bytecode.Token) (int, error) {
	if tok.Operand.Handle || tok.Operand.Kind != bytecode.KindInt {
		return 0, faultf(ErrInvalidDataType, "jump target must be an int, got %s", tok.Operand)
	}
	t := tok.Operand.AsInt()
	if t < 0 || t >= int64(len(i.pb)) {
		return 0, faultf(ErrInvalidJump, "target %d outside program of %d instructions", t, len(i.pb))
	}
	return int(t), nil
}

// slot resolves a variable operand; negative means the latest binding
func (i *Interpreter) slot(tok bytecode.Token) int {
	if s := tok.Operand.AsInt(); s >= 0 {
		return int(s)
	}
	return i.frame.Len() - 1
}

func (i *Interpreter) popCond() (bool, error) {
	v, err := i.stack.Pop()
	if err != nil {
		return false, err
	}
	b, err := v.Truthy()
	if err != nil {
		return false, faultf(ErrInvalidDataType, "%v", err)
	}
	return b, nil
}

func (i *Interpreter) popInt() (int64, error) {
	v, err := i.stack.Pop()
	if err != nil {
		return 0, err
	}
	if v.Handle || (v.Kind != bytecode.KindInt && v.Kind != bytecode.KindChar) {
		return 0, faultf(ErrInvalidDataType, "expected an int, got %s", v)
	}
	n, _ := v.Convert(bytecode.KindInt)
	return n.AsInt(), nil
}

// format renders a popped value for print; Str handles print their bytes
func (i *Interpreter) format(v bytecode.Value) (string, error) {
	if v.Handle {
		data, kind, err := i.heap.Bytes(v)
		if err != nil {
			return "", err
		}
		if kind == bytecode.KindStr {
			return string(data), nil
		}
		return v.String(), nil
	}

	if !v.Kind.Numeric() {
		return "", faultf(ErrInvalidDataType, "cannot print a bare %s", v.Kind)
	}
	return v.String(), nil
}
