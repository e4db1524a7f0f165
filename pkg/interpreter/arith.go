package interpreter

import (
	"cmp"

	"nix/pkg/bytecode"
)

// evalBinary applies op to left and right. The left operand's kind decides
// the arithmetic; the right one is converted to it first.
func evalBinary(op bytecode.Opcode, a, b bytecode.Value) (bytecode.Value, error) {
	if a.Handle || b.Handle || !a.Kind.Numeric() || !b.Kind.Numeric() {
		if op == bytecode.OpPlus && (a.Kind == bytecode.KindStr || b.Kind == bytecode.KindStr) {
			return bytecode.Value{}, faultf(ErrInvalidDataType, "plus does not concatenate strings")
		}
		return bytecode.Value{}, faultf(ErrInvalidDataType, "%s does not apply to %s and %s", op, a, b)
	}

	switch op {
	case bytecode.OpLogicalAnd, bytecode.OpLogicalOr:
		x, _ := a.Truthy()
		y, _ := b.Truthy()
		if op == bytecode.OpLogicalAnd {
			return bytecode.Bool(x && y), nil
		}
		return bytecode.Bool(x || y), nil
	}

	b, _ = b.Convert(a.Kind)

	switch a.Kind {
	case bytecode.KindInt:
		x, y := a.AsInt(), b.AsInt()
		if op == bytecode.OpMod {
			if y == 0 {
				return bytecode.Value{}, faultf(ErrInvalidDataType, "modulo by zero")
			}
			return bytecode.Int(x % y), nil
		}
		if isComparison(op) {
			return bytecode.Bool(compare(op, x, y)), nil
		}
		r, err := arithmetic(op, x, y)
		return bytecode.Int(r), err

	case bytecode.KindChar:
		x, y := a.AsChar(), b.AsChar()
		if op == bytecode.OpMod {
			if y == 0 {
				return bytecode.Value{}, faultf(ErrInvalidDataType, "modulo by zero")
			}
			return bytecode.Char(x % y), nil
		}
		if isComparison(op) {
			return bytecode.Bool(compare(op, x, y)), nil
		}
		r, err := arithmetic(op, x, y)
		return bytecode.Char(r), err

	case bytecode.KindFloat:
		x, y := a.AsFloat(), b.AsFloat()
		if op == bytecode.OpMod {
			return bytecode.Value{}, faultf(ErrInvalidDataType, "modulo is undefined for float")
		}
		if isComparison(op) {
			return bytecode.Bool(compare(op, x, y)), nil
		}
		r, err := arithmetic(op, x, y)
		return bytecode.Float(r), err

	default:
		x, y := a.AsDouble(), b.AsDouble()
		if op == bytecode.OpMod {
			return bytecode.Value{}, faultf(ErrInvalidDataType, "modulo is undefined for double")
		}
		if isComparison(op) {
			return bytecode.Bool(compare(op, x, y)), nil
		}
		r, err := arithmetic(op, x, y)
		return bytecode.Double(r), err
	}
}

func isComparison(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OpEq, bytecode.OpNeq, bytecode.OpGt, bytecode.OpLt, bytecode.OpGeq, bytecode.OpLeq:
		return true
	default:
		return false
	}
}

func arithmetic[T int64 | int32 | float32 | float64](op bytecode.Opcode, x, y T) (T, error) {
	switch op {
	case bytecode.OpPlus:
		return x + y, nil
	case bytecode.OpMinus:
		return x - y, nil
	case bytecode.OpMul:
		return x * y, nil
	case bytecode.OpDiv:
		if y == 0 {
			return 0, faultf(ErrInvalidDataType, "division by zero")
		}
		return x / y, nil
	}
	return 0, faultf(ErrIllegalInstruction, "%s is not an arithmetic operator", op)
}

func compare[T cmp.Ordered](op bytecode.Opcode, x, y T) bool {
	switch op {
	case bytecode.OpEq:
		return x == y
	case bytecode.OpNeq:
		return x != y
	case bytecode.OpGt:
		return x > y
	case bytecode.OpLt:
		return x < y
	case bytecode.OpGeq:
		return x >= y
	default:
		return x <= y
	}
}
