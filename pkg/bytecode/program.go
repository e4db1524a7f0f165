package bytecode

import (
	"fmt"
	"strconv"
)

// Token is one instruction plus its immediate operand. Text carries the
// literal bytes of a StrType immediate.
type Token struct {
	Op      Opcode `cbor:"1,keyasint"`
	Operand Value  `cbor:"2,keyasint"`
	Text    string `cbor:"3,keyasint,omitempty"`
}

// String returns a string representation of the token
func (t Token) String() string {
	if arg := t.OperandString(); arg != "" {
		return fmt.Sprintf("(%s, %s)", t.Op, arg)
	}
	return fmt.Sprintf("(%s)", t.Op)
}

// OperandString renders the immediate for listings, or "" when the opcode
// takes none.
func (t Token) OperandString() string {
	switch {
	case t.Op == OpStrType:
		return strconv.Quote(t.Text)
	case t.Op == OpHeapAlloc:
		return t.Operand.Kind.String()
	case t.takesOperand():
		return t.Operand.String()
	default:
		return ""
	}
}

func (t Token) takesOperand() bool {
	switch t.Op {
	case OpStackPush, OpStackPrev, OpJump, OpVarUsage, OpVarReassign,
		OpIntType, OpFloatType, OpDoubleType, OpCharType,
		OpFuncCall, OpMacroDef, OpMacroUsage:
		return true
	default:
		return false
	}
}

// Program is the ordered token sequence the engine executes. It is never
// modified while running.
type Program []Token

// Clone returns a copy that shares nothing with p
func (p Program) Clone() Program {
	return append(Program(nil), p...)
}
