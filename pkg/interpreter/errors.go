package interpreter

import (
	"errors"
	"fmt"

	"nix/pkg/bytecode"
)

// Fault is one kind of fatal runtime error. Components wrap a Fault with
// detail using %w so callers can match it with errors.Is.
type Fault struct {
	Code int
	Name string
}

func (f *Fault) Error() string {
	return f.Name
}

var (
	ErrStackOverflow         = &Fault{Code: 0, Name: "StackOverflow"}
	ErrStackUnderflow        = &Fault{Code: 1, Name: "StackUnderflow"}
	ErrInvalidJump           = &Fault{Code: 2, Name: "InvalidJump"}
	ErrInvalidStackAccess    = &Fault{Code: 3, Name: "InvalidStackAccess"}
	ErrInvalidDataType       = &Fault{Code: 4, Name: "InvalidDataType"}
	ErrIllegalInstruction    = &Fault{Code: 5, Name: "IllegalInstruction"}
	ErrInvalidPointer        = &Fault{Code: 7, Name: "InvalidPointer"}
	ErrInvalidTableOperation = &Fault{Code: 8, Name: "InvalidTableOperation"}
)

// ExecError reports the instruction a fault halted the program at.
type ExecError struct {
	PC  int
	Op  bytecode.Opcode
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s at %d: %v", e.Op, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// FaultOf extracts the fault kind carried by err, if any
func FaultOf(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func faultf(f *Fault, format string, args ...any) error {
	return fmt.Errorf("%w: %s", f, fmt.Sprintf(format, args...))
}

var ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
