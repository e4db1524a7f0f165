package interpreter_test

import (
	"bytes"
	"errors"
	"testing"

	"nix/pkg/bytecode"
	"nix/pkg/interpreter"
)

func op(o bytecode.Opcode) bytecode.Token {
	return bytecode.Token{Op: o}
}

func with(o bytecode.Opcode, v bytecode.Value) bytecode.Token {
	return bytecode.Token{Op: o, Operand: v}
}

func pushInt(n int64) bytecode.Token {
	return with(bytecode.OpIntType, bytecode.Int(n))
}

func pushDouble(f float64) bytecode.Token {
	return with(bytecode.OpDoubleType, bytecode.Double(f))
}

func pushChar(c rune) bytecode.Token {
	return with(bytecode.OpCharType, bytecode.Char(c))
}

func pushStr(s string) bytecode.Token {
	return bytecode.Token{Op: bytecode.OpStrType, Text: s}
}

func slot(o bytecode.Opcode, n int64) bytecode.Token {
	return with(o, bytecode.Int(n))
}

// run executes pb and returns everything it printed
func run(t *testing.T, pb bytecode.Program, opts ...interpreter.Option) (*interpreter.Interpreter, string, error) {
	t.Helper()
	var out bytes.Buffer
	it := interpreter.NewInterpreter(pb, append(opts, interpreter.WithWriter(&out))...)
	err := it.Run()
	return it, out.String(), err
}

func expectOutput(t *testing.T, pb bytecode.Program, expected string) *interpreter.Interpreter {
	t.Helper()
	it, out, err := run(t, pb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != expected {
		t.Errorf("expected output %q, got %q", expected, out)
	}
	return it
}

func expectFault(t *testing.T, err error, fault *interpreter.Fault) {
	t.Helper()
	if !errors.Is(err, fault) {
		t.Fatalf("expected %s, got %v", fault.Name, err)
	}
}
