package asm_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"nix/pkg/asm"
	"nix/pkg/bytecode"
	"nix/pkg/interpreter"
)

// execute assembles src, runs it and returns what it printed
func execute(t *testing.T, src string) string {
	t.Helper()

	pb, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	var out bytes.Buffer
	if err := interpreter.NewInterpreter(pb, interpreter.WithWriter(&out)).Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	return out.String()
}

func TestAssembleOperands(t *testing.T) {
	src := `
push 3
push -2.5
push 1.5f
push 'x'
str "a\tb"
alloc char
prev
prev 2
load
store 1
plus
`
	pb, err := asm.Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	expected := bytecode.Program{
		{Op: bytecode.OpStackPush, Operand: bytecode.Int(3)},
		{Op: bytecode.OpStackPush, Operand: bytecode.Double(-2.5)},
		{Op: bytecode.OpStackPush, Operand: bytecode.Float(1.5)},
		{Op: bytecode.OpStackPush, Operand: bytecode.Char('x')},
		{Op: bytecode.OpStrType, Text: "a\tb"},
		{Op: bytecode.OpHeapAlloc, Operand: bytecode.Value{Kind: bytecode.KindChar}},
		{Op: bytecode.OpStackPrev, Operand: bytecode.Int(0)},
		{Op: bytecode.OpStackPrev, Operand: bytecode.Int(2)},
		{Op: bytecode.OpVarUsage, Operand: bytecode.Int(-1)},
		{Op: bytecode.OpVarReassign, Operand: bytecode.Int(1)},
		{Op: bytecode.OpPlus},
	}

	if len(pb) != len(expected) {
		t.Fatalf("expected %d instructions, got %d: %v", len(expected), len(pb), pb)
	}
	for i := range expected {
		if pb[i] != expected[i] {
			t.Errorf("instruction %d: expected %s, got %s", i, expected[i], pb[i])
		}
	}
}

func TestLabels(t *testing.T) {
	src := `
    jump skip
    push 1
    println
skip:
    push 2
    println
end:
`
	pb, err := asm.Assemble(src)
	if err != nil {
		t.Fatal(err)
	}
	if target := pb[0].Operand.AsInt(); target != 3 {
		t.Errorf("expected jump to 3, got %d", target)
	}

	if out := execute(t, src); out != "2\n" {
		t.Errorf("expected %q, got %q", "2\n", out)
	}
}

func TestProgramsRun(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name: "arithmetic",
			src: `
int 40
int 2
plus
println`,
			expected: "42\n",
		},
		{
			name: "elif chain",
			src: `
int 0
if
    char 'a'
    print
elif
    int 1
then
    char 'b'
    print
else
    char 'c'
    print
endif`,
			expected: "b",
		},
		{
			name: "countdown",
			src: `
    int 3
    var
    assign          # n
runwhile
    load 0
    int 0
    gt
while
    load 0
    println
    load 0
    int 1
    minus
    store 0
endwhile`,
			expected: "3\n2\n1\n",
		},
		{
			name: "functions",
			src: `
square: func
    prev
    mul
    ret

    int 9
    call square
    println`,
			expected: "81\n",
		},
		{
			name: "macros",
			src: `
usemacro bang
defmacro bang
    char '!'
    print
endmacro
usemacro bang`,
			expected: "!!",
		},
		{
			name: "strings",
			src: `
str "hello"
println`,
			expected: "hello\n",
		},
		{
			name: "heap",
			src: `
int 2
alloc int
prev
int 1
int 99
setp
int 1
getp
println`,
			expected: "99\n",
		},
	}

	for _, test := range tests {
		if out := execute(t, test.src); out != test.expected {
			t.Errorf("%s: expected %q, got %q", test.name, test.expected, out)
		}
	}
}

func TestAssemblyErrors(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"bogus", "Unknown mnemonic `bogus` at Line: 1, Column 1"},
		{"push", "`push` expects a literal"},
		{"pop 1", "`pop` takes no operand"},
		{"str 1", "`str` expects a string literal"},
		{"alloc list", "Unknown kind `list`"},
		{"jump nowhere", "Undefined label `nowhere` at Line: 1, Column 6"},
		{"a:\na:", "Redefinition of label `a` at Line: 2, Column 1"},
		{"int 1\nif", "Unclosed `if`, expected `endif` at Line: 2, Column 1"},
		{"endif", "`endif` without `if`"},
		{"int 1\nif\nelse\nelif\nint 1\nthen\nendif", "`elif` after `else` at Line: 4, Column 1"},
		{"int 1\nif\nelif\nendif", "`elif` without `then`"},
		{"runwhile\nint 1\nif\nendwhile", "`endwhile` inside `if` opened at Line: 3, Column 1"},
		{"runwhile\nendwhile", "`runwhile` without `while`"},
		{"usemacro nope", "Undefined macro `nope`"},
		{"defmacro m\nendmacro\ndefmacro m\nendmacro", "Redefinition of macro `m`"},
		{`push '\q'`, `Malformed literal '\q'`},
		{"push 'ab'", "`push` expects a literal, found illegal"},
		{"push 1 2", "Unexpected integer \"2\""},
	}

	for _, test := range tests {
		_, err := asm.Assemble(test.src)
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}

		var asmErr *asm.Error
		if !errors.As(err, &asmErr) {
			t.Fatalf("%q: expected *asm.Error, got %T", test.src, err)
		}
		if !strings.Contains(err.Error(), test.expected) {
			t.Errorf("%q: expected error containing %q, got %q", test.src, test.expected, err)
		}
	}
}

func TestErrorsAreCollected(t *testing.T) {
	a := asm.NewAssembler(asm.NewLexer("bogus\npop 1\npush 1\nfoo"))
	a.Assemble()

	if n := len(a.Errors()); n != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", n, a.Errors())
	}
	if pb := a.Program(); len(pb) != 1 || pb[0].Op != bytecode.OpStackPush {
		t.Errorf("expected the valid line to assemble, got %v", pb)
	}
}
