package interpreter

import (
	"io"
	"os"

	"nix/pkg/bytecode"
	"nix/pkg/stack"
)

const DefaultCallCapacity = 256

// Handler executes an opcode the core does not implement. It sees the whole
// engine and must keep the pop-right-then-left calling convention of the
// built-in operators.
type Handler func(it *Interpreter, tok bytecode.Token) error

// Interpreter executes a bytecode.Program
type Interpreter struct {
	pb bytecode.Program // program being executed
	ip int              // instruction pointer

	stack *Stack // operand stack
	heap  *Heap  // heap cells
	frame *Frame // variable bindings

	branches *stack.Stack[branch] // open conditionals, innermost on top
	calls    *stack.Stack[int]  // return positions of func and macro calls
	callCap  int

	macros map[int64]int // macro id -> index of its defmacro token

	handlers map[bytecode.Opcode]Handler // extension opcodes

	out io.Writer // output writer for print

	optErr error // first failure reported by an Option

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed

	stackCap int
	frameCap int
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithStackCapacity bounds the operand stack
func WithStackCapacity(n int) Option {
	return func(i *Interpreter) { i.stackCap = n }
}

// WithFrameCapacity bounds the number of variable bindings
func WithFrameCapacity(n int) Option {
	return func(i *Interpreter) { i.frameCap = n }
}

// WithCallCapacity bounds the depth of nested func and macro calls
func WithCallCapacity(n int) Option {
	return func(i *Interpreter) { i.callCap = n }
}

// WithHandler registers an extension handler; see RegisterHandler.
// A rejected registration is returned by every Step.
func WithHandler(op bytecode.Opcode, h Handler) Option {
	return func(i *Interpreter) {
		if err := i.RegisterHandler(op, h); err != nil && i.optErr == nil {
			i.optErr = err
		}
	}
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(pb bytecode.Program, opts ...Option) *Interpreter {
	it := &Interpreter{
		pb:       pb.Clone(),
		ip:       0,
		branches: stack.NewStack[branch](),
		calls:    stack.NewStack[int](),
		handlers: make(map[bytecode.Opcode]Handler),
		out:      nil, // caller should set, or use WithWriter
		maxSteps: 0,   // 0 => unlimited
		stackCap: DefaultStackCapacity,
		frameCap: DefaultFrameCapacity,
		callCap:  DefaultCallCapacity,
	}

	for _, o := range opts {
		o(it)
	}

	it.stack = NewStack(it.stackCap)
	it.heap = NewHeap()
	it.frame = NewFrame(it.frameCap, it.heap)
	it.indexProgram()

	if it.out == nil {
		it.out = os.Stdout
	}

	return it
}

// Load replaces the current program with a new one, resetting state.
// Registered handlers are kept.
func (i *Interpreter) Load(pb bytecode.Program) {
	i.pb = pb.Clone()
	i.Reset()
	i.indexProgram()
}

// Reset clears runtime state (stack, heap, frame, IP, counters)
func (i *Interpreter) Reset() {
	i.ip = 0
	i.stack.reset()
	i.heap.reset()
	i.frame.reset()
	i.branches.Clear()
	i.calls.Clear()
	i.steps = 0
}

// Program returns the active program
func (i *Interpreter) Program() bytecode.Program {
	return i.pb
}

// Output returns the output writer used for print
func (i *Interpreter) Output() io.Writer {
	return i.out
}

func (i *Interpreter) Stack() *Stack {
	return i.stack
}

func (i *Interpreter) Heap() *Heap {
	return i.heap
}

func (i *Interpreter) Frame() *Frame {
	return i.frame
}

// Steps returns the number of instructions executed so far
func (i *Interpreter) Steps() int {
	return i.steps
}

// RegisterHandler routes op to h. Only opcodes without a built-in
// implementation can be registered.
func (i *Interpreter) RegisterHandler(op bytecode.Opcode, h Handler) error {
	if !op.Valid() {
		return faultf(ErrIllegalInstruction, "unknown opcode %d", int(op))
	}
	if isCore(op) {
		return faultf(ErrIllegalInstruction, "%s is implemented by the engine", op)
	}
	if h == nil {
		delete(i.handlers, op)
		return nil
	}
	i.handlers[op] = h
	return nil
}

// Step executes a single instruction, returning (halted, error).
// A failing instruction leaves the pointer on itself.
func (i *Interpreter) Step() (bool, error) {
	if i.optErr != nil {
		return false, i.optErr
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}

	pc := i.ip
	halted, err := coreStep(i)
	i.steps++

	if err != nil {
		i.ip = pc
		op := bytecode.Opcode(0)
		if pc >= 0 && pc < len(i.pb) {
			op = i.pb[pc].Op
		}
		return false, &ExecError{PC: pc, Op: op, Err: err}
	}

	return halted, nil
}

// Run executes until halt or error
func (i *Interpreter) Run() error {
	for {
		halted, err := i.Step()
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// PC returns the current instruction pointer
func (i *Interpreter) PC() int {
	return i.ip
}

// SetPC moves the instruction pointer; target may equal the program length
// to halt. Conditionals the target lies outside of are closed.
func (i *Interpreter) SetPC(pc int) error {
	if pc < 0 || pc > len(i.pb) {
		return faultf(ErrInvalidJump, "target %d outside program of %d instructions", pc, len(i.pb))
	}
	if err := i.leaveBranches(pc); err != nil {
		return err
	}
	i.ip = pc
	return nil
}

// OpenConditionals returns how many if blocks are currently entered
func (i *Interpreter) OpenConditionals() int {
	return i.branches.Size()
}

// indexProgram records where each macro body starts
func (i *Interpreter) indexProgram() {
	i.macros = make(map[int64]int)
	for idx, tok := range i.pb {
		if tok.Op == bytecode.OpMacroDef {
			id := tok.Operand.AsInt()
			if _, ok := i.macros[id]; !ok {
				i.macros[id] = idx
			}
		}
	}
}

// call saves the return position and enters the body after pos
func (i *Interpreter) call(pos int) error {
	if i.calls.Size() >= i.callCap {
		return faultf(ErrStackOverflow, "call depth exceeds %d", i.callCap)
	}
	i.calls.Push(i.ip)
	i.ip = pos + 1
	return nil
}

func (i *Interpreter) ret() error {
	pos, ok := i.calls.Pop()
	if !ok {
		return faultf(ErrStackUnderflow, "return without a call")
	}
	i.dropBranches()
	i.ip = pos
	return nil
}
