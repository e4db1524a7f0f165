package interpreter

import "nix/pkg/bytecode"

const DefaultStackCapacity = 256

// Stack is the bounded operand stack.
type Stack struct {
	data []bytecode.Value
	cap  int
}

// NewStack creates an empty operand stack holding at most capacity values
func NewStack(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultStackCapacity
	}
	return &Stack{
		data: make([]bytecode.Value, 0, capacity),
		cap:  capacity,
	}
}

// Push adds v on top of the stack
func (s *Stack) Push(v bytecode.Value) error {
	if len(s.data) >= s.cap {
		return faultf(ErrStackOverflow, "push beyond capacity %d", s.cap)
	}
	s.data = append(s.data, v)
	return nil
}

// Pop removes and returns the top value
func (s *Stack) Pop() (bytecode.Value, error) {
	n := len(s.data)
	if n == 0 {
		return bytecode.Value{}, faultf(ErrStackUnderflow, "pop on empty stack")
	}
	v := s.data[n-1]
	s.data = s.data[:n-1]
	return v, nil
}

// Peek returns the value depth positions below the top (0 = top)
func (s *Stack) Peek(depth int) (bytecode.Value, error) {
	if depth < 0 || depth >= len(s.data) {
		return bytecode.Value{}, faultf(ErrStackUnderflow, "peek at depth %d with %d values", depth, len(s.data))
	}
	return s.data[len(s.data)-1-depth], nil
}

// Top returns the most recently pushed value
func (s *Stack) Top() (bytecode.Value, error) {
	return s.Peek(0)
}

func (s *Stack) Len() int {
	return len(s.data)
}

func (s *Stack) Cap() int {
	return s.cap
}

// Values returns a copy of the stack contents, bottom first
func (s *Stack) Values() []bytecode.Value {
	return append([]bytecode.Value(nil), s.data...)
}

func (s *Stack) reset() {
	s.data = s.data[:0]
}

// pop2 pops the right operand, then the left one
func (s *Stack) pop2() (left, right bytecode.Value, err error) {
	if right, err = s.Pop(); err != nil {
		return
	}
	left, err = s.Pop()
	return
}
