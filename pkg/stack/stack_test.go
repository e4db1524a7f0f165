package stack_test

import (
	"testing"

	"nix/pkg/stack"
)

func TestStack(t *testing.T) {
	s := stack.NewStack("$", "Program")
	if s.Size() != 2 {
		t.Fatalf("expected size 2, got %d", s.Size())
	}

	s.Push("if")
	if top, _ := s.Peek(); top != "if" {
		t.Errorf("expected if on top, got %s", top)
	}

	for _, expected := range []string{"if", "Program", "$"} {
		got, ok := s.Pop()
		if !ok || got != expected {
			t.Errorf("expected %s, got %s (ok=%v)", expected, got, ok)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Errorf("pop on empty stack must report !ok")
	}
	if s.Set("x") {
		t.Errorf("set on empty stack must fail")
	}
}

func TestStackClear(t *testing.T) {
	s := stack.NewStack[int]()
	for i := 0; i < 5; i++ {
		s.Push(i)
	}
	s.Set(40)
	if got := s.Array(); got[4] != 40 {
		t.Errorf("expected Set to replace the top, got %v", got)
	}

	s.Clear()
	if s.Size() != 0 || len(s.Array()) != 0 {
		t.Errorf("expected empty stack after Clear, got %v", s.Array())
	}
}
