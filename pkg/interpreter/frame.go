package interpreter

import (
	"nix/pkg/bytecode"
	"nix/pkg/stack"
)

const DefaultFrameCapacity = 512

// Binding is one variable slot of the frame.
type Binding struct {
	Value bytecode.Value
	Slot  int
}

// Frame is the append-only variable area. Bindings holding a Str handle own
// it and release it when overwritten or dropped at scope exit.
type Frame struct {
	bindings []Binding
	cap      int
	scopes   *stack.Stack[int] // frame length at each open scope
	heap     *Heap
}

// NewFrame creates an empty frame that releases owned strings on heap
func NewFrame(capacity int, heap *Heap) *Frame {
	if capacity <= 0 {
		capacity = DefaultFrameCapacity
	}
	return &Frame{
		bindings: make([]Binding, 0, 16),
		cap:      capacity,
		scopes:   stack.NewStack[int](),
		heap:     heap,
	}
}

// Bind appends a new binding and returns its slot
func (f *Frame) Bind(v bytecode.Value) (int, error) {
	if len(f.bindings) >= f.cap {
		return 0, faultf(ErrStackOverflow, "frame is full (%d bindings)", f.cap)
	}
	slot := len(f.bindings)
	f.bindings = append(f.bindings, Binding{Value: v, Slot: slot})
	return slot, nil
}

// Current reads the most recently bound value
func (f *Frame) Current() (bytecode.Value, error) {
	return f.Load(len(f.bindings) - 1)
}

// Reassign replaces the most recently bound value
func (f *Frame) Reassign(v bytecode.Value) error {
	return f.Store(len(f.bindings)-1, v)
}

// Load reads the binding at slot
func (f *Frame) Load(slot int) (bytecode.Value, error) {
	if slot < 0 || slot >= len(f.bindings) {
		return bytecode.Value{}, f.badSlot(slot)
	}
	return f.bindings[slot].Value, nil
}

// Store replaces the binding at slot, releasing the string it owned
func (f *Frame) Store(slot int, v bytecode.Value) error {
	if slot < 0 || slot >= len(f.bindings) {
		return f.badSlot(slot)
	}

	old := f.bindings[slot].Value
	if owned(old) && !(v.Handle && v.Index() == old.Index()) {
		if err := f.heap.Release(old); err != nil {
			return err
		}
	}

	f.bindings[slot].Value = v
	return nil
}

// EnterScope records a checkpoint; bindings made after it are dropped by
// the matching ExitScope.
func (f *Frame) EnterScope() {
	f.scopes.Push(len(f.bindings))
}

// ExitScope truncates the frame to the last checkpoint. Every owned
// binding is released and dropped even when one release fails; the first
// failure is returned.
func (f *Frame) ExitScope() error {
	mark, ok := f.scopes.Pop()
	if !ok {
		return faultf(ErrInvalidStackAccess, "scope exit without an open scope")
	}

	var first error
	for i := len(f.bindings) - 1; i >= mark; i-- {
		if v := f.bindings[i].Value; owned(v) {
			if err := f.heap.Release(v); err != nil && first == nil {
				first = err
			}
		}
	}

	clear(f.bindings[mark:])
	f.bindings = f.bindings[:mark]
	return first
}

func (f *Frame) Len() int {
	return len(f.bindings)
}

// Depth returns the number of open scopes
func (f *Frame) Depth() int {
	return f.scopes.Size()
}

// Bindings returns a copy of the frame contents
func (f *Frame) Bindings() []Binding {
	return append([]Binding(nil), f.bindings...)
}

func (f *Frame) badSlot(slot int) error {
	if len(f.bindings) == 0 {
		return faultf(ErrInvalidStackAccess, "no variable bound")
	}
	return faultf(ErrInvalidStackAccess, "slot %d out of range (%d bindings)", slot, len(f.bindings))
}

func (f *Frame) reset() {
	f.bindings = f.bindings[:0]
	f.scopes.Clear()
}

func owned(v bytecode.Value) bool {
	return v.Handle && v.Kind == bytecode.KindStr
}
