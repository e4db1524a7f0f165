package interpreter_test

import (
	"testing"

	"nix/pkg/bytecode"
	"nix/pkg/interpreter"
)

func TestHeapReadWriteUntilRelease(t *testing.T) {
	kinds := []struct {
		kind  bytecode.Kind
		value bytecode.Value
	}{
		{bytecode.KindInt, bytecode.Int(-12345678901)},
		{bytecode.KindFloat, bytecode.Float(2.5)},
		{bytecode.KindDouble, bytecode.Double(-0.125)},
		{bytecode.KindChar, bytecode.Char('λ')},
		{bytecode.KindStr, bytecode.Char('z')},
	}

	for _, k := range kinds {
		h := interpreter.NewHeap()
		ptr, err := h.Allocate(k.kind, 4)
		if err != nil {
			t.Fatalf("%s: allocate: %v", k.kind, err)
		}
		if !ptr.Handle || ptr.Kind != bytecode.KindInt {
			t.Errorf("%s: expected an int handle, got %+v", k.kind, ptr)
		}

		if err := h.WriteIndexed(ptr, 3, k.value); err != nil {
			t.Fatalf("%s: write: %v", k.kind, err)
		}
		got, err := h.ReadIndexed(ptr, 3)
		if err != nil {
			t.Fatalf("%s: read: %v", k.kind, err)
		}
		if got != k.value {
			t.Errorf("%s: expected %s, got %s", k.kind, k.value, got)
		}

		_, err = h.ReadIndexed(ptr, 4)
		expectFault(t, err, interpreter.ErrInvalidPointer)

		if err := h.Release(ptr); err != nil {
			t.Fatalf("%s: release: %v", k.kind, err)
		}
		_, err = h.ReadIndexed(ptr, 0)
		expectFault(t, err, interpreter.ErrInvalidPointer)
		expectFault(t, h.WriteIndexed(ptr, 0, k.value), interpreter.ErrInvalidPointer)
		expectFault(t, h.Release(ptr), interpreter.ErrInvalidPointer)
	}
}

func TestHeapRejectsBadAccess(t *testing.T) {
	h := interpreter.NewHeap()

	expectFault(t, h.Release(bytecode.Int(0)), interpreter.ErrInvalidPointer)
	expectFault(t, h.Release(bytecode.HandleTo(9)), interpreter.ErrInvalidPointer)

	_, err := h.Allocate(bytecode.KindInt, -1)
	expectFault(t, err, interpreter.ErrInvalidDataType)

	ints, _ := h.Allocate(bytecode.KindInt, 2)
	expectFault(t, h.WriteIndexed(ints, 0, bytecode.Double(1)), interpreter.ErrInvalidDataType)
	expectFault(t, h.WriteIndexed(ints, -1, bytecode.Int(1)), interpreter.ErrInvalidPointer)

	table, _ := h.Allocate(bytecode.KindTable, 64)
	_, err = h.ReadIndexed(table, 0)
	expectFault(t, err, interpreter.ErrInvalidDataType)

	data, kind, err := h.Bytes(table)
	if err != nil || kind != bytecode.KindTable || len(data) != 64 {
		t.Errorf("expected 64 raw table bytes, got %d %s %v", len(data), kind, err)
	}
}

func TestHeapStrings(t *testing.T) {
	h := interpreter.NewHeap()
	ptr, err := h.StoreString("nix")
	if err != nil {
		t.Fatal(err)
	}
	if ptr.Kind != bytecode.KindStr {
		t.Errorf("expected a str handle, got %s", ptr.Kind)
	}

	if err := h.WriteIndexed(ptr, 0, bytecode.Char('N')); err != nil {
		t.Fatal(err)
	}
	if s, _ := h.String(ptr); s != "Nix" {
		t.Errorf("expected Nix, got %q", s)
	}
	expectFault(t, h.WriteIndexed(ptr, 1, bytecode.Char('☃')), interpreter.ErrInvalidDataType)

	ints, _ := h.Allocate(bytecode.KindInt, 1)
	_, err = h.String(ints)
	expectFault(t, err, interpreter.ErrInvalidDataType)

	if h.Len() != 2 || h.Live() != 2 {
		t.Errorf("expected 2 cells, 2 live; got %d, %d", h.Len(), h.Live())
	}
	h.Release(ptr)
	if h.Len() != 2 || h.Live() != 1 {
		t.Errorf("freed indices are never reused; got %d cells, %d live", h.Len(), h.Live())
	}
}

func TestHeapInstructions(t *testing.T) {
	pb := bytecode.Program{
		pushInt(3),
		with(bytecode.OpHeapAlloc, bytecode.Value{Kind: bytecode.KindInt}),
		slot(bytecode.OpStackPrev, 0), pushInt(1), pushInt(99), op(bytecode.OpPtrSetI),
		slot(bytecode.OpStackPrev, 0), pushInt(1), op(bytecode.OpPtrGetI), op(bytecode.OpPrintln),
		slot(bytecode.OpStackPrev, 0), op(bytecode.OpHeapFree),
		pushInt(0), op(bytecode.OpPtrGetI),
	}

	it, out, err := run(t, pb)
	expectFault(t, err, interpreter.ErrInvalidPointer)
	if out != "99\n" {
		t.Errorf("expected 99, got %q", out)
	}
	if it.Heap().Live() != 0 {
		t.Errorf("expected no live cells, got %d", it.Heap().Live())
	}
}

func TestHeapRejectsHugeAllocations(t *testing.T) {
	for _, size := range []int64{1 << 60, 1 << 62, interpreter.MaxCellBytes/8 + 1} {
		it, _, err := run(t, bytecode.Program{pushInt(size), with(bytecode.OpHeapAlloc, bytecode.Value{Kind: bytecode.KindInt})})
		expectFault(t, err, interpreter.ErrInvalidDataType)
		if n := it.Heap().Len(); n != 0 {
			t.Errorf("size %d: expected no cell, got %d", size, n)
		}
	}
}
