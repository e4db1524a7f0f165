package interpreter

import (
	"encoding/binary"
	"math"

	"nix/pkg/bytecode"
)

// cell is one heap allocation. Its index in Heap.cells is the handle.
type cell struct {
	kind  bytecode.Kind
	data  []byte
	freed bool
}

// Heap owns every dynamically sized buffer of a program. Indices are never
// reused, so a freed handle stays detectable for the life of the heap.
type Heap struct {
	cells []cell
	live  int
}

// MaxCellBytes bounds the buffer of a single cell
const MaxCellBytes = 1 << 30

func NewHeap() *Heap {
	return &Heap{}
}

// elemWidth returns the byte width of one element of a cell of kind k.
// Str cells are byte addressed; Table and Struct cells have no elements.
func elemWidth(k bytecode.Kind) int {
	switch k {
	case bytecode.KindInt, bytecode.KindDouble:
		return 8
	case bytecode.KindFloat, bytecode.KindChar:
		return 4
	case bytecode.KindStr:
		return 1
	default:
		return 0
	}
}

// Allocate creates a cell of size elements of kind (size bytes for Str,
// Table and Struct) and returns a handle to it.
func (h *Heap) Allocate(kind bytecode.Kind, size int) (bytecode.Value, error) {
	if size < 0 {
		return bytecode.Value{}, faultf(ErrInvalidDataType, "negative allocation size %d", size)
	}
	if kind > bytecode.KindStruct {
		return bytecode.Value{}, faultf(ErrInvalidDataType, "cannot allocate cells of %s", kind)
	}

	width := elemWidth(kind)
	if width == 0 {
		width = 1
	}
	if size > MaxCellBytes/width {
		return bytecode.Value{}, faultf(ErrInvalidDataType, "allocation of %d %s elements exceeds %d bytes", size, kind, MaxCellBytes)
	}

	h.cells = append(h.cells, cell{kind: kind, data: make([]byte, size*width)})
	h.live++

	return bytecode.HandleTo(len(h.cells) - 1), nil
}

// StoreString allocates a Str cell holding a copy of s and returns a handle
// tagged as Str.
func (h *Heap) StoreString(s string) (bytecode.Value, error) {
	v, err := h.Allocate(bytecode.KindStr, len(s))
	if err != nil {
		return bytecode.Value{}, err
	}
	copy(h.cells[v.Index()].data, s)
	return v.WithKind(bytecode.KindStr), nil
}

// Release frees the cell behind handle. Releasing twice is an error.
func (h *Heap) Release(handle bytecode.Value) error {
	c, err := h.cell(handle)
	if err != nil {
		return err
	}
	c.data = nil
	c.freed = true
	h.live--
	return nil
}

// ReadIndexed returns element index of the cell behind handle
func (h *Heap) ReadIndexed(handle bytecode.Value, index int) (bytecode.Value, error) {
	c, off, err := h.element(handle, index)
	if err != nil {
		return bytecode.Value{}, err
	}

	switch c.kind {
	case bytecode.KindInt:
		return bytecode.Int(int64(binary.LittleEndian.Uint64(c.data[off:]))), nil
	case bytecode.KindDouble:
		return bytecode.Double(math.Float64frombits(binary.LittleEndian.Uint64(c.data[off:]))), nil
	case bytecode.KindFloat:
		return bytecode.Float(math.Float32frombits(binary.LittleEndian.Uint32(c.data[off:]))), nil
	case bytecode.KindChar:
		return bytecode.Char(rune(int32(binary.LittleEndian.Uint32(c.data[off:])))), nil
	default:
		return bytecode.Char(rune(c.data[off])), nil
	}
}

// WriteIndexed stores v as element index of the cell behind handle. The
// value kind has to match the cell; Str cells take Char values.
func (h *Heap) WriteIndexed(handle bytecode.Value, index int, v bytecode.Value) error {
	c, off, err := h.element(handle, index)
	if err != nil {
		return err
	}

	want := c.kind
	if want == bytecode.KindStr {
		want = bytecode.KindChar
	}
	if v.Handle || v.Kind != want {
		return faultf(ErrInvalidDataType, "cannot store %s in a %s cell", v, c.kind)
	}

	switch c.kind {
	case bytecode.KindInt, bytecode.KindDouble:
		binary.LittleEndian.PutUint64(c.data[off:], v.Bits)
	case bytecode.KindFloat, bytecode.KindChar:
		binary.LittleEndian.PutUint32(c.data[off:], uint32(v.Bits))
	case bytecode.KindStr:
		ch := v.AsChar()
		if ch < 0 || ch > math.MaxUint8 {
			return faultf(ErrInvalidDataType, "character %q does not fit a str slot", ch)
		}
		c.data[off] = byte(ch)
	}

	return nil
}

// String returns the contents of a Str cell
func (h *Heap) String(handle bytecode.Value) (string, error) {
	c, err := h.cell(handle)
	if err != nil {
		return "", err
	}
	if c.kind != bytecode.KindStr {
		return "", faultf(ErrInvalidDataType, "cell %d holds %s, not str", handle.Index(), c.kind)
	}
	return string(c.data), nil
}

// Bytes gives direct access to a cell's buffer, for extension handlers that
// keep their own layout in Table and Struct cells.
func (h *Heap) Bytes(handle bytecode.Value) ([]byte, bytecode.Kind, error) {
	c, err := h.cell(handle)
	if err != nil {
		return nil, 0, err
	}
	return c.data, c.kind, nil
}

// Len returns the number of cells ever allocated
func (h *Heap) Len() int {
	return len(h.cells)
}

// Live returns the number of cells not yet released
func (h *Heap) Live() int {
	return h.live
}

func (h *Heap) cell(handle bytecode.Value) (*cell, error) {
	if !handle.Handle {
		return nil, faultf(ErrInvalidPointer, "%s is not a heap handle", handle)
	}
	idx := handle.Index()
	if idx < 0 || idx >= len(h.cells) {
		return nil, faultf(ErrInvalidPointer, "handle %d out of range", idx)
	}
	c := &h.cells[idx]
	if c.freed {
		return nil, faultf(ErrInvalidPointer, "handle %d already freed", idx)
	}
	return c, nil
}

func (h *Heap) element(handle bytecode.Value, index int) (*cell, int, error) {
	c, err := h.cell(handle)
	if err != nil {
		return nil, 0, err
	}

	width := elemWidth(c.kind)
	if width == 0 {
		return nil, 0, faultf(ErrInvalidDataType, "%s cells have no indexed elements", c.kind)
	}
	if index < 0 || index >= len(c.data)/width {
		return nil, 0, faultf(ErrInvalidPointer, "index %d out of range for cell %d of %d elements", index, handle.Index(), len(c.data)/width)
	}

	return c, index * width, nil
}

func (h *Heap) reset() {
	h.cells = nil
	h.live = 0
}
