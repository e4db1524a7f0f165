package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindDouble
	KindChar
	KindStr
	KindTable
	KindStruct
)

var kindNames = map[Kind]string{
	KindInt:    "int",
	KindFloat:  "float",
	KindDouble: "double",
	KindChar:   "char",
	KindStr:    "str",
	KindTable:  "table",
	KindStruct: "struct",
}

// String returns the kind's keyword as used by the assembler
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Numeric reports whether the kind is a scalar the arithmetic ops accept
func (k Kind) Numeric() bool {
	return k <= KindChar
}

// ParseKind maps a kind keyword to its Kind
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Value is the tagged word manipulated by the VM. Bits holds the literal
// scalar for Int and Char, the IEEE bit pattern for Float and Double, and a
// heap index when Handle is set.
type Value struct {
	Bits   uint64 `cbor:"1,keyasint"`
	Kind   Kind   `cbor:"2,keyasint"`
	Handle bool   `cbor:"3,keyasint,omitempty"`
}

// Int creates a new integer Value.
func Int(i int64) Value {
	return Value{Bits: uint64(i), Kind: KindInt}
}

// Float creates a new single precision Value.
func Float(f float32) Value {
	return Value{Bits: uint64(math.Float32bits(f)), Kind: KindFloat}
}

// Double creates a new double precision Value.
func Double(f float64) Value {
	return Value{Bits: math.Float64bits(f), Kind: KindDouble}
}

// Char creates a new character Value.
func Char(c rune) Value {
	return Value{Bits: uint64(uint32(c)), Kind: KindChar}
}

// Bool creates the Int 0/1 produced by comparisons.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// HandleTo creates a heap handle of kind Int pointing at cell idx.
func HandleTo(idx int) Value {
	return Value{Bits: uint64(idx), Kind: KindInt, Handle: true}
}

func (v Value) AsInt() int64 {
	return int64(v.Bits)
}

func (v Value) AsFloat() float32 {
	return math.Float32frombits(uint32(v.Bits))
}

func (v Value) AsDouble() float64 {
	return math.Float64frombits(v.Bits)
}

func (v Value) AsChar() rune {
	return rune(int32(uint32(v.Bits)))
}

// Index returns the heap index of a handle
func (v Value) Index() int {
	return int(v.Bits)
}

// WithKind retags the value without touching its payload
func (v Value) WithKind(k Kind) Value {
	v.Kind = k
	return v
}

// Convert returns v as a scalar of kind k. Handles and non-numeric kinds
// cannot be converted.
func (v Value) Convert(k Kind) (Value, bool) {
	if v.Handle || !v.Kind.Numeric() || !k.Numeric() {
		return Value{}, false
	}
	if v.Kind == k {
		return v, true
	}

	switch k {
	case KindInt:
		switch v.Kind {
		case KindChar:
			return Int(int64(v.AsChar())), true
		case KindFloat:
			return Int(int64(v.AsFloat())), true
		case KindDouble:
			return Int(int64(v.AsDouble())), true
		}
	case KindChar:
		i, _ := v.Convert(KindInt)
		return Char(rune(i.AsInt())), true
	case KindFloat:
		return Float(float32(v.float64())), true
	case KindDouble:
		return Double(v.float64()), true
	}

	return Value{}, false
}

func (v Value) float64() float64 {
	switch v.Kind {
	case KindFloat:
		return float64(v.AsFloat())
	case KindDouble:
		return v.AsDouble()
	case KindChar:
		return float64(v.AsChar())
	default:
		return float64(v.AsInt())
	}
}

// Truthy reports whether a condition value is non-zero
func (v Value) Truthy() (bool, error) {
	if v.Handle || !v.Kind.Numeric() {
		return false, fmt.Errorf("cannot use %s as a condition", v)
	}

	switch v.Kind {
	case KindFloat:
		return v.AsFloat() != 0, nil
	case KindDouble:
		return v.AsDouble() != 0, nil
	default:
		return v.Bits != 0, nil
	}
}

// String renders the value for listings and error messages.
func (v Value) String() string {
	if v.Handle {
		return fmt.Sprintf("&%s[%d]", v.Kind, v.Index())
	}

	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.AsFloat()), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case KindChar:
		return string(v.AsChar())
	default:
		return "<" + v.Kind.String() + ">"
	}
}
