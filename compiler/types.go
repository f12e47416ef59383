package compiler

import (
	"fmt"
	"strings"

	"github.com/tpplang/tppc/types"
	"tinygo.org/x/go-llvm"
)

type Kind int

const (
	UnresolvedKind Kind = iota
	IntKind
	FloatKind
	PtrKind
	ArrayKind
	VoidKind
)

// Type is the interface for all types the generator lowers.
type Type interface {
	String() string
	Kind() Kind
}

// Common concrete types. I1 only appears as the result of a comparison.
var (
	I1   Type = Int{Width: 1}
	I32  Type = Int{Width: 32}
	F32  Type = Float{Width: 32}
	Void Type = VoidType{}
)

type Unresolved struct{}

func (u Unresolved) Kind() Kind     { return UnresolvedKind }
func (u Unresolved) String() string { return "?" }

// Int represents an integer type with a given bit width.
type Int struct {
	Width uint32
}

func (i Int) String() string {
	return fmt.Sprintf("I%d", i.Width)
}

func (i Int) Kind() Kind {
	return IntKind
}

// Float represents a floating-point type with a given precision.
type Float struct {
	Width uint32
}

func (f Float) String() string {
	return fmt.Sprintf("F%d", f.Width)
}

func (f Float) Kind() Kind {
	return FloatKind
}

// Ptr is a pointer to the first element of an array, the shape an array
// argument takes.
type Ptr struct {
	Elem Type
}

func (p Ptr) String() string {
	return fmt.Sprintf("Ptr_%s", p.Elem.String())
}

func (p Ptr) Kind() Kind {
	return PtrKind
}

// Array is fixed-size storage of Elem. A zero dimension is unsized, which is
// how array parameters are declared.
type Array struct {
	Elem Type
	Dims []int
}

func (a Array) String() string {
	var b strings.Builder
	b.WriteString(a.Elem.String())
	for _, d := range a.Dims {
		fmt.Fprintf(&b, "[%d]", d)
	}
	return b.String()
}

func (a Array) Kind() Kind {
	return ArrayKind
}

type VoidType struct{}

func (v VoidType) Kind() Kind     { return VoidKind }
func (v VoidType) String() string { return "Void" }

func IsInt(t Type) bool {
	return t.Kind() == IntKind
}

func IsBool(t Type) bool {
	i, ok := t.(Int)
	return ok && i.Width == 1
}

// scalarType maps a source type name to the scalar it is stored as.
func scalarType(name string) Type {
	switch name {
	case types.Int:
		return I32
	case types.Float:
		return F32
	case types.Void:
		return Void
	default:
		panic(fmt.Sprintf("unknown type name %q", name))
	}
}

// TypeOf recovers the generator type of a scalar LLVM value.
func TypeOf(v llvm.Value) Type {
	t := v.Type()
	switch t.TypeKind() {
	case llvm.IntegerTypeKind:
		return Int{Width: uint32(t.IntTypeWidth())}
	case llvm.FloatTypeKind:
		return F32
	case llvm.PointerTypeKind:
		return Ptr{Elem: I32}
	case llvm.VoidTypeKind:
		return Void
	default:
		return Unresolved{}
	}
}

func (c *Compiler) mapToLLVMType(t Type) llvm.Type {
	switch t.Kind() {
	case IntKind:
		intType := t.(Int)
		switch intType.Width {
		case 1:
			return c.Context.Int1Type()
		case 32:
			return c.Context.Int32Type()
		default:
			panic(fmt.Sprintf("unsupported int width: %d", intType.Width))
		}
	case FloatKind:
		return c.Context.FloatType()
	case PtrKind:
		ptrType := t.(Ptr)
		return llvm.PointerType(c.mapToLLVMType(ptrType.Elem), 0)
	case ArrayKind:
		arr := t.(Array)
		ty := c.mapToLLVMType(arr.Elem)
		for i := len(arr.Dims) - 1; i >= 0; i-- {
			ty = llvm.ArrayType(ty, arr.Dims[i])
		}
		return ty
	case VoidKind:
		return c.Context.VoidType()
	default:
		panic("unknown type in mapToLLVMType: " + t.String())
	}
}

func setInstAlignment(inst llvm.Value, t Type) {
	switch typ := t.(type) {
	case Int:
		if typ.Width == 1 {
			inst.SetAlignment(1)
			return
		}
		inst.SetAlignment(int(typ.Width >> 3))
	case Float:
		inst.SetAlignment(int(typ.Width >> 3))
	case Array:
		setInstAlignment(inst, typ.Elem)
	case Ptr:
		inst.SetAlignment(8)
	default:
		panic("Unsupported type for alignment" + typ.String())
	}
}
