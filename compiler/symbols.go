package compiler

import (
	"tinygo.org/x/go-llvm"
)

// Symbol is a named storage location. Val is always an address: a global,
// an alloca, or for array parameters the alloca holding the element pointer.
type Symbol struct {
	Val   llvm.Value
	Type  Type
	Param bool
}

func (s *Symbol) IsArray() bool {
	return s.Type.Kind() == ArrayKind
}

// Dims returns the number of array dimensions, zero for scalars.
func (s *Symbol) Dims() int {
	if arr, ok := s.Type.(Array); ok {
		return len(arr.Dims)
	}
	return 0
}

// Func is a function emitted into the module, keyed by its source name.
type Func struct {
	Name   string
	Val    llvm.Value
	Type   llvm.Type
	Ret    Type
	Params []Type
}
