package compiler

import (
	"github.com/tpplang/tppc/types"
	"tinygo.org/x/go-llvm"
)

const (
	// I/O runtime functions
	READ_INT    = types.ReadInt
	READ_FLOAT  = types.ReadFloat
	WRITE_INT   = types.WriteInt
	WRITE_FLOAT = types.WriteFloat
)

// GetFnType returns the LLVM FunctionType for a T++ runtime helper.
func (c *Compiler) GetFnType(name string) llvm.Type {
	i32 := c.Context.Int32Type()
	f32 := c.Context.FloatType()
	void := c.Context.VoidType()

	switch name {
	case READ_INT:
		return llvm.FunctionType(i32, nil, false)
	case READ_FLOAT:
		return llvm.FunctionType(f32, nil, false)
	case WRITE_INT:
		return llvm.FunctionType(void, []llvm.Type{i32}, false)
	case WRITE_FLOAT:
		return llvm.FunctionType(void, []llvm.Type{f32}, false)
	default:
		panic("Unknown function name")
	}
}

func (c *Compiler) GetCFunc(name string) (llvm.Type, llvm.Value) {
	fnType := c.GetFnType(name)
	fn := c.Module.NamedFunction(name)
	if fn.IsNil() {
		fn = llvm.AddFunction(c.Module, name, fnType)
	}

	return fnType, fn
}

// declareRuntime declares every I/O helper up front so the module always
// carries them, used or not.
func (c *Compiler) declareRuntime() {
	for _, name := range types.IOFunctions() {
		c.GetCFunc(name)
	}
}

// isRuntimeFunc reports whether name is taken by an I/O helper.
func isRuntimeFunc(name string) bool {
	for _, n := range types.IOFunctions() {
		if n == name {
			return true
		}
	}
	return false
}
