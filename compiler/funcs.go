package compiler

import (
	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/types"
	"tinygo.org/x/go-llvm"
)

// funcBuilder tracks the block being filled in the current function. The
// block only moves through enter and the terminator helpers.
type funcBuilder struct {
	fn         *Func
	block      llvm.BasicBlock
	terminated bool
}

func (c *Compiler) enter(block llvm.BasicBlock) {
	c.builder.SetInsertPointAtEnd(block)
	c.fb.block = block
	c.fb.terminated = false
}

func (c *Compiler) newBlock(name string) llvm.BasicBlock {
	return c.Context.AddBasicBlock(c.fb.fn.Val, name)
}

func (c *Compiler) br(target llvm.BasicBlock) {
	if c.fb.terminated {
		return
	}
	c.builder.CreateBr(target)
	c.fb.terminated = true
}

func (c *Compiler) condBr(cond llvm.Value, then, els llvm.BasicBlock) {
	c.builder.CreateCondBr(cond, then, els)
	c.fb.terminated = true
}

func (c *Compiler) ret(val llvm.Value) {
	if c.fb.fn.Ret.Kind() == VoidKind {
		c.builder.CreateRetVoid()
	} else {
		c.builder.CreateRet(c.convert(val, c.fb.fn.Ret))
	}
	c.fb.terminated = true
}

// nativeName maps the entry point to the symbol the C runtime calls.
func nativeName(name string) string {
	if name == types.EntryName {
		return types.NativeEntryName
	}
	return name
}

func (c *Compiler) paramType(p *ast.Param) Type {
	elem := scalarType(p.Type)
	if p.Dims == 0 {
		return elem
	}
	return Array{Elem: I32, Dims: make([]int, p.Dims)}
}

// llvmParamType is the type a parameter is passed as: scalars by value,
// arrays as a pointer to their first element.
func (c *Compiler) llvmParamType(t Type) llvm.Type {
	if arr, ok := t.(Array); ok {
		return c.mapToLLVMType(Ptr{Elem: arr.Elem})
	}
	return c.mapToLLVMType(t)
}

func (c *Compiler) declareFunc(fd *ast.FuncDecl) (*Func, bool) {
	if _, ok := c.Funcs[fd.Name]; ok {
		c.errorf(fd.Token, "function %s redeclared", fd.Name)
		return nil, false
	}
	if isRuntimeFunc(fd.Name) {
		c.errorf(fd.Token, "function %s collides with a built-in", fd.Name)
		return nil, false
	}
	if fd.Name == types.NativeEntryName {
		c.errorf(fd.Token, "function %s collides with the symbol of %s", fd.Name, types.EntryName)
		return nil, false
	}
	for _, p := range fd.Params {
		if !c.checkStorageType(p.Token, p.Type) {
			return nil, false
		}
	}

	f := &Func{Name: fd.Name, Ret: scalarType(fd.ReturnType)}
	llvmParams := make([]llvm.Type, len(fd.Params))
	for i, p := range fd.Params {
		t := c.paramType(p)
		f.Params = append(f.Params, t)
		llvmParams[i] = c.llvmParamType(t)
	}
	f.Type = llvm.FunctionType(c.mapToLLVMType(f.Ret), llvmParams, false)
	f.Val = llvm.AddFunction(c.Module, nativeName(fd.Name), f.Type)
	for i, p := range fd.Params {
		f.Val.Param(i).SetName(p.Name)
	}

	c.Funcs[fd.Name] = f
	return f, true
}

// compileFuncDecl emits a function definition. inits are the top-level
// initializations, run first thing in main.
func (c *Compiler) compileFuncDecl(fd *ast.FuncDecl, inits []*ast.Assign) {
	f, ok := c.declareFunc(fd)
	if !ok {
		return
	}

	c.fb = &funcBuilder{fn: f}
	defer func() { c.fb = nil }()
	c.enter(c.newBlock("entry"))

	PushScope(&c.Scopes, LocalScope)
	PushScope(&c.Scopes, ParamScope)
	defer PopScope(&c.Scopes)
	defer PopScope(&c.Scopes)

	// parameters are spilled so they can be assigned like locals
	for i, p := range fd.Params {
		t := f.Params[i]
		slotType := t
		if arr, isArr := t.(Array); isArr {
			slotType = Ptr{Elem: arr.Elem}
		}
		slot := c.createEntryBlockAlloca(c.mapToLLVMType(slotType), p.Name+".addr")
		setInstAlignment(slot, slotType)
		c.createStore(f.Val.Param(i), slot, slotType)
		Put(c.Scopes, ParamScope, p.Name, &Symbol{Val: slot, Type: t, Param: t.Kind() == ArrayKind})
	}

	for _, init := range inits {
		c.compileAssign(init)
	}

	c.compileBlock(fd.Body)
	if !c.fb.terminated {
		c.ret(c.zeroOf(f.Ret))
	}
}

func (c *Compiler) zeroOf(t Type) llvm.Value {
	switch t.Kind() {
	case FloatKind:
		return llvm.ConstFloat(c.Context.FloatType(), 0)
	case IntKind:
		return c.ConstI32(0)
	default:
		return llvm.Value{}
	}
}

func (c *Compiler) compileReturn(r *ast.Return) {
	val := c.compileScalar(r.Value)
	exit := c.newBlock("exit")
	c.br(exit)
	c.enter(exit)
	c.ret(val)
}

func (c *Compiler) compileCall(ce *ast.Call) llvm.Value {
	f, ok := c.Funcs[ce.Name]
	if !ok {
		c.errorf(ce.Token, "function %s is not declared", ce.Name)
		return c.ConstI32(0)
	}
	if len(ce.Args) != len(f.Params) {
		c.errorf(ce.Token, "function %s takes %d argument(s), got %d", ce.Name, len(f.Params), len(ce.Args))
		return c.zeroOf(f.Ret)
	}

	args := make([]llvm.Value, len(ce.Args))
	for i, arg := range ce.Args {
		val := c.compileValue(arg)
		want := f.Params[i]
		if want.Kind() == ArrayKind {
			if TypeOf(val).Kind() != PtrKind {
				c.errorf(ce.Token, "argument %d of %s must be an array", i+1, ce.Name)
				return c.zeroOf(f.Ret)
			}
			args[i] = val
			continue
		}
		if TypeOf(val).Kind() == PtrKind {
			c.errorf(ce.Token, "argument %d of %s must not be an array", i+1, ce.Name)
			return c.zeroOf(f.Ret)
		}
		args[i] = c.convert(val, want)
	}

	name := "call_tmp"
	if f.Ret.Kind() == VoidKind {
		name = ""
	}
	return c.builder.CreateCall(f.Type, f.Val, args, name)
}
