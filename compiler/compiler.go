package compiler

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/token"
	"github.com/tpplang/tppc/types"
	"tinygo.org/x/go-llvm"
)

type Compiler struct {
	Scopes  []Scope[*Symbol]
	Context llvm.Context
	Module  llvm.Module
	builder llvm.Builder
	Funcs   map[string]*Func
	Errors  []*token.CompileError
	fb      *funcBuilder // current function, nil between functions
}

func NewCompiler(ctx llvm.Context, moduleName string) *Compiler {
	module := ctx.NewModule(moduleName)
	builder := ctx.NewBuilder()

	c := &Compiler{
		Scopes:  []Scope[*Symbol]{NewScope[*Symbol](GlobalScope)},
		Context: ctx,
		Module:  module,
		builder: builder,
		Funcs:   make(map[string]*Func),
		Errors:  []*token.CompileError{},
	}
	c.setHostTarget()
	c.declareRuntime()
	return c
}

// Dispose frees the builder and the module. The context belongs to the
// caller.
func (c *Compiler) Dispose() {
	c.builder.Dispose()
	c.Module.Dispose()
}

var (
	nativeOnce sync.Once
	nativeErr  error
)

func initNativeTarget() error {
	nativeOnce.Do(func() {
		if err := llvm.InitializeNativeTarget(); err != nil {
			nativeErr = err
			return
		}
		nativeErr = llvm.InitializeNativeAsmPrinter()
	})
	return nativeErr
}

// setHostTarget stamps the module with the host triple and data layout. A
// host LLVM without a native target leaves both empty.
func (c *Compiler) setHostTarget() {
	if initNativeTarget() != nil {
		return
	}
	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return
	}
	tm := target.CreateTargetMachine(triple, "", "", llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()
	td := tm.CreateTargetData()
	defer td.Dispose()

	c.Module.SetTarget(triple)
	c.Module.SetDataLayout(td.String())
}

// Compile lowers program into the module. Globals are laid out first, then
// every function in source order; top-level initializations run at the start
// of main.
func (c *Compiler) Compile(program *ast.Program) []*token.CompileError {
	var inits []*ast.Assign
	var funcs []*ast.FuncDecl
	for _, decl := range program.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			c.compileGlobalDecl(d)
		case *ast.Assign:
			inits = append(inits, d)
		case *ast.FuncDecl:
			funcs = append(funcs, d)
		default:
			panic(fmt.Sprintf("Cannot handle declaration type %T", d))
		}
	}

	hasMain := false
	for _, fd := range funcs {
		if fd.Name == types.EntryName {
			hasMain = true
			c.compileFuncDecl(fd, inits)
			continue
		}
		c.compileFuncDecl(fd, nil)
	}
	if !hasMain && len(inits) > 0 {
		c.errorf(inits[0].Token, "top-level initialization needs function %q to run in", types.EntryName)
	}
	return c.Errors
}

func (c *Compiler) errorf(tok token.Token, format string, args ...any) {
	c.Errors = append(c.Errors, &token.CompileError{
		Token: tok,
		Msg:   fmt.Sprintf(format, args...),
	})
}

// checkStorageType reports variables and parameters whose type cannot hold a
// value, such as vazio.
func (c *Compiler) checkStorageType(tok token.Token, typ string) bool {
	if types.IsReservedTypeName(typ) {
		return true
	}
	c.errorf(tok, "type %s cannot be stored", typ)
	return false
}

func (c *Compiler) ConstI32(v int64) llvm.Value {
	return llvm.ConstInt(c.Context.Int32Type(), uint64(v), true)
}

// arrayType builds the storage type of a declared variable. Array elements
// are always i32; sizes must be integer literals.
func (c *Compiler) arrayType(v *ast.Var) (Type, bool) {
	dims := make([]int, len(v.Indices))
	for i, idx := range v.Indices {
		num, ok := idx.(*ast.Number)
		if !ok || !num.IsInt() {
			c.errorf(v.Token, "size of array %s must be an integer literal", v.Name)
			return nil, false
		}
		n, err := strconv.Atoi(num.Text)
		if err != nil || n <= 0 {
			c.errorf(num.Token, "invalid size %s for array %s", num.Text, v.Name)
			return nil, false
		}
		dims[i] = n
	}
	return Array{Elem: I32, Dims: dims}, true
}

func (c *Compiler) compileGlobalDecl(vd *ast.VarDecl) {
	if !c.checkStorageType(vd.Token, vd.Type) {
		return
	}
	elem := scalarType(vd.Type)
	for _, v := range vd.Vars {
		if Has(c.Scopes, GlobalScope, v.Name) {
			continue
		}
		var t Type = elem
		if len(v.Indices) > 0 {
			arr, ok := c.arrayType(v)
			if !ok {
				continue
			}
			t = arr
		}

		llvmType := c.mapToLLVMType(t)
		global := llvm.AddGlobal(c.Module, llvmType, v.Name)
		global.SetInitializer(llvm.ConstNull(llvmType))
		if t.Kind() == ArrayKind {
			global.SetLinkage(llvm.CommonLinkage)
		}
		global.SetAlignment(4)
		Put(c.Scopes, GlobalScope, v.Name, &Symbol{Val: global, Type: t})
	}
}

func (c *Compiler) compileLocalDecl(vd *ast.VarDecl) {
	if !c.checkStorageType(vd.Token, vd.Type) {
		return
	}
	elem := scalarType(vd.Type)
	for _, v := range vd.Vars {
		if Has(c.Scopes, LocalScope, v.Name) {
			continue
		}
		var t Type = elem
		if len(v.Indices) > 0 {
			arr, ok := c.arrayType(v)
			if !ok {
				continue
			}
			t = arr
		}
		alloca := c.createEntryBlockAlloca(c.mapToLLVMType(t), v.Name)
		setInstAlignment(alloca, t)
		Put(c.Scopes, LocalScope, v.Name, &Symbol{Val: alloca, Type: t})
	}
}

func (c *Compiler) createEntryBlockAlloca(ty llvm.Type, name string) llvm.Value {
	current := c.fb.block
	fn := current.Parent()
	entry := fn.EntryBasicBlock()
	first := entry.FirstInstruction()

	if first.IsNil() {
		c.builder.SetInsertPointAtEnd(entry)
	} else {
		c.builder.SetInsertPointBefore(first)
	}

	alloca := c.builder.CreateAlloca(ty, name)
	c.builder.SetInsertPointAtEnd(current)
	return alloca
}

func (c *Compiler) createStore(val llvm.Value, ptr llvm.Value, t Type) {
	store := c.builder.CreateStore(val, ptr)
	setInstAlignment(store, t)
}

func (c *Compiler) createLoad(ptr llvm.Value, t Type, name string) llvm.Value {
	load := c.builder.CreateLoad(c.mapToLLVMType(t), ptr, name)
	setInstAlignment(load, t)
	return load
}

// compileBlock emits statements until one terminates the current block;
// anything after a return is unreachable and skipped.
func (c *Compiler) compileBlock(stmts []ast.Statement) {
	for _, stmt := range stmts {
		if c.fb.terminated {
			return
		}
		c.compileStatement(stmt)
	}
}

func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		c.compileLocalDecl(s)
	case *ast.Assign:
		c.compileAssign(s)
	case *ast.If:
		c.compileIf(s)
	case *ast.Repeat:
		c.compileRepeat(s)
	case *ast.Read:
		c.compileRead(s)
	case *ast.Write:
		c.compileWrite(s)
	case *ast.Return:
		c.compileReturn(s)
	case *ast.ExprStmt:
		c.compileExpression(s.X)
	default:
		panic(fmt.Sprintf("Cannot handle statement type %T", s))
	}
}

// lookup resolves a variable name: globals, then locals, then parameters.
func (c *Compiler) lookup(v *ast.Var) (*Symbol, bool) {
	sym, ok := Get(c.Scopes, v.Name)
	if !ok {
		c.errorf(v.Token, "undefined variable %s", v.Name)
	}
	return sym, ok
}

// elementPtr returns the address v designates: the variable itself for
// scalars, the indexed element for arrays.
func (c *Compiler) elementPtr(sym *Symbol, v *ast.Var) (llvm.Value, Type, bool) {
	if len(v.Indices) == 0 {
		if sym.IsArray() {
			c.errorf(v.Token, "array %s used without an index", v.Name)
			return llvm.Value{}, nil, false
		}
		return sym.Val, sym.Type, true
	}
	if len(v.Indices) != sym.Dims() {
		c.errorf(v.Token, "%s expects %d index(es), got %d", v.Name, sym.Dims(), len(v.Indices))
		return llvm.Value{}, nil, false
	}

	idx := make([]llvm.Value, len(v.Indices))
	for i, e := range v.Indices {
		idx[i] = c.toI32(c.compileScalar(e))
	}

	arr := sym.Type.(Array)
	if sym.Param {
		if len(idx) > 1 {
			c.errorf(v.Token, "two-dimensional array parameter %s cannot be indexed", v.Name)
			return llvm.Value{}, nil, false
		}
		base := c.createLoad(sym.Val, Ptr{Elem: arr.Elem}, v.Name)
		return c.builder.CreateGEP(c.mapToLLVMType(arr.Elem), base, idx, v.Name+"_elem"), arr.Elem, true
	}

	zero := c.ConstI32(0)
	gepIdx := append([]llvm.Value{zero}, idx...)
	return c.builder.CreateGEP(c.mapToLLVMType(arr), sym.Val, gepIdx, v.Name+"_elem"), arr.Elem, true
}

// decay returns a pointer to the first element of an unindexed array, the
// form in which arrays are passed to functions.
func (c *Compiler) decay(sym *Symbol, name string) llvm.Value {
	arr := sym.Type.(Array)
	if sym.Param {
		return c.createLoad(sym.Val, Ptr{Elem: arr.Elem}, name)
	}
	zeros := make([]llvm.Value, len(arr.Dims)+1)
	for i := range zeros {
		zeros[i] = c.ConstI32(0)
	}
	return c.builder.CreateGEP(c.mapToLLVMType(arr), sym.Val, zeros, name+"_ptr")
}

// compileAssign stores the converted value and yields it, so an assignment
// can be used as an expression.
func (c *Compiler) compileAssign(a *ast.Assign) llvm.Value {
	val := c.compileScalar(a.Value)
	sym, ok := c.lookup(a.Target)
	if !ok {
		return val
	}
	ptr, t, ok := c.elementPtr(sym, a.Target)
	if !ok {
		return val
	}
	val = c.convert(val, t)
	c.createStore(val, ptr, t)
	return val
}

func (c *Compiler) compileRead(r *ast.Read) {
	sym, ok := c.lookup(r.Target)
	if !ok {
		return
	}
	ptr, t, ok := c.elementPtr(sym, r.Target)
	if !ok {
		return
	}
	fnName := READ_INT
	if t.Kind() == FloatKind {
		fnName = READ_FLOAT
	}
	fnType, fn := c.GetCFunc(fnName)
	val := c.builder.CreateCall(fnType, fn, nil, "read_tmp")
	c.createStore(val, ptr, t)
}

func (c *Compiler) compileWrite(w *ast.Write) {
	val := c.widenBool(c.compileScalar(w.Value))
	fnName := WRITE_INT
	if TypeOf(val).Kind() == FloatKind {
		fnName = WRITE_FLOAT
	}
	fnType, fn := c.GetCFunc(fnName)
	c.builder.CreateCall(fnType, fn, []llvm.Value{val}, "")
}

func (c *Compiler) compileExpression(expr ast.Expression) llvm.Value {
	switch e := expr.(type) {
	case *ast.Number:
		return c.compileNumber(e)
	case *ast.Var:
		return c.compileVar(e)
	case *ast.Assign:
		return c.compileAssign(e)
	case *ast.Unary:
		return c.compileUnary(e.Token.Type, c.compileScalar(e.X))
	case *ast.Binary:
		left := c.compileScalar(e.Left)
		right := c.compileScalar(e.Right)
		return c.compileBinary(e.Token.Type, left, right)
	case *ast.Call:
		return c.compileCall(e)
	default:
		panic(fmt.Sprintf("unsupported expression type %T", e))
	}
}

// compileValue compiles an expression whose result is consumed. Calls to
// functions without a return value are rejected.
func (c *Compiler) compileValue(expr ast.Expression) llvm.Value {
	val := c.compileExpression(expr)
	if val.IsNil() {
		return c.ConstI32(0)
	}
	if TypeOf(val).Kind() == VoidKind {
		c.errorf(expr.Tok(), "%s does not return a value", expr.String())
		return c.ConstI32(0)
	}
	return val
}

// compileScalar compiles an operand that must be a number, rejecting a
// whole array.
func (c *Compiler) compileScalar(expr ast.Expression) llvm.Value {
	val := c.compileValue(expr)
	if TypeOf(val).Kind() == PtrKind {
		c.errorf(expr.Tok(), "array %s used without an index", expr.String())
		return c.ConstI32(0)
	}
	return val
}

func (c *Compiler) compileNumber(n *ast.Number) llvm.Value {
	if n.IsInt() {
		v, err := strconv.ParseInt(n.Text, 10, 32)
		if err != nil {
			c.errorf(n.Token, "integer literal %s out of range", n.Text)
			return c.ConstI32(0)
		}
		return c.ConstI32(v)
	}
	v, err := strconv.ParseFloat(n.Text, 32)
	if err != nil {
		c.errorf(n.Token, "invalid float literal %s", n.Text)
		return llvm.ConstFloat(c.Context.FloatType(), 0)
	}
	return llvm.ConstFloat(c.Context.FloatType(), v)
}

func (c *Compiler) compileVar(v *ast.Var) llvm.Value {
	sym, ok := c.lookup(v)
	if !ok {
		return c.ConstI32(0)
	}
	if sym.IsArray() && len(v.Indices) == 0 {
		return c.decay(sym, v.Name)
	}
	ptr, t, ok := c.elementPtr(sym, v)
	if !ok {
		return c.ConstI32(0)
	}
	return c.createLoad(ptr, t, v.Name)
}

// GenerateIR returns the textual module.
func (c *Compiler) GenerateIR() string {
	return c.Module.String()
}

// Verify runs the LLVM module verifier.
func (c *Compiler) Verify() error {
	return llvm.VerifyModule(c.Module, llvm.ReturnStatusAction)
}
