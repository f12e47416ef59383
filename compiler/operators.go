package compiler

import (
	"github.com/tpplang/tppc/token"
	"tinygo.org/x/go-llvm"
)

// opKey is used as the key for operator functions. Operands have already
// been brought to a common kind.
type opKey struct {
	Operator token.TokenType
	Kind     Kind
}

// opFunc lowers one binary operator over two values of the same type.
type opFunc func(c *Compiler, left, right llvm.Value) llvm.Value

func icmp(pred llvm.IntPredicate) opFunc {
	return func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateICmp(pred, left, right, "cmp_tmp")
	}
}

func fcmp(pred llvm.FloatPredicate) opFunc {
	return func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateFCmp(pred, left, right, "fcmp_tmp")
	}
}

// defaultOps maps an operator and operand kind to its lowering. Integer
// comparisons are signed, float comparisons ordered.
var defaultOps = map[opKey]opFunc{
	// --- Arithmetic Operators ---
	{Operator: token.ADD, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateAdd(left, right, "add_tmp")
	},
	{Operator: token.ADD, Kind: FloatKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateFAdd(left, right, "fadd_tmp")
	},
	{Operator: token.SUB, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateSub(left, right, "sub_tmp")
	},
	{Operator: token.SUB, Kind: FloatKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateFSub(left, right, "fsub_tmp")
	},
	{Operator: token.MUL, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateMul(left, right, "mul_tmp")
	},
	{Operator: token.MUL, Kind: FloatKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateFMul(left, right, "fmul_tmp")
	},
	{Operator: token.QUO, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateSDiv(left, right, "div_tmp")
	},
	{Operator: token.QUO, Kind: FloatKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		return c.builder.CreateFDiv(left, right, "fdiv_tmp")
	},

	// --- Comparison Operators ---
	{Operator: token.EQL, Kind: IntKind}:   icmp(llvm.IntEQ),
	{Operator: token.NEQ, Kind: IntKind}:   icmp(llvm.IntNE),
	{Operator: token.LSS, Kind: IntKind}:   icmp(llvm.IntSLT),
	{Operator: token.GTR, Kind: IntKind}:   icmp(llvm.IntSGT),
	{Operator: token.LEQ, Kind: IntKind}:   icmp(llvm.IntSLE),
	{Operator: token.GEQ, Kind: IntKind}:   icmp(llvm.IntSGE),
	{Operator: token.EQL, Kind: FloatKind}: fcmp(llvm.FloatOEQ),
	{Operator: token.NEQ, Kind: FloatKind}: fcmp(llvm.FloatONE),
	{Operator: token.LSS, Kind: FloatKind}: fcmp(llvm.FloatOLT),
	{Operator: token.GTR, Kind: FloatKind}: fcmp(llvm.FloatOGT),
	{Operator: token.LEQ, Kind: FloatKind}: fcmp(llvm.FloatOLE),
	{Operator: token.GEQ, Kind: FloatKind}: fcmp(llvm.FloatOGE),

	// --- Logical Operators ---
	// both sides are always evaluated; the i32 result is tested against zero
	{Operator: token.AND, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		and := c.builder.CreateAnd(left, right, "and_tmp")
		return c.builder.CreateICmp(llvm.IntNE, and, c.ConstI32(0), "and_cond")
	},
	{Operator: token.OR, Kind: IntKind}: func(c *Compiler, left, right llvm.Value) llvm.Value {
		or := c.builder.CreateOr(left, right, "or_tmp")
		return c.builder.CreateICmp(llvm.IntNE, or, c.ConstI32(0), "or_cond")
	},
}

// compileBinary evaluates both operands, promotes them to a common kind and
// applies the operator.
func (c *Compiler) compileBinary(op token.TokenType, left, right llvm.Value) llvm.Value {
	kind := IntKind
	if op == token.AND || op == token.OR {
		left = c.toI32(c.toBool(left))
		right = c.toI32(c.toBool(right))
	} else {
		left = c.widenBool(left)
		right = c.widenBool(right)
		if TypeOf(left).Kind() == FloatKind || TypeOf(right).Kind() == FloatKind {
			kind = FloatKind
			left = c.convert(left, F32)
			right = c.convert(right, F32)
		}
	}

	fn, ok := defaultOps[opKey{Operator: op, Kind: kind}]
	if !ok {
		panic("unsupported binary operator " + op.String())
	}
	return fn(c, left, right)
}

// compileUnary lowers -x, +x and !x. Negation of a comparison result works on
// its i32 value.
func (c *Compiler) compileUnary(op token.TokenType, x llvm.Value) llvm.Value {
	x = c.widenBool(x)
	isFloat := TypeOf(x).Kind() == FloatKind
	switch op {
	case token.ADD:
		return x
	case token.SUB:
		if isFloat {
			return c.builder.CreateFNeg(x, "fneg_tmp")
		}
		return c.builder.CreateNeg(x, "neg_tmp")
	case token.NOT:
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOEQ, x, llvm.ConstFloat(c.Context.FloatType(), 0), "not_tmp")
		}
		return c.builder.CreateICmp(llvm.IntEQ, x, c.ConstI32(0), "not_tmp")
	default:
		panic("unsupported unary operator " + op.String())
	}
}

// widenBool turns a comparison result into the i32 the language stores.
func (c *Compiler) widenBool(v llvm.Value) llvm.Value {
	if IsBool(TypeOf(v)) {
		return c.builder.CreateZExt(v, c.Context.Int32Type(), "bool_to_i32")
	}
	return v
}

func (c *Compiler) toI32(v llvm.Value) llvm.Value {
	return c.convert(v, I32)
}

// toBool tests a value against zero, the truth rule for conditions.
func (c *Compiler) toBool(v llvm.Value) llvm.Value {
	t := TypeOf(v)
	switch {
	case IsBool(t):
		return v
	case t.Kind() == FloatKind:
		return c.builder.CreateFCmp(llvm.FloatONE, v, llvm.ConstFloat(c.Context.FloatType(), 0), "to_bool")
	default:
		return c.builder.CreateICmp(llvm.IntNE, v, c.ConstI32(0), "to_bool")
	}
}

// convert performs the implicit conversions allowed at stores, calls,
// returns and writes.
func (c *Compiler) convert(v llvm.Value, to Type) llvm.Value {
	from := TypeOf(v)
	if IsBool(from) && !IsBool(to) {
		v = c.builder.CreateZExt(v, c.Context.Int32Type(), "bool_to_i32")
		from = I32
	}
	switch {
	case from.Kind() == IntKind && to.Kind() == FloatKind:
		return c.builder.CreateSIToFP(v, c.Context.FloatType(), "cast_to_f32")
	case from.Kind() == FloatKind && to.Kind() == IntKind:
		if IsBool(to) {
			return c.toBool(v)
		}
		return c.builder.CreateFPToSI(v, c.Context.Int32Type(), "cast_to_i32")
	case IsInt(from) && IsBool(to):
		return c.toBool(v)
	}
	return v
}
