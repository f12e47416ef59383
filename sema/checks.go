package sema

import (
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/types"
)

// checkFlow walks every statement in source order, resolving variable
// references and recording initialization and use.
func (a *Analyzer) checkFlow(decls []*cst.Node) {
	for _, d := range decls {
		if d.IsError() || d.Child(0) == nil || d.Child(0).IsError() {
			continue
		}
		inner := d.Children[0]
		switch inner.Name {
		case "inicializacao_variaveis":
			a.walk(inner, types.GlobalScope)
		case "declaracao_funcao":
			header := inner.Children[len(inner.Children)-1]
			if header.IsError() || header.Name != "cabecalho" || !a.live(header) {
				continue
			}
			a.walk(header.Children[4], header.Children[0].Text())
		}
	}
}

// live reports whether header belongs to a function that was declared, as
// opposed to a rejected redeclaration.
func (a *Analyzer) live(header *cst.Node) bool {
	for _, f := range a.funcs {
		if f.header == header {
			return true
		}
	}
	return false
}

func (a *Analyzer) walk(n *cst.Node, scope string) {
	if n.IsError() || n.IsLeaf() {
		return
	}
	switch n.Name {
	case "declaracao_variaveis":
		return
	case "atribuicao":
		a.assignment(n, scope)
		return
	case "leia":
		if e, _, ok := a.target(n.Children[2], scope); ok && e != nil {
			e.Init = true
		}
		return
	case "var":
		a.use(n, scope)
		return
	case "chamada_funcao":
		if fn := a.Table.Function(n.Children[0].Text()); fn != nil {
			fn.Used = true
		}
		a.walk(n.Children[2], scope)
		return
	}
	for _, c := range n.Children {
		a.walk(c, scope)
	}
}

// use records a read of v.
func (a *Analyzer) use(v *cst.Node, scope string) {
	for _, idx := range indexExprs(v) {
		a.walk(idx, scope)
	}
	name := varName(v)
	e, _, ok := a.resolve(name, scope)
	if !ok {
		a.notDeclared(name, scope, v.Line)
		return
	}
	if e != nil {
		e.Used = true
	}
}

// target resolves the destination of an assignment or leia. Index
// expressions are reads.
func (a *Analyzer) target(v *cst.Node, scope string) (*Entry, string, bool) {
	if v.IsError() {
		return nil, "", false
	}
	for _, idx := range indexExprs(v) {
		a.walk(idx, scope)
	}
	name := varName(v)
	e, typ, ok := a.resolve(name, scope)
	if !ok {
		a.notDeclared(name, scope, v.Line)
	}
	return e, typ, ok
}

func (a *Analyzer) assignment(n *cst.Node, scope string) {
	target, value := n.Children[0], n.Children[2]
	e, typ, ok := a.target(target, scope)
	if ok {
		a.checkCoercion(varName(target), typ, value, scope, n.Line)
		if e != nil {
			e.Init = true
		}
	}
	a.walk(value, scope)
}

type operandKind int

const (
	operandVar operandKind = iota
	operandCall
	operandNum
)

type operand struct {
	text string
	typ  string
	kind operandKind
}

// operands lists the typed leaves of an expression: variables, calls and
// numbers. Index expressions and call arguments are not searched; an inner
// assignment stands for its target.
func (a *Analyzer) operands(n *cst.Node, scope string) []operand {
	var out []operand
	var collect func(n *cst.Node)
	collect = func(n *cst.Node) {
		if n.IsError() || n.IsLeaf() {
			return
		}
		switch n.Name {
		case "var":
			name := varName(n)
			if _, typ, ok := a.resolve(name, scope); ok {
				out = append(out, operand{text: name, typ: typ, kind: operandVar})
			}
		case "chamada_funcao":
			name := n.Children[0].Text()
			if fn := a.Table.Function(name); fn != nil {
				out = append(out, operand{text: name, typ: fn.Type, kind: operandCall})
			}
		case "numero":
			out = append(out, operand{text: n.Children[0].Text(), typ: numberType(n), kind: operandNum})
		case "atribuicao":
			collect(n.Children[0])
		default:
			for _, c := range n.Children {
				collect(c)
			}
		}
	}
	collect(n)
	return out
}

// inferType returns the first operand type that differs from want, or want
// when every operand agrees.
func inferType(ops []operand, want string) string {
	for _, op := range ops {
		if op.typ != want {
			return op.typ
		}
	}
	return want
}

func (a *Analyzer) checkCoercion(name, typ string, value *cst.Node, scope string, line int) {
	ops := a.operands(value, scope)
	switch len(ops) {
	case 0:
		return
	case 1:
		op := ops[0]
		if op.typ == typ {
			return
		}
		code := WarnCoercionOfVar
		switch op.kind {
		case operandCall:
			code = WarnCoercionOfRetVal
		case operandNum:
			code = WarnCoercionOfNum
		}
		a.report(code, line, "name", name, "type", typ, "value", op.text, "valueType", op.typ)
	default:
		got := inferType(ops, typ)
		if got == typ {
			return
		}
		a.report(WarnCoercionOfExp, line, "name", name, "type", typ, "value", exprText(value), "valueType", got)
	}
}

// checkVariableUsage reports variables that were never used or never
// initialized. Variables already blamed for an error are skipped.
func (a *Analyzer) checkVariableUsage() {
	for _, e := range a.Table.Variables() {
		if e.Errors > 0 || a.reported.Has(e.Name, e.Scope) {
			continue
		}
		switch {
		case !e.Used && !e.Init:
			a.report(WarnVarNotUsed, e.Line, "name", e.Name)
		case !e.Used && e.Init:
			a.report(WarnVarInitNotUsed, e.Line, "name", e.Name)
		case e.Used && !e.Init:
			a.report(WarnVarNotInit, e.Line, "name", e.Name)
		}
	}
}

// checkReturns compares the type of every retorna with the declared return
// type. A typed function without any retorna returns vazio.
func (a *Analyzer) checkReturns() {
	for _, f := range a.funcs {
		rets := a.returns(f.header.Children[4])
		if len(rets) == 0 {
			if f.typ != types.Void {
				a.report(ErrFuncRetType, f.header.Line, "name", f.name, "type", f.typ, "got", types.Void)
			}
			continue
		}
		for _, r := range rets {
			ops := a.operands(r.Children[2], f.name)
			got := inferType(ops, f.typ)
			if got != f.typ {
				a.report(ErrFuncRetType, r.Line, "name", f.name, "type", f.typ, "got", got)
			}
		}
	}
}

func (a *Analyzer) returns(body *cst.Node) []*cst.Node {
	var out []*cst.Node
	body.Walk(func(n *cst.Node) bool {
		if n.IsError() {
			return false
		}
		if !n.IsLeaf() && n.Name == "retorna" {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// checkCalls validates every well-formed call in the tree.
func (a *Analyzer) checkCalls(root *cst.Node) {
	for _, call := range root.FindAll("chamada_funcao") {
		name := call.Children[0].Text()
		fn := a.Table.Function(name)
		if fn == nil {
			a.report(ErrCallFuncNotDecl, call.Line, "name", name)
			continue
		}
		if name == types.EntryName {
			if caller := enclosingFunction(call); caller == types.EntryName {
				a.report(WarnCallRecMain, call.Line, "name", name)
			}
			a.report(ErrCallMainNotAllowed, call.Line, "name", name)
			continue
		}
		args := call.Children[2].Items("lista_argumentos")
		if len(args) < len(fn.Params) {
			a.report(ErrCallFewArgs, call.Line, "name", name, "got", itoa(len(args)), "expected", itoa(len(fn.Params)))
		} else if len(args) > len(fn.Params) {
			a.report(ErrCallManyArgs, call.Line, "name", name, "got", itoa(len(args)), "expected", itoa(len(fn.Params)))
		}
	}
}

// enclosingFunction names the function a node belongs to, or the global
// scope for top-level initializations.
func enclosingFunction(n *cst.Node) string {
	if h := n.Ancestor("cabecalho"); h != nil {
		return h.Children[0].Text()
	}
	return types.GlobalScope
}

func (a *Analyzer) checkUnusedFunctions() {
	for _, fn := range a.Table.Functions() {
		if !fn.Used {
			a.report(WarnFuncNotUsed, fn.Line, "name", fn.Name)
		}
	}
}
