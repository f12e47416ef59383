// Package sema checks a T++ parse tree: it builds the symbol table and
// reports declaration, initialization, coercion, return and call problems.
// Every finding is a diagnostic; nothing here stops compilation.
package sema

import (
	"strconv"

	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/diag"
	"github.com/tpplang/tppc/types"
)

// Semantic diagnostic codes.
const (
	ErrMainNotDecl        = "ERR-SEM-MAIN-NOT-DECL"
	WarnVarDeclPrev       = "WAR-SEM-VAR-DECL-PREV"
	WarnFuncDeclPrev      = "WAR-SEM-FUNC-DECL-PREV"
	ErrArrayIndexNotInt   = "ERR-SEM-ARRAY-INDEX-NOT-INT"
	ErrVarNotDecl         = "ERR-SEM-VAR-NOT-DECL"
	WarnCoercionOfVar     = "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-VAR"
	WarnCoercionOfRetVal  = "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-RET-VAL"
	WarnCoercionOfNum     = "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-NUM"
	WarnCoercionOfExp     = "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-EXP"
	WarnVarNotUsed        = "WAR-SEM-VAR-DECL-NOT-USED"
	WarnVarInitNotUsed    = "WAR-SEM-VAR-DECL-INIT-NOT-USED"
	WarnVarNotInit        = "WAR-SEM-VAR-DECL-NOT-INIT"
	ErrFuncRetType        = "ERR-SEM-FUNC-RET-TYPE-ERROR"
	ErrCallFuncNotDecl    = "ERR-SEM-CALL-FUNC-NOT-DECL"
	ErrCallMainNotAllowed = "ERR-SEM-CALL-FUNC-MAIN-NOT-ALLOWED"
	WarnCallRecMain       = "WAR-SEM-CALL-REC-FUNC-MAIN"
	ErrCallFewArgs        = "ERR-SEM-CALL-FUNC-WITH-FEW-ARGS"
	ErrCallManyArgs       = "ERR-SEM-CALL-FUNC-WITH-MANY-ARGS"
	WarnFuncNotUsed       = "WAR-SEM-FUNC-DECL-NOT-USED"
)

// Analyzer holds the state of one analysis. Use a fresh Analyzer per tree.
type Analyzer struct {
	Table    *Table
	reported VarErrorSet
	diags    diag.List
	funcs    []function
}

// function is a well-formed function declaration found in the tree.
type function struct {
	name   string
	typ    string
	header *cst.Node // cabecalho
}

func New() *Analyzer {
	return &Analyzer{
		Table:    &Table{},
		reported: VarErrorSet{},
	}
}

// Analyze runs every check over root and returns the findings in report
// order. A nil root yields no findings.
func (a *Analyzer) Analyze(root *cst.Node) diag.List {
	if root == nil || len(root.Children) == 0 {
		return a.diags
	}
	decls := root.Children[0].Items("lista_declaracoes")

	a.declareGlobals(decls)
	a.declareLocals()

	a.checkMain()
	a.checkFlow(decls)
	a.checkVariableUsage()
	a.checkReturns()
	a.checkCalls(root)
	a.checkUnusedFunctions()

	return a.diags
}

// Diagnostics returns the findings reported so far.
func (a *Analyzer) Diagnostics() diag.List {
	return a.diags
}

// ErrorSet exposes the variables already blamed for an error.
func (a *Analyzer) ErrorSet() VarErrorSet {
	return a.reported
}

func (a *Analyzer) report(code string, line int, kv ...string) {
	a.diags = append(a.diags, diag.New(code, line, 0, kv...))
}

// declareGlobals registers top-level variables and every function signature.
func (a *Analyzer) declareGlobals(decls []*cst.Node) {
	for _, d := range decls {
		if d.IsError() || d.Child(0) == nil || d.Child(0).IsError() {
			continue
		}
		inner := d.Children[0]
		switch inner.Name {
		case "declaracao_variaveis":
			a.declareVariables(inner, types.GlobalScope)
		case "declaracao_funcao":
			a.declareFunction(inner)
		}
	}
}

// declareLocals registers the variables declared anywhere in each function
// body, nested se and repita bodies included.
func (a *Analyzer) declareLocals() {
	for _, f := range a.funcs {
		body := f.header.Children[4]
		body.Walk(func(n *cst.Node) bool {
			if n.IsError() {
				return false
			}
			if !n.IsLeaf() && n.Name == "declaracao_variaveis" {
				a.declareVariables(n, f.name)
				return false
			}
			return true
		})
	}
}

func (a *Analyzer) declareVariables(n *cst.Node, scope string) {
	typ := n.Children[0].Child(0).Text()
	for _, v := range n.Children[2].Items("lista_variaveis") {
		if v.IsError() {
			continue
		}
		a.declareVariable(v, typ, scope)
	}
}

func (a *Analyzer) declareVariable(v *cst.Node, typ, scope string) {
	name := varName(v)
	e := &Entry{Kind: Variable, Type: typ, Name: name, Scope: scope, Line: v.Line}

	sizes := indexExprs(v)
	e.Dims = len(sizes)
	for i, size := range sizes {
		text := exprText(size)
		if i == 0 {
			e.Size1 = text
		} else {
			e.Size2 = text
		}
		if num := soleNumber(size); num != nil && numberType(num) == types.Float {
			e.Errors++
			if a.reported.Add(name, scope) {
				a.report(ErrArrayIndexNotInt, v.Line, "name", name)
			}
		}
	}

	if prev, ok := a.Table.add(e); !ok {
		a.report(WarnVarDeclPrev, v.Line, "name", name, "type", prev.Type)
	}
}

func (a *Analyzer) declareFunction(n *cst.Node) {
	typ := types.Void
	header := n.Children[0]
	if header.Name == "tipo" {
		typ = header.Child(0).Text()
		header = n.Child(1)
	}
	if header == nil || header.IsError() || header.Name != "cabecalho" {
		return
	}

	name := header.Children[0].Text()
	e := &Entry{Kind: Function, Type: typ, Name: name, Scope: types.GlobalScope, Line: header.Line}
	for _, p := range header.Children[2].Items("lista_parametros") {
		if p.IsError() {
			continue
		}
		e.Params = append(e.Params, paramOf(p))
	}
	// the entry point counts as used
	e.Used = name == types.EntryName

	if prev, ok := a.Table.add(e); !ok {
		a.report(WarnFuncDeclPrev, header.Line, "name", name, "type", prev.Type)
		return
	}
	a.funcs = append(a.funcs, function{name: name, typ: typ, header: header})
}

func (a *Analyzer) checkMain() {
	if a.Table.Function(types.EntryName) == nil {
		a.report(ErrMainNotDecl, 0)
	}
}

// resolve finds the declaration name refers to from scope: a local first,
// then a parameter of the enclosing function, then a global. For parameters
// the entry is nil and typ carries the parameter type.
func (a *Analyzer) resolve(name, scope string) (e *Entry, typ string, ok bool) {
	if scope != types.GlobalScope {
		if e := a.Table.Lookup(name, scope); e != nil && e.Kind == Variable {
			return e, e.Type, true
		}
		if fn := a.Table.Function(scope); fn != nil {
			for _, p := range fn.Params {
				if p.Name == name {
					return nil, p.Type, true
				}
			}
		}
	}
	if e := a.Table.Lookup(name, types.GlobalScope); e != nil && e.Kind == Variable {
		return e, e.Type, true
	}
	return nil, "", false
}

func (a *Analyzer) notDeclared(name, scope string, line int) {
	if a.reported.Add(name, scope) {
		a.report(ErrVarNotDecl, line, "name", name)
	}
}

func paramOf(p *cst.Node) Param {
	dims := 0
	for p.Children[0].Name == "parametro" {
		dims++
		p = p.Children[0]
	}
	return Param{
		Name: p.Children[2].Text(),
		Type: p.Children[0].Child(0).Text(),
		Dims: dims,
	}
}

func varName(v *cst.Node) string {
	return v.Children[0].Text()
}

// indexExprs returns the index expressions of a var node in source order.
func indexExprs(v *cst.Node) []*cst.Node {
	if len(v.Children) < 2 {
		return nil
	}
	var out []*cst.Node
	var collect func(n *cst.Node)
	collect = func(n *cst.Node) {
		for _, c := range n.Children {
			switch c.Name {
			case "indice":
				collect(c)
			case "expressao":
				out = append(out, c)
			}
		}
	}
	collect(v.Children[1])
	return out
}

// soleNumber returns the numero node when the expression is nothing but a
// literal.
func soleNumber(expr *cst.Node) *cst.Node {
	n := expr
	for len(n.Children) == 1 {
		if n.Name == "numero" {
			return n
		}
		n = n.Children[0]
	}
	return nil
}

func numberType(num *cst.Node) string {
	if num.Children[0].Name == "NUM_INTEIRO" {
		return types.Int
	}
	return types.Float
}

// exprText renders the source lexemes of a subtree separated by spaces.
func exprText(n *cst.Node) string {
	var out []byte
	n.Walk(func(c *cst.Node) bool {
		if c.IsLeaf() && c.Name != "vazio" && c.Parent != nil && len(c.Parent.Children) == 1 {
			if len(out) > 0 {
				out = append(out, ' ')
			}
			out = append(out, c.Name...)
		}
		return true
	})
	return string(out)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
