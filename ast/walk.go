package ast

import "fmt"

// Inspect traverses the tree rooted at node in depth-first order, calling f
// for each node. If f returns false the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		inspectStmts(n.Decls, f)
	case *VarDecl:
		for _, v := range n.Vars {
			Inspect(v, f)
		}
	case *FuncDecl:
		inspectStmts(n.Body, f)
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *If:
		Inspect(n.Cond, f)
		inspectStmts(n.Then, f)
		inspectStmts(n.Else, f)
	case *Repeat:
		inspectStmts(n.Body, f)
		Inspect(n.Cond, f)
	case *Read:
		Inspect(n.Target, f)
	case *Write:
		Inspect(n.Value, f)
	case *Return:
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *Var:
		inspectExprs(n.Indices, f)
	case *Binary:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Unary:
		Inspect(n.X, f)
	case *Call:
		inspectExprs(n.Args, f)
	case *Number:
	default:
		panic(fmt.Sprintf("ast.Inspect: unexpected node type %T", n))
	}
}

func inspectStmts(stmts []Statement, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

func inspectExprs(exprs []Expression, f func(Node) bool) {
	for _, e := range exprs {
		Inspect(e, f)
	}
}
