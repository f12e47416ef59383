// Package prune converts the concrete syntax tree into the compact AST the
// code generator consumes. Pure syntax (parentheses, separators, the
// precedence ladder, left-recursive list spines) is dropped; the literal text
// it guarded is kept on the AST nodes.
package prune

import (
	"errors"
	"fmt"

	"github.com/tpplang/tppc/ast"
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/token"
	"github.com/tpplang/tppc/types"
)

var (
	ErrNoTree      = errors.New("no syntax tree to prune")
	ErrSyntaxError = errors.New("syntax tree contains errors")
)

// Program converts a parse tree rooted at "programa". The tree must be free of
// syntax errors. Shapes the grammar cannot produce panic.
func Program(root *cst.Node) (*ast.Program, error) {
	if root == nil {
		return nil, ErrNoTree
	}
	if root.HasErrors() {
		return nil, ErrSyntaxError
	}
	if root.Name != "programa" {
		return nil, fmt.Errorf("root node is %q, want programa", root.Name)
	}

	program := &ast.Program{}
	for _, decl := range root.Children[0].Items("lista_declaracoes") {
		program.Decls = append(program.Decls, declaration(decl))
	}
	return program, nil
}

// tok rebuilds the token held by a terminal wrapper node.
func tok(n *cst.Node) token.Token {
	t, ok := token.FromTerminal(n.Name)
	if !ok {
		panic(fmt.Sprintf("prune: %q is not a terminal", n.Name))
	}
	return token.Token{Type: t, Literal: n.Text(), Line: n.Line}
}

func unexpected(n *cst.Node) string {
	return fmt.Sprintf("prune: unexpected node %s (%d children) at line %d", n.Name, len(n.Children), n.Line)
}

func declaration(n *cst.Node) ast.Statement {
	inner := n.Children[0]
	switch inner.Name {
	case "declaracao_variaveis":
		return varDecl(inner)
	case "inicializacao_variaveis":
		return assign(inner.Children[0])
	case "declaracao_funcao":
		return funcDecl(inner)
	default:
		panic(unexpected(inner))
	}
}

func varDecl(n *cst.Node) *ast.VarDecl {
	typeTok := tok(n.Children[0].Children[0])
	vd := &ast.VarDecl{Token: typeTok, Type: typeTok.Literal}
	for _, v := range n.Children[2].Items("lista_variaveis") {
		vd.Vars = append(vd.Vars, variable(v))
	}
	return vd
}

func variable(n *cst.Node) *ast.Var {
	id := tok(n.Children[0])
	v := &ast.Var{Token: id, Name: id.Literal}
	if len(n.Children) == 2 {
		v.Indices = indices(n.Children[1])
	}
	return v
}

// indices unrolls indice -> indice [ expressao ] into source order.
func indices(n *cst.Node) []ast.Expression {
	var out []ast.Expression
	for _, c := range n.Children {
		switch c.Name {
		case "indice":
			out = append(out, indices(c)...)
		case "expressao":
			out = append(out, expression(c))
		}
	}
	return out
}

func funcDecl(n *cst.Node) *ast.FuncDecl {
	returnType := types.Void
	header := n.Children[0]
	if header.Name == "tipo" {
		returnType = header.Child(0).Text()
		header = n.Children[1]
	}
	if header.Name != "cabecalho" || len(header.Children) != 6 {
		panic(unexpected(header))
	}

	name := tok(header.Children[0])
	fd := &ast.FuncDecl{Token: name, ReturnType: returnType, Name: name.Literal}
	for _, p := range header.Children[2].Items("lista_parametros") {
		fd.Params = append(fd.Params, param(p))
	}
	fd.Body = body(header.Children[4])
	return fd
}

func param(n *cst.Node) *ast.Param {
	dims := 0
	for n.Children[0].Name == "parametro" {
		dims++
		n = n.Children[0]
	}
	name := tok(n.Children[2])
	return &ast.Param{
		Token: name,
		Type:  n.Children[0].Child(0).Text(),
		Name:  name.Literal,
		Dims:  dims,
	}
}

func body(n *cst.Node) []ast.Statement {
	var out []ast.Statement
	for _, a := range n.Items("corpo") {
		out = append(out, action(a))
	}
	return out
}

func action(n *cst.Node) ast.Statement {
	inner := n.Children[0]
	switch inner.Name {
	case "declaracao_variaveis":
		return varDecl(inner)
	case "se":
		return ifStmt(inner)
	case "repita":
		return &ast.Repeat{
			Token: tok(inner.Children[0]),
			Body:  body(inner.Children[1]),
			Cond:  expression(inner.Children[3]),
		}
	case "leia":
		return &ast.Read{Token: tok(inner.Children[0]), Target: variable(inner.Children[2])}
	case "escreva":
		return &ast.Write{Token: tok(inner.Children[0]), Value: expression(inner.Children[2])}
	case "retorna":
		return &ast.Return{Token: tok(inner.Children[0]), Value: expression(inner.Children[2])}
	case "expressao":
		e := expression(inner)
		if a, ok := e.(*ast.Assign); ok {
			return a
		}
		return &ast.ExprStmt{X: e}
	default:
		panic(unexpected(inner))
	}
}

func ifStmt(n *cst.Node) *ast.If {
	s := &ast.If{
		Token: tok(n.Children[0]),
		Cond:  expression(n.Children[1]),
		Then:  body(n.Children[3]),
	}
	switch len(n.Children) {
	case 5:
	case 7:
		s.HasElse = true
		s.Else = body(n.Children[5])
	default:
		panic(unexpected(n))
	}
	return s
}

func assign(n *cst.Node) *ast.Assign {
	return &ast.Assign{
		Token:  tok(n.Children[1]),
		Target: variable(n.Children[0]),
		Value:  expression(n.Children[2]),
	}
}

// expression collapses the precedence ladder: a level with one child is
// skipped, a level with three children becomes a Binary.
func expression(n *cst.Node) ast.Expression {
	switch n.Name {
	case "expressao":
		if n.Children[0].Name == "atribuicao" {
			return assign(n.Children[0])
		}
		return expression(n.Children[0])
	case "atribuicao":
		return assign(n)
	case "expressao_logica", "expressao_simples", "expressao_aditiva", "expressao_multiplicativa":
		switch len(n.Children) {
		case 1:
			return expression(n.Children[0])
		case 3:
			opTok := tok(n.Children[1].Children[0])
			return &ast.Binary{
				Token: opTok,
				Left:  expression(n.Children[0]),
				Op:    opTok.Literal,
				Right: expression(n.Children[2]),
			}
		}
	case "expressao_unaria":
		switch len(n.Children) {
		case 1:
			return expression(n.Children[0])
		case 2:
			opTok := tok(n.Children[0].Children[0])
			return &ast.Unary{Token: opTok, Op: opTok.Literal, X: expression(n.Children[1])}
		}
	case "fator":
		if len(n.Children) == 3 {
			return expression(n.Children[1])
		}
		return expression(n.Children[0])
	case "var":
		return variable(n)
	case "numero":
		numTok := tok(n.Children[0])
		return &ast.Number{Token: numTok, Kind: numTok.Type, Text: numTok.Literal}
	case "chamada_funcao":
		name := tok(n.Children[0])
		call := &ast.Call{Token: name, Name: name.Literal}
		for _, arg := range n.Children[2].Items("lista_argumentos") {
			call.Args = append(call.Args, expression(arg))
		}
		return call
	}
	panic(unexpected(n))
}
