package ast

import (
	"bytes"
	"strings"

	"github.com/tpplang/tppc/token"
)

// The base Node interface
type Node interface {
	Tok() token.Token
	String() string
}

// All statement nodes implement this
type Statement interface {
	Node
	statementNode()
}

// All expression nodes implement this
type Expression interface {
	Node
	expressionNode()
}

// Program holds the top-level declarations in source order: *VarDecl,
// *FuncDecl and *Assign (global initialization).
type Program struct {
	Decls []Statement
}

func (p *Program) Tok() token.Token {
	if len(p.Decls) > 0 {
		return p.Decls[0].Tok()
	}
	return token.Token{Type: token.EOF}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, d := range p.Decls {
		out.WriteString(d.String())
		out.WriteString("\n")
	}
	return out.String()
}

func joinExprs(a []Expression) string {
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func writeBlock(out *bytes.Buffer, stmts []Statement) {
	for _, s := range stmts {
		out.WriteString(" ")
		out.WriteString(s.String())
		out.WriteString(";")
	}
}

// Statements
type VarDecl struct {
	Token token.Token // the type token
	Type  string
	Vars  []*Var
}

func (vd *VarDecl) statementNode()   {}
func (vd *VarDecl) Tok() token.Token { return vd.Token }
func (vd *VarDecl) String() string {
	vars := make([]Expression, len(vd.Vars))
	for i, v := range vd.Vars {
		vars[i] = v
	}
	return vd.Type + ": " + joinExprs(vars)
}

type Param struct {
	Token token.Token // the name
	Type  string
	Name  string
	Dims  int
}

func (p *Param) String() string {
	return p.Type + ": " + p.Name + strings.Repeat("[]", p.Dims)
}

type FuncDecl struct {
	Token      token.Token // the name
	ReturnType string      // types.Void when omitted
	Name       string
	Params     []*Param
	Body       []Statement
}

func (fd *FuncDecl) statementNode()   {}
func (fd *FuncDecl) Tok() token.Token { return fd.Token }
func (fd *FuncDecl) String() string {
	var out bytes.Buffer

	params := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = p.String()
	}

	out.WriteString(fd.ReturnType + " " + fd.Name)
	out.WriteString("(" + strings.Join(params, ", ") + ")")
	writeBlock(&out, fd.Body)
	out.WriteString(" fim")

	return out.String()
}

// Assign is both a statement and an expression: x := y := 1 is legal.
type Assign struct {
	Token  token.Token // the := token
	Target *Var
	Value  Expression
}

func (a *Assign) statementNode()   {}
func (a *Assign) expressionNode()  {}
func (a *Assign) Tok() token.Token { return a.Token }
func (a *Assign) String() string {
	return a.Target.String() + " := " + a.Value.String()
}

type If struct {
	Token   token.Token // se
	Cond    Expression
	Then    []Statement
	Else    []Statement
	HasElse bool
}

func (i *If) statementNode()   {}
func (i *If) Tok() token.Token { return i.Token }
func (i *If) String() string {
	var out bytes.Buffer

	out.WriteString("se " + i.Cond.String() + " então")
	writeBlock(&out, i.Then)
	if i.HasElse {
		out.WriteString(" senão")
		writeBlock(&out, i.Else)
	}
	out.WriteString(" fim")

	return out.String()
}

type Repeat struct {
	Token token.Token // repita
	Body  []Statement
	Cond  Expression
}

func (r *Repeat) statementNode()   {}
func (r *Repeat) Tok() token.Token { return r.Token }
func (r *Repeat) String() string {
	var out bytes.Buffer

	out.WriteString("repita")
	writeBlock(&out, r.Body)
	out.WriteString(" até " + r.Cond.String())

	return out.String()
}

type Read struct {
	Token  token.Token // leia
	Target *Var
}

func (r *Read) statementNode()   {}
func (r *Read) Tok() token.Token { return r.Token }
func (r *Read) String() string   { return "leia(" + r.Target.String() + ")" }

type Write struct {
	Token token.Token // escreva
	Value Expression
}

func (w *Write) statementNode()   {}
func (w *Write) Tok() token.Token { return w.Token }
func (w *Write) String() string   { return "escreva(" + w.Value.String() + ")" }

type Return struct {
	Token token.Token // retorna
	Value Expression
}

func (r *Return) statementNode()   {}
func (r *Return) Tok() token.Token { return r.Token }
func (r *Return) String() string   { return "retorna(" + r.Value.String() + ")" }

// ExprStmt is an expression evaluated for its effect, usually a call.
type ExprStmt struct {
	X Expression
}

func (es *ExprStmt) statementNode()   {}
func (es *ExprStmt) Tok() token.Token { return es.X.Tok() }
func (es *ExprStmt) String() string   { return es.X.String() }

// Expressions

// Var is a variable reference with zero, one or two indices.
type Var struct {
	Token   token.Token // the token.IDENT token
	Name    string
	Indices []Expression
}

func (v *Var) expressionNode()  {}
func (v *Var) Tok() token.Token { return v.Token }
func (v *Var) String() string {
	var out bytes.Buffer
	out.WriteString(v.Name)
	for _, idx := range v.Indices {
		out.WriteString("[" + idx.String() + "]")
	}
	return out.String()
}

type Number struct {
	Token token.Token // INT, FLOAT or SCI
	Kind  token.TokenType
	Text  string
}

func (n *Number) expressionNode()  {}
func (n *Number) Tok() token.Token { return n.Token }
func (n *Number) String() string   { return n.Text }

// IsInt reports whether the literal is an integer literal.
func (n *Number) IsInt() bool { return n.Kind == token.INT }

type Unary struct {
	Token token.Token // The prefix token, e.g. !
	Op    string
	X     Expression
}

func (u *Unary) expressionNode()  {}
func (u *Unary) Tok() token.Token { return u.Token }
func (u *Unary) String() string {
	return "(" + u.Op + u.X.String() + ")"
}

type Binary struct {
	Token token.Token // The operator token, e.g. +
	Left  Expression
	Op    string
	Right Expression
}

func (b *Binary) expressionNode()  {}
func (b *Binary) Tok() token.Token { return b.Token }
func (b *Binary) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Op + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")

	return out.String()
}

type Call struct {
	Token token.Token // the function name
	Name  string
	Args  []Expression
}

func (c *Call) expressionNode()  {}
func (c *Call) Tok() token.Token { return c.Token }
func (c *Call) String() string {
	return c.Name + "(" + joinExprs(c.Args) + ")"
}
