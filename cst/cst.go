// Package cst holds the concrete syntax tree built by the parser. Every
// grammar production that was reduced becomes a Node; every consumed terminal
// becomes a wrapper Node named after the terminal with one leaf child holding
// the lexeme.
package cst

import (
	"bytes"
	"strings"
)

// Leaf type tags.
const (
	Symbol  = "SIMBOLO"
	ID      = "ID"
	Value   = "VALOR"
	errorID = "ERR-SYN"
)

type Node struct {
	Name     string
	Type     string
	Line     int
	Children []*Node
	Parent   *Node
}

// New creates a node and adopts children in order.
func New(name, typ string, line int, children ...*Node) *Node {
	n := &Node{Name: name, Type: typ, Line: line}
	for _, c := range children {
		n.Add(c)
	}
	return n
}

// NewError creates the placeholder node a failed production leaves behind.
func NewError(code string, line int) *Node {
	return &Node{Name: code, Type: code, Line: line}
}

// Add appends c as the last child of n. A nil child is ignored.
func (n *Node) Add(c *Node) {
	if c == nil {
		return
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// IsError reports whether n is a syntax error placeholder.
func (n *Node) IsError() bool {
	return strings.HasPrefix(n.Type, errorID)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Text returns the lexeme under a terminal wrapper node.
func (n *Node) Text() string {
	if len(n.Children) == 1 && n.Children[0].IsLeaf() {
		return n.Children[0].Name
	}
	return n.Name
}

// Items flattens a left-recursive list node (lista_declaracoes, corpo,
// lista_argumentos, ...) into its elements in source order, dropping the
// VIRGULA separators and the vazio placeholder.
func (n *Node) Items(list string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		switch {
		case c.Name == list:
			out = append(out, c.Items(list)...)
		case c.Name == "vazio" || c.Name == "VIRGULA":
		default:
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants in pre-order. Returning false from visit
// skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// FindAll returns every inner node of the subtree rooted at n (n included)
// with the given name, in pre-order. Lexeme leaves never match.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if !c.IsLeaf() && c.Name == name {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Ancestor returns the closest ancestor with the given name, or nil.
func (n *Node) Ancestor(name string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HasErrors reports whether the subtree rooted at n contains an error node.
func (n *Node) HasErrors() bool {
	found := false
	n.Walk(func(c *Node) bool {
		if c.IsError() {
			found = true
		}
		return !found
	})
	return found
}

// Equal compares two trees by name, type and shape, ignoring lines.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Type != b.Type || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree as an s-expression, e.g.
// (programa (lista_declaracoes ...)).
func (n *Node) String() string {
	var out bytes.Buffer
	n.write(&out)
	return out.String()
}

func (n *Node) write(out *bytes.Buffer) {
	if n.IsLeaf() {
		out.WriteString(n.Name)
		return
	}
	out.WriteString("(")
	out.WriteString(n.Name)
	for _, c := range n.Children {
		out.WriteString(" ")
		c.write(out)
	}
	out.WriteString(")")
}
