package sema

import "github.com/tpplang/tppc/types"

type Kind int

const (
	Variable Kind = iota
	Function
)

func (k Kind) String() string {
	if k == Function {
		return "function"
	}
	return "variable"
}

// Param is one entry of a function's parameter list.
type Param struct {
	Name string
	Type string
	Dims int
}

// Entry is one declared variable or function.
type Entry struct {
	Kind  Kind
	Type  string // types.Int, types.Float, or types.Void for functions without a return type
	Name  string
	Scope string // types.GlobalScope or the enclosing function's name
	Line  int

	// variables
	Dims   int
	Size1  string
	Size2  string
	Init   bool
	Errors int

	// functions
	Params []Param

	Used bool
}

// Table holds entries in declaration order. (Name, Scope) is unique: the first
// declaration wins.
type Table struct {
	Entries []*Entry
}

// Lookup finds the entry declared exactly in scope.
func (t *Table) Lookup(name, scope string) *Entry {
	for _, e := range t.Entries {
		if e.Name == name && e.Scope == scope {
			return e
		}
	}
	return nil
}

// Function finds a declared function.
func (t *Table) Function(name string) *Entry {
	e := t.Lookup(name, types.GlobalScope)
	if e == nil || e.Kind != Function {
		return nil
	}
	return e
}

// Functions returns function entries in declaration order.
func (t *Table) Functions() []*Entry {
	return t.filter(Function)
}

// Variables returns variable entries in declaration order.
func (t *Table) Variables() []*Entry {
	return t.filter(Variable)
}

func (t *Table) filter(k Kind) []*Entry {
	var out []*Entry
	for _, e := range t.Entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// add appends e unless (name, scope) is taken, in which case it returns the
// existing entry and false.
func (t *Table) add(e *Entry) (*Entry, bool) {
	if prev := t.Lookup(e.Name, e.Scope); prev != nil {
		return prev, false
	}
	t.Entries = append(t.Entries, e)
	return e, true
}

type varKey struct {
	name  string
	scope string
}

// VarErrorSet records the (name, scope) pairs already reported, so a variable
// is blamed at most once per compilation.
type VarErrorSet map[varKey]struct{}

func (s VarErrorSet) Has(name, scope string) bool {
	_, ok := s[varKey{name, scope}]
	return ok
}

// Add records (name, scope) and reports whether it was new.
func (s VarErrorSet) Add(name, scope string) bool {
	k := varKey{name, scope}
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}
