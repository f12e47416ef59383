package compiler

type ScopeKind int

const (
	GlobalScope ScopeKind = iota
	LocalScope
	ParamScope
)

type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func PushScope[T any](scopes *[]Scope[T], sk ScopeKind) {
	*scopes = append(*scopes, NewScope[T](sk))
}

func PopScope[T any](scopes *[]Scope[T]) {
	if len(*scopes) == 1 {
		panic("cannot pop global scope")
	}
	*scopes = (*scopes)[:len(*scopes)-1]
}

// Put adds elem to the innermost scope of kind sk.
func Put[T any](scopes []Scope[T], sk ScopeKind, name string, elem T) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i].ScopeKind == sk {
			scopes[i].Elems[name] = elem
			return
		}
	}
	panic("no open scope of the requested kind")
}

// Has reports whether the innermost scope of kind sk already holds name.
func Has[T any](scopes []Scope[T], sk ScopeKind, name string) bool {
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i].ScopeKind == sk {
			_, ok := scopes[i].Elems[name]
			return ok
		}
	}
	return false
}

// Get searches scopes in the order they were opened: globals, then the
// function's locals, then its parameters. The first match wins, so a global
// hides a local of the same name.
func Get[T any](scopes []Scope[T], name string) (T, bool) {
	for i := range scopes {
		if e, ok := scopes[i].Elems[name]; ok {
			return e, true
		}
	}

	var zero T
	return zero, false
}
