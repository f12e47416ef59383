package types

// Scalar type names as written in source.
const (
	Int   = "inteiro"
	Float = "flutuante"
	Void  = "vazio"
)

// EntryName is the source name of the program entry point, NativeEntryName
// the symbol it is emitted as.
const (
	EntryName       = "principal"
	NativeEntryName = "main"
)

// GlobalScope is the scope name of top-level declarations.
const GlobalScope = "global"

// External I/O functions every module declares.
const (
	ReadInt    = "leiaInteiro"
	ReadFloat  = "leiaFlutuante"
	WriteInt   = "escrevaInteiro"
	WriteFloat = "escrevaFlutuante"
)

var reservedTypeSet = map[string]struct{}{
	Int:   {},
	Float: {},
}

// IsReservedTypeName reports whether name is a declarable scalar type.
func IsReservedTypeName(name string) bool {
	_, ok := reservedTypeSet[name]
	return ok
}

// IOFunctions lists the external I/O symbols in declaration order.
func IOFunctions() []string {
	return []string{ReadInt, ReadFloat, WriteInt, WriteFloat}
}
