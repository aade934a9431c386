// Package types implements the void language's type system: canonical
// type strings and the name/type environments used by the parser and
// emitter.
package types

import "strings"

// Canonical primitive spellings.
const (
	I8    = "i8"
	I16   = "i16"
	I32   = "i32"
	I64   = "i64"
	U8    = "u8"
	U16   = "u16"
	U32   = "u32"
	U64   = "u64"
	Bool  = "bool"
	Nil   = "nil"
	Void  = "void"
	Str   = "string"
	Const = "const string"
)

var integerWidths = map[string]int{
	I8: 8, I16: 16, I32: 32, I64: 64,
	U8: 8, U16: 16, U32: 32, U64: 64,
}

var unsigned = map[string]bool{U8: true, U16: true, U32: true, U64: true}

// IsInteger reports whether t is one of the eight sized-integer spellings.
func IsInteger(t string) bool {
	_, ok := integerWidths[t]
	return ok
}

// Width returns the storage bit width of an integer type, or 0 if t is
// not an integer type.
func Width(t string) int { return integerWidths[t] }

// Signed reports whether an integer type is signed.
func Signed(t string) bool { return IsInteger(t) && !unsigned[t] }

// IsVoid reports whether t is the unit return type. "nil" and "void" are
// both accepted spellings.
func IsVoid(t string) bool { return t == Nil || t == Void }

// IsString reports whether t is "string" or "const string" — both map to
// a byte pointer in IR with no current semantic distinction; the
// qualifier is preserved for future mutability analysis.
func IsString(t string) bool { return t == Str || t == Const }

// IsPointer reports whether t is a pointer type "*T" and, if so, returns
// the pointee type.
func IsPointer(t string) (elem string, ok bool) {
	if strings.HasPrefix(t, "*") {
		return t[1:], true
	}
	return "", false
}

// PointerTo builds the canonical pointer-type string for elem.
func PointerTo(elem string) string { return "*" + elem }

// IsFunctionPointer reports whether t has the canonical function-pointer
// shape "fn(...) -> R".
func IsFunctionPointer(t string) bool {
	return strings.HasPrefix(t, "fn(")
}

// FunctionType is the parsed form of a canonical function-pointer type
// string.
type FunctionType struct {
	Params []string
	Return string
}

// CanonicalFunctionType renders params/ret into the canonical string form
// "fn(T1, T2, …) -> R" with a single space after each comma and around
// the arrow.
func CanonicalFunctionType(params []string, ret string) string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
	}
	b.WriteString(") -> ")
	b.WriteString(ret)
	return b.String()
}

// ParseFunctionType parses the canonical string form back into a
// FunctionType. It assumes t was produced by CanonicalFunctionType or the
// parser's type grammar and is well-formed.
func ParseFunctionType(t string) (FunctionType, bool) {
	if !IsFunctionPointer(t) {
		return FunctionType{}, false
	}
	rest := t[len("fn("):]
	closeIdx := strings.Index(rest, ")")
	if closeIdx < 0 {
		return FunctionType{}, false
	}
	paramList := rest[:closeIdx]
	tail := rest[closeIdx+1:]
	const arrow = " -> "
	arrowIdx := strings.Index(tail, arrow)
	if arrowIdx < 0 {
		return FunctionType{}, false
	}
	ret := tail[arrowIdx+len(arrow):]
	var params []string
	if paramList != "" {
		params = strings.Split(paramList, ", ")
	}
	return FunctionType{Params: params, Return: ret}, true
}

// Environment is the symbol table used by the parser and the emitter:
// variable types plus the function-name → signature table used to
// type-check calls. A child Environment is created per function body
// (named or anonymous); it sees the variables of its enclosing scopes and
// shares the root's function table.
type Environment struct {
	parent    *Environment
	variables map[string]string
	functions map[string]FunctionSignature
}

// FunctionSignature records a top-level function's declared shape for
// arity and return-type lookups during parsing and emission.
type FunctionSignature struct {
	ParamTypes []string
	ReturnType string
}

// NewEnvironment creates a root environment with an empty function table.
func NewEnvironment() *Environment {
	return &Environment{
		variables: make(map[string]string),
		functions: make(map[string]FunctionSignature),
	}
}

// Child creates a nested scope for a function body.
func (e *Environment) Child() *Environment {
	return &Environment{parent: e, variables: make(map[string]string)}
}

func (e *Environment) DeclareVariable(name, typ string) { e.variables[name] = typ }

func (e *Environment) LookupVariable(name string) (string, bool) {
	for env := e; env != nil; env = env.parent {
		if t, ok := env.variables[name]; ok {
			return t, true
		}
	}
	return "", false
}

func (e *Environment) DeclareFunction(name string, sig FunctionSignature) {
	root := e
	for root.parent != nil {
		root = root.parent
	}
	root.functions[name] = sig
}

func (e *Environment) LookupFunction(name string) (FunctionSignature, bool) {
	root := e
	for root.parent != nil {
		root = root.parent
	}
	sig, ok := root.functions[name]
	return sig, ok
}
