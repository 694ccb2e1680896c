package clc

import "github.com/gridc-io/gridc/errz"

// typeRef is a parsed kernel-language type.
type typeRef struct {
	Base      string `msgpack:"base"`
	Stars     int    `msgpack:"stars"`      // pointer depth
	AddrSpace string `msgpack:"addr_space"` // global, constant, local or private
}

func (t typeRef) isVoid() bool {
	return t.Base == "void" && t.Stars == 0
}

// param is one parameter of a function declaration.
type param struct {
	Type typeRef
	Name string
}

// call records one call expression found in a function body, for
// declaration checking and call-graph emission.
type call struct {
	Callee string
	Args   int
	Loc    errz.SourceLocation
	Nested []call // calls appearing inside this call's argument list
}

// funcDecl is a parsed top-level function declaration or definition.
type funcDecl struct {
	Kernel  bool
	Ret     typeRef
	Name    string
	Params  []param
	Defined bool // has a body
	Calls   []call
	Loc     errz.SourceLocation
}
