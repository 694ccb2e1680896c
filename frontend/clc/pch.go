package clc

import (
	"fmt"
	"os"

	"github.com/gridc-io/gridc/errz"
	"github.com/gridc-io/gridc/frontend"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	pchMagic   = "GPCH"
	pchVersion = 1
)

// pchContainer is the on-disk layout of a precompiled header: the parsed
// declaration surface of a header, ready to enter the declaration table
// without re-running the preprocessor and parser.
type pchContainer struct {
	Magic    string     `msgpack:"magic"`
	Version  int        `msgpack:"version"`
	Defines  []string   `msgpack:"defines"`
	Protos   []pchProto `msgpack:"protos"`
}

type pchProto struct {
	Name   string     `msgpack:"name"`
	Kernel bool       `msgpack:"kernel"`
	Ret    typeRef    `msgpack:"ret"`
	Params []pchParam `msgpack:"params"`
}

type pchParam struct {
	Type typeRef `msgpack:"type"`
	Name string  `msgpack:"name"`
}

// BuildPCH compiles header source into a precompiled header blob. The
// defines are applied while preprocessing, exactly as -D flags would be.
func BuildPCH(headerName, headerSource string, defines []string) ([]byte, error) {
	diags := &diagList{}
	inv := &frontend.Invocation{}
	inv.Remap(headerName, headerSource)
	pp := newPreprocessor(inv, defines, diags)
	decls := newParser(lex(pp.run(headerName, headerSource)), diags).parse()
	if !diags.empty() {
		return nil, fmt.Errorf("clc: precompile %s:\n%s", headerName, diags.text())
	}
	c := pchContainer{Magic: pchMagic, Version: pchVersion, Defines: defines}
	for _, d := range decls {
		proto := pchProto{Name: d.Name, Kernel: d.Kernel, Ret: d.Ret}
		for _, p := range d.Params {
			proto.Params = append(proto.Params, pchParam{Type: p.Type, Name: p.Name})
		}
		c.Protos = append(c.Protos, proto)
	}
	return msgpack.Marshal(c)
}

// WritePCHFile builds a precompiled header from header source and writes it
// to the given path.
func WritePCHFile(path, headerName, headerSource string, defines []string) error {
	data, err := BuildPCH(headerName, headerSource, defines)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadPCH reads a precompiled header from disk and reconstitutes its
// declarations.
func loadPCH(path string) ([]*funcDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errz.Newf(errz.ErrDecode, errz.SourceLocation{File: path},
			"unable to read precompiled header").WithCause(err)
	}
	var c pchContainer
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, errz.New(errz.ErrDecode, "invalid precompiled header",
			errz.SourceLocation{File: path}).WithCause(err)
	}
	if c.Magic != pchMagic || c.Version != pchVersion {
		return nil, errz.New(errz.ErrDecode, "invalid precompiled header",
			errz.SourceLocation{File: path})
	}
	decls := make([]*funcDecl, 0, len(c.Protos))
	for _, proto := range c.Protos {
		d := &funcDecl{
			Name:   proto.Name,
			Kernel: proto.Kernel,
			Ret:    proto.Ret,
			Loc:    errz.SourceLocation{File: path},
		}
		for _, p := range proto.Params {
			d.Params = append(d.Params, param{Type: p.Type, Name: p.Name})
		}
		decls = append(decls, d)
	}
	return decls, nil
}
