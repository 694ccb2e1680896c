// Package kernels locates and materializes the kernel entry points of a
// compiled IR module. Two discovery strategies exist, selected by module
// provenance: modules produced by the front end carry an explicit named
// metadata table enumerating their kernels, while foreign modules are
// scanned for functions tagged with the kernel calling convention.
package kernels

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
)

// TableName is the named metadata collection enumerating kernel entry
// points, one tuple per kernel with the function's name as its first
// field. Entries carry the name rather than a typed function reference:
// metadata strings survive the toolkit's textual serialization, which
// function-valued fields do not.
const TableName = "grid.kernels"

// SetTable installs the kernel metadata table on a module, replacing any
// existing table. Tuple metadata IDs are assigned sequentially after the
// module's existing metadata definitions.
func SetTable(m *ir.Module, fns []*ir.Func) {
	if m.NamedMetadataDefs == nil {
		m.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}
	def := &metadata.NamedDef{Name: TableName}
	id := int64(len(m.MetadataDefs))
	for _, fn := range fns {
		tuple := &metadata.Tuple{Fields: []metadata.Field{&metadata.String{Value: fn.Name()}}}
		tuple.SetID(id)
		id++
		m.MetadataDefs = append(m.MetadataDefs, tuple)
		def.Nodes = append(def.Nodes, tuple)
	}
	m.NamedMetadataDefs[TableName] = def
}

// HasTable reports whether the module carries a kernel metadata table.
// An empty table still counts: it declares "zero kernels" explicitly.
func HasTable(m *ir.Module) bool {
	_, ok := m.NamedMetadataDefs[TableName]
	return ok
}

// tableEntries returns the number of entries in the kernel table, counting
// malformed ones. Returns zero if the table is absent.
func tableEntries(m *ir.Module) int {
	def, ok := m.NamedMetadataDefs[TableName]
	if !ok {
		return 0
	}
	return len(def.Nodes)
}

// tableFuncs resolves each well-formed table entry against the module's
// function list, in table order. Entries that do not resolve to a function
// are skipped, not reported: a malformed entry means an invalid module was
// supplied, and the remaining kernels are still usable.
func tableFuncs(m *ir.Module) []*ir.Func {
	def, ok := m.NamedMetadataDefs[TableName]
	if !ok {
		return nil
	}
	byName := make(map[string]*ir.Func, len(m.Funcs))
	for _, fn := range m.Funcs {
		byName[fn.Name()] = fn
	}
	var fns []*ir.Func
	for _, node := range def.Nodes {
		tuple, ok := node.(*metadata.Tuple)
		if !ok || len(tuple.Fields) == 0 {
			continue
		}
		str, ok := tuple.Fields[0].(*metadata.String)
		if !ok {
			continue
		}
		fn, ok := byName[str.Value]
		if !ok {
			continue
		}
		fns = append(fns, fn)
	}
	return fns
}
