// Package bitcode serializes compiled IR modules to and from the portable
// program binary. The byte layout is a private, versioned container around
// the IR toolkit's own serialization; nothing outside this package parses
// it. The round-trip guarantee is kernel-surface equivalence: the decoded
// module exposes the same kernel names and argument information as the
// encoded one.
package bitcode

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/uuid"
	"github.com/gridc-io/gridc/errz"
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Magic identifies a program binary container.
	Magic = "GRBC"

	// Version is the current container format version.
	Version = 1
)

// container is the on-wire layout of a program binary.
type container struct {
	Magic   string `msgpack:"magic"`
	Version int    `msgpack:"version"`
	BuildID string `msgpack:"build_id"`
	Triple  string `msgpack:"triple"`
	IR      []byte `msgpack:"ir"` // zlib-compressed textual IR
}

// Encode serializes a module into a portable binary buffer. Each encoding
// carries a fresh build identity so binaries are distinguishable even when
// their IR is identical.
func Encode(m *ir.Module) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("bitcode: no module to encode")
	}
	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	if _, err := io.WriteString(w, m.String()); err != nil {
		return nil, fmt.Errorf("bitcode: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("bitcode: compress: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("bitcode: build id: %w", err)
	}
	return msgpack.Marshal(container{
		Magic:   Magic,
		Version: Version,
		BuildID: id.String(),
		Triple:  m.TargetTriple,
		IR:      compressed.Bytes(),
	})
}

// Decode deserializes a portable binary back into a module. Decoding is
// all-or-nothing: any corruption (bad framing, bad magic or version, bad
// compression, unparseable IR) yields a nil module and an error.
func Decode(data []byte) (*ir.Module, error) {
	var c container
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, errz.New(errz.ErrDecode, "invalid program binary", errz.SourceLocation{}).WithCause(err)
	}
	if c.Magic != Magic {
		return nil, errz.Newf(errz.ErrDecode, errz.SourceLocation{}, "bad magic %q", c.Magic)
	}
	if c.Version != Version {
		return nil, errz.Newf(errz.ErrDecode, errz.SourceLocation{}, "unsupported container version %d", c.Version)
	}
	r, err := zlib.NewReader(bytes.NewReader(c.IR))
	if err != nil {
		return nil, errz.New(errz.ErrDecode, "corrupt IR payload", errz.SourceLocation{}).WithCause(err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errz.New(errz.ErrDecode, "corrupt IR payload", errz.SourceLocation{}).WithCause(err)
	}
	if err := r.Close(); err != nil {
		return nil, errz.New(errz.ErrDecode, "corrupt IR payload", errz.SourceLocation{}).WithCause(err)
	}
	m, err := asm.ParseBytes("program.ll", raw)
	if err != nil {
		return nil, errz.New(errz.ErrDecode, "unparseable IR payload", errz.SourceLocation{}).WithCause(err)
	}
	return m, nil
}

// DecodeFile reads and decodes a portable binary from disk.
func DecodeFile(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errz.Newf(errz.ErrDecode, errz.SourceLocation{File: path},
			"unable to read program binary").WithCause(err)
	}
	return Decode(data)
}
