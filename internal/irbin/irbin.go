// Package irbin serializes IR modules to a compact msgpack form, used
// for binary emit and re-ingest (.tob files).
package irbin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"treeopt/internal/ir"
)

// Current schema version - increment when the payload format changes.
const schemaVersion uint16 = 1

// payload wraps a module with a schema version for safe invalidation.
type payload struct {
	Schema uint16
	Module *ir.Module
}

// Encode writes the module to w.
func Encode(w io.Writer, m *ir.Module) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&payload{Schema: schemaVersion, Module: m})
}

// Decode reads a module from r.
func Decode(r io.Reader) (*ir.Module, error) {
	var p payload
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("unsupported module schema %d (want %d)", p.Schema, schemaVersion)
	}
	if p.Module == nil {
		return nil, fmt.Errorf("empty module payload")
	}
	return p.Module, nil
}

// Save writes the module to path atomically (temp file + rename).
func Save(path string, m *ir.Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := Encode(f, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a module from path.
func Load(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
