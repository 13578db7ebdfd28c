package irbin_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"treeopt/internal/ir"
	"treeopt/internal/irbin"
)

func sampleModule() *ir.Module {
	m := &ir.Module{}
	m.AddFunc("main", ir.NewLoop("l", ir.NewBlock("",
		ir.NewStore(ir.NewConstI64(0), ir.NewConstF64(1.5)),
		ir.NewBr("l", ir.NewLocalGet("c", ir.TypeI64)),
	)))
	return m
}

// TestEncodeDecode tests the binary round trip in memory.
func TestEncodeDecode(t *testing.T) {
	m := sampleModule()

	var buf bytes.Buffer
	if err := irbin.Encode(&buf, m); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := irbin.Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(got.Funcs) != 1 || got.Funcs[0].Name != "main" {
		t.Fatalf("module header lost in round trip")
	}
	if !ir.Equal(got.Funcs[0].Body, m.Funcs[0].Body) {
		t.Errorf("tree changed across round trip:\nbefore %s\nafter  %s",
			ir.String(m.Funcs[0].Body), ir.String(got.Funcs[0].Body))
	}
}

// TestSaveLoad tests the atomic file path.
func TestSaveLoad(t *testing.T) {
	m := sampleModule()
	path := filepath.Join(t.TempDir(), "out", "module.tob")

	if err := irbin.Save(path, m); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := irbin.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ir.Equal(got.Funcs[0].Body, m.Funcs[0].Body) {
		t.Errorf("tree changed across save/load")
	}
}

// TestDecode_BadSchema tests schema validation.
func TestDecode_BadSchema(t *testing.T) {
	if _, err := irbin.Decode(bytes.NewReader([]byte{0xc0})); err == nil {
		t.Fatalf("expected an error for a non-module payload")
	}
}
