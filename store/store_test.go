package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"go-vizmix/errkind"
)

type doc struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := open(t)
	in := doc{Name: "bloom", Value: 1.5}
	if err := s.Save("preset:bloom", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var out doc
	ok, err := s.Load("preset:bloom", &out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load reported missing")
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	s := open(t)
	var out doc
	ok, err := s.Load("nope", &out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("Load reported ok for missing key")
	}
}

func TestLoadCorruptLeavesValueUntouched(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{truncated"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := doc{Name: "keep", Value: 7}
	ok, err := s.Load("bad", &out)
	if ok {
		t.Fatal("Load reported ok for corrupt document")
	}
	if ftag.Get(err) != errkind.PersistenceFailure {
		t.Fatalf("err kind = %v, want PersistenceFailure", ftag.Get(err))
	}
	if out.Name != "keep" || out.Value != 7 {
		t.Fatalf("value mutated on failed load: %+v", out)
	}
}

func TestDeleteMissingIsFine(t *testing.T) {
	s := open(t)
	if err := s.Delete("never-saved"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteRemoves(t *testing.T) {
	s := open(t)
	if err := s.Save("k", doc{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var out doc
	ok, _ := s.Load("k", &out)
	if ok {
		t.Fatal("document survived delete")
	}
}

func TestListByPrefix(t *testing.T) {
	s := open(t)
	for _, key := range []string{"preset:a", "preset:b", "slot:1", "config"} {
		if err := s.Save(key, doc{}); err != nil {
			t.Fatalf("Save %s: %v", key, err)
		}
	}

	keys, err := s.List("preset:")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2: %v", len(keys), keys)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["preset_a"] || !seen["preset_b"] {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNamespaceSeparatorIsFilesystemSafe(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save("midi:values", doc{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "midi_values.json")); err != nil {
		t.Fatalf("expected midi_values.json: %v", err)
	}
}
