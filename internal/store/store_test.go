package store

import (
	"os"
	"path/filepath"
	"testing"

	"go-stamppdf/internal/placement"
)

func TestPutGet(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var p placement.Placement
	found, err := s.Get(PlacementKey, &p)
	if err != nil {
		t.Fatalf("Get on empty store failed: %v", err)
	}
	if found {
		t.Fatal("expected no record on first use")
	}

	want := placement.Placement{X: 12.5, Y: 40, W: 210, H: 75, Rot: -15}
	if err := s.Put(PlacementKey, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	found, err = s.Get(PlacementKey, &p)
	if err != nil || !found {
		t.Fatalf("Get after Put: found=%v err=%v", found, err)
	}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, PlacementKey+".json"))
	if err != nil {
		t.Fatalf("Failed to read record file: %v", err)
	}
	if string(raw) != `{"x":12.5,"y":40,"w":210,"h":75,"rot":-15}` {
		t.Errorf("unexpected record layout: %s", raw)
	}
}

func TestOverwriteAndDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = s.Put("k", placement.Default)
	second := placement.Placement{X: 1, Y: 2, W: 3, H: 4}
	if err := s.Put("k", second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	var got placement.Placement
	if _, err := s.Get("k", &got); err != nil || got != second {
		t.Errorf("got %+v (err %v), want %+v", got, err, second)
	}

	entries, _ := os.ReadDir(s.dir)
	if len(entries) != 1 {
		t.Errorf("expected only the record file, found %d entries", len(entries))
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Errorf("Delete of missing key failed: %v", err)
	}
	if found, _ := s.Get("k", &got); found {
		t.Error("record still present after Delete")
	}
}

func TestCorruptRecord(t *testing.T) {
	s, _ := Open(t.TempDir())
	if err := os.WriteFile(filepath.Join(s.dir, "bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	var p placement.Placement
	if _, err := s.Get("bad", &p); err == nil {
		t.Error("expected decode error")
	}
}

func TestInvalidKey(t *testing.T) {
	s, _ := Open(t.TempDir())
	for _, key := range []string{"", "../escape", "a/b"} {
		if err := s.Put(key, 1); err == nil {
			t.Errorf("Put(%q): expected error", key)
		}
	}
}
