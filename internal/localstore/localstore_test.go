package localstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type doc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestFile_MissingIsNotFound(t *testing.T) {
	f := New[doc](filepath.Join(t.TempDir(), "none.json"), "")
	_, found, err := f.Load()
	if err != nil || found {
		t.Fatalf("Load missing = found %v, err %v", found, err)
	}
}

func TestFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	f := New[doc](path, "")

	if err := f.Save(doc{Name: "ledger", Items: []string{"a", "b"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := f.Load()
	if err != nil || !found {
		t.Fatalf("Load: found %v, err %v", found, err)
	}
	if got.Name != "ledger" || len(got.Items) != 2 {
		t.Errorf("Load = %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestFile_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	f := New[doc](path, "device-key")
	if err := f.Save(doc{Name: "secret-note"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("secret-note")) {
		t.Error("encrypted file contains plaintext")
	}

	got, _, err := f.Load()
	if err != nil || got.Name != "secret-note" {
		t.Errorf("Load = %+v, %v", got, err)
	}

	if _, _, err := New[doc](path, "other-key").Load(); err == nil {
		t.Error("Load with wrong key should fail")
	}
}

func TestFile_Remove(t *testing.T) {
	f := New[doc](filepath.Join(t.TempDir(), "x.json"), "")
	if err := f.Remove(); err != nil {
		t.Errorf("Remove missing: %v", err)
	}
	f.Save(doc{})
	if err := f.Remove(); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if _, found, _ := f.Load(); found {
		t.Error("file still present after Remove")
	}
}
