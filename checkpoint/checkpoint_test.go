package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestLoadDefaultsToZero(t *testing.T) {
	dir := t.TempDir()

	s := New(filepath.Join(dir, "missing.env"), "LAST_PAGE")
	page, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if page != 0 {
		t.Fatalf("page=%d, want 0 for missing file", page)
	}

	path := filepath.Join(dir, "other.env")
	if err := os.WriteFile(path, []byte("OTHER_KEY=7\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	s = New(path, "LAST_PAGE")
	page, err = s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if page != 0 {
		t.Fatalf("page=%d, want 0 for missing key", page)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s := New(path, "LAST_PAGE")

	for _, page := range []int{1, 2, 7} {
		if err := s.Save(page); err != nil {
			t.Fatalf("save %d: %v", page, err)
		}
		got, err := s.Load()
		if err != nil {
			t.Fatalf("load after save %d: %v", page, err)
		}
		if got != page {
			t.Fatalf("load=%d, want %d", got, page)
		}
	}
}

func TestSavePreservesUnrelatedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STEAM_API_KEY=secret\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	s := New(path, "LAST_PAGE")
	if err := s.Save(3); err != nil {
		t.Fatalf("save: %v", err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if values["STEAM_API_KEY"] != "secret" {
		t.Fatalf("unrelated key lost: %v", values)
	}
	if values["LAST_PAGE"] != "3" {
		t.Fatalf("checkpoint=%q, want 3", values["LAST_PAGE"])
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LAST_PAGE=abc\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	if _, err := New(path, "LAST_PAGE").Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
