package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "tasks.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteGetSet(t *testing.T) {
	db := openTemp(t)

	if _, ok, err := db.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := db.Set("k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := db.Set("k", "two"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.Get("k")
	if err != nil || !ok || v != "two" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}

	if err := db.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Get("k"); ok {
		t.Error("expected key deleted")
	}
}

func TestSQLiteEntries(t *testing.T) {
	db := openTemp(t)
	for _, kv := range [][2]string{{"b", "xyz"}, {"a", "{}"}} {
		if err := db.Set(kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := db.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Key != "a" || entries[1].Key != "b" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[1].Size != 3 || entries[1].UpdatedAt.IsZero() {
		t.Errorf("unexpected entry %+v", entries[1])
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Set("taskListData", `{"version":1}`); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if v, ok, _ := db.Get("taskListData"); !ok || v != `{"version":1}` {
		t.Errorf("reopened Get = %q, %v", v, ok)
	}
}

func TestSQLiteAddsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL);`); err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`INSERT INTO kv (key, value) VALUES ('k', 'v');`); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()
	entries, err := db.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Key != "k" || !entries[0].UpdatedAt.IsZero() {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestSQLiteClosed(t *testing.T) {
	db := openTemp(t)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if _, _, err := db.Get("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after close = %v", err)
	}
	if err := db.Set("k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after close = %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if _, ok, _ := m.Get("k"); ok {
		t.Fatal("expected empty memory")
	}
	if err := m.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := m.Get("k"); !ok || v != "v" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if m.Writes() != 1 {
		t.Errorf("Writes = %d", m.Writes())
	}

	boom := errors.New("boom")
	m.SetErr = boom
	if err := m.Set("k", "w"); !errors.Is(err, boom) {
		t.Errorf("Set with SetErr = %v", err)
	}
	if v, _, _ := m.Get("k"); v != "v" {
		t.Errorf("failed Set changed value to %q", v)
	}
	if m.Writes() != 1 {
		t.Errorf("failed Set counted, Writes = %d", m.Writes())
	}

	entries, _ := m.Entries()
	if len(entries) != 1 || entries[0].Size != 1 {
		t.Errorf("unexpected entries %+v", entries)
	}
	if err := m.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get("k"); ok {
		t.Error("expected key deleted")
	}
}
