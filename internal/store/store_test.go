package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()

	if _, err := kv.Get(KeyExpenses); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store err = %v, want ErrNotFound", err)
	}

	if err := kv.Put(KeyExpenses, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(KeyExpenses, []byte(`[]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := kv.Get(KeyExpenses)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("Get = %q, want %q", got, `[]`)
	}

	if err := kv.Delete(KeyExpenses); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kv.Delete(KeyExpenses); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
	if _, err := kv.Get(KeyExpenses); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	m.SetFailWrites(true)
	if err := m.Put(KeyBudgetPlan, []byte("{}")); err == nil {
		t.Fatal("Put succeeded with FailWrites set")
	}
	if _, err := m.Get(KeyBudgetPlan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed Put left a value behind (err = %v)", err)
	}
}

func TestSQLite(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tripbudget.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	exerciseKV(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripbudget.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(KeyPreferredLanguage, []byte(`"en"`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(KeyPreferredLanguage)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `"en"` {
		t.Fatalf("Get = %q, want %q", got, `"en"`)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if _, ok := keys[KeyPreferredLanguage]; !ok {
		t.Fatalf("Keys() = %v, missing %q", keys, KeyPreferredLanguage)
	}
}
