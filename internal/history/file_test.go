package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/metoushela/megan/internal/provider"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	turns := []provider.Turn{
		provider.NewTextTurn(provider.RoleUser, "Bonjour"),
		provider.NewTextTurn(provider.RoleModel, "Salut ! Comment puis-je t'aider ?"),
	}

	if err := store.Save("123", turns); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := store.Load("123")
	if len(got) != len(turns) {
		t.Fatalf("Load returned %d turns, want %d", len(got), len(turns))
	}
	for i := range turns {
		if got[i].Role != turns[i].Role || got[i].Text() != turns[i].Text() {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
}

func TestFileStoreCapsOldestFirst(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir(), WithMaxHistory(4))

	var turns []provider.Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, provider.NewTextTurn(provider.RoleUser, fmt.Sprintf("turn-%d", i)))
	}
	if err := store.Save("u", turns); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := store.Load("u")
	if len(got) != 4 {
		t.Fatalf("Load returned %d turns, want 4", len(got))
	}
	// The oldest turns are evicted, the newest survive in order.
	for i, want := range []string{"turn-6", "turn-7", "turn-8", "turn-9"} {
		if got[i].Text() != want {
			t.Errorf("turn %d = %q, want %q", i, got[i].Text(), want)
		}
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	if got := store.Load("nobody"); len(got) != 0 {
		t.Errorf("Load of unknown uid returned %d turns, want 0", len(got))
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "99_history.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(dir)
	if got := store.Load("99"); len(got) != 0 {
		t.Errorf("Load of corrupt transcript returned %d turns, want 0", len(got))
	}
}

func TestFileStoreClearAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)
	for _, uid := range []string{"1", "2", "3"} {
		if err := store.Save(uid, []provider.Turn{provider.NewTextTurn(provider.RoleUser, "hi")}); err != nil {
			t.Fatalf("Save(%s): %v", uid, err)
		}
	}

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d files left after ClearAll, want 0", len(entries))
	}

	// Second clear on empty storage succeeds.
	if err := store.ClearAll(); err != nil {
		t.Errorf("second ClearAll: %v", err)
	}
}

func TestFileStoreClearAllMissingDir(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	if err := store.ClearAll(); err != nil {
		t.Errorf("ClearAll on missing directory: %v", err)
	}
}

func TestFileStorePathFlattensSeparators(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)
	if err := store.Save("../escape", []provider.Turn{provider.NewTextTurn(provider.RoleUser, "hi")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("%d files in storage dir, want 1", len(entries))
	}
	if got := store.Load("../escape"); len(got) != 1 {
		t.Errorf("Load after sanitized Save returned %d turns, want 1", len(got))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	mk := func(n int) []provider.Turn {
		out := make([]provider.Turn, n)
		for i := range out {
			out[i] = provider.NewTextTurn(provider.RoleUser, fmt.Sprintf("%d", i))
		}
		return out
	}

	tests := []struct {
		name    string
		in      []provider.Turn
		max     int
		wantLen int
		first   string
	}{
		{"under cap", mk(3), 5, 3, "0"},
		{"at cap", mk(5), 5, 5, "0"},
		{"over cap", mk(8), 5, 5, "3"},
		{"no cap", mk(8), 0, 8, "0"},
		{"empty", nil, 5, 0, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		if len(got) != tt.wantLen {
			t.Errorf("%s: len = %d, want %d", tt.name, len(got), tt.wantLen)
			continue
		}
		if tt.wantLen > 0 && got[0].Text() != tt.first {
			t.Errorf("%s: first = %q, want %q", tt.name, got[0].Text(), tt.first)
		}
	}
}
