package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/metoushela/megan/internal/provider"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	turns := []provider.Turn{
		provider.NewTextTurn(provider.RoleUser, "salut"),
		provider.NewTextTurn(provider.RoleModel, "Bonjour !"),
	}
	if err := s.Save("u1", turns); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load("u1")
	if len(got) != 2 {
		t.Fatalf("Load returned %d turns, want 2", len(got))
	}
	if got[0].Parts[0].Text != "salut" || got[1].Role != provider.RoleModel {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingUserIsEmpty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if got := s.Load("nobody"); len(got) != 0 {
		t.Errorf("Load of unknown uid = %d turns, want 0", len(got))
	}
}

func TestSaveTruncatesToCap(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, WithMaxHistory(4))

	var turns []provider.Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, provider.NewTextTurn(provider.RoleUser, "turn-"+string(rune('0'+i))))
	}
	if err := s.Save("u1", turns); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load("u1")
	if len(got) != 4 {
		t.Fatalf("Load returned %d turns, want 4", len(got))
	}
	if got[0].Parts[0].Text != "turn-6" {
		t.Errorf("oldest surviving turn = %q, want turn-6", got[0].Parts[0].Text)
	}
}

func TestSaveReplacesTranscript(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	if err := s.Save("u1", []provider.Turn{provider.NewTextTurn(provider.RoleUser, "ancien")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("u1", []provider.Turn{provider.NewTextTurn(provider.RoleUser, "nouveau")}); err != nil {
		t.Fatal(err)
	}

	got := s.Load("u1")
	if len(got) != 1 || got[0].Parts[0].Text != "nouveau" {
		t.Errorf("transcript not replaced: %+v", got)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	for _, uid := range []string{"u1", "u2", "u3"} {
		if err := s.Save(uid, []provider.Turn{provider.NewTextTurn(provider.RoleUser, "salut")}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	for _, uid := range []string{"u1", "u2", "u3"} {
		if got := s.Load(uid); len(got) != 0 {
			t.Errorf("uid %s survived ClearAll", uid)
		}
	}

	// Idempotent on empty storage.
	if err := s.ClearAll(); err != nil {
		t.Errorf("second ClearAll: %v", err)
	}
}

func TestSchemaMigrationIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Save("u1", []provider.Turn{provider.NewTextTurn(provider.RoleUser, "salut")}); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	if got := s2.Load("u1"); len(got) != 1 {
		t.Errorf("transcript lost across reopen: %d turns", len(got))
	}
}
