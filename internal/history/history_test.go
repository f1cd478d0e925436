package history

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProcessedRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.IsProcessed("surface-1", "fp-1")
	if err != nil || ok {
		t.Fatalf("IsProcessed before mark = %v, %v", ok, err)
	}
	if err := s.MarkProcessed("surface-1", "fp-1"); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := s.MarkProcessed("surface-1", "fp-1"); err != nil {
		t.Fatal(err)
	}
	ok, err = s.IsProcessed("surface-1", "fp-1")
	if err != nil || !ok {
		t.Errorf("IsProcessed after mark = %v, %v", ok, err)
	}
	// Scoped per surface.
	ok, _ = s.IsProcessed("surface-2", "fp-1")
	if ok {
		t.Error("fingerprint leaked across surfaces")
	}
}

func TestProcessedSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkProcessed("s", "fp"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	ok, err := s2.IsProcessed("s", "fp")
	if err != nil || !ok {
		t.Errorf("processed mark lost across reopen: %v, %v", ok, err)
	}
}

func TestCorrections(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordCorrection("id-1", "adhoc", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordCorrection("id-1", "switch", "second"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Corrections(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Message != "second" || got[1].Kind != "adhoc" {
		t.Errorf("Corrections = %+v", got)
	}
	if got[0].At.IsZero() {
		t.Error("timestamp not recorded")
	}
}
