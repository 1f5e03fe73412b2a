package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(sessionID, personID string, bmi float64, savedAt time.Time) Entry {
	return Entry{
		SessionID:  sessionID,
		PersonID:   personID,
		PersonName: "Test Person",
		Weight:     70,
		Height:     170,
		BMI:        bmi,
		Category:   "Normal",
		RemoteID:   1,
		MeasuredAt: savedAt,
		SavedAt:    savedAt,
	}
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := s.Append(entry("s1", "E1", 22.0+float64(i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].BMI != 24.0 || entries[1].BMI != 23.0 {
		t.Errorf("order wrong: %v, %v", entries[0].BMI, entries[1].BMI)
	}
	if !entries[0].SavedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("SavedAt = %v", entries[0].SavedAt)
	}
}

func TestForPersonFilters(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().Truncate(time.Second)
	_ = s.Append(entry("s1", "E1", 22, now))
	_ = s.Append(entry("s2", "E2", 25, now))
	_ = s.Append(entry("s3", "E1", 23, now.Add(time.Second)))

	entries, err := s.ForPerson("E1", 10)
	if err != nil {
		t.Fatalf("ForPerson: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.PersonID != "E1" {
			t.Errorf("entry for %q leaked in", e.PersonID)
		}
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want none", entries)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	_ = s1.Append(entry("s1", "E1", 22, time.Now()))
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	entries, err := s2.Recent(10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries after reopen = %+v, err=%v", entries, err)
	}
}
