package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/valpere/blockstrings/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_Lookup_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.Lookup(context.Background(), "Hello", "uk")
	if err != nil {
		t.Errorf("Lookup failed: %v", err)
	}
	if found {
		t.Error("expected not found for unknown string")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_Lookup_Hit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	text, found, err := s.Lookup(ctx, "Hello", "uk")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || text != "Привіт" {
		t.Errorf("expected 'Привіт', got %q (found=%v)", text, found)
	}

	if _, found, _ := s.Lookup(ctx, "Hello", "de"); found {
		t.Error("translation leaked across locales")
	}
}

func TestStore_Lookup_WhitespaceIsSignificant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	if _, found, _ := s.Lookup(ctx, " Hello ", "uk"); found {
		t.Error("expected padded key to miss")
	}
}

func TestStore_Lookup_NFC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// "é" precomposed vs "e" + combining acute accent.
	if err := s.SaveTranslation(ctx, "Caf\u00e9", "uk", "Кафе"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	text, found, err := s.Lookup(ctx, "Cafe\u0301", "uk")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !found || text != "Кафе" {
		t.Errorf("expected NFC-equivalent hit, got %q (found=%v)", text, found)
	}
}

func TestStore_SaveTranslation_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	if err := s.SaveTranslation(ctx, "Hello", "uk", "Вітаю"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	entries, err := s.ListMemory(ctx, "")
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].TranslatedText != "Вітаю" {
		t.Errorf("expected overwritten text, got %q", entries[0].TranslatedText)
	}
}

func TestStore_Invalidate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	entries, err := s.ListMemory(ctx, "uk")
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListMemory: %v, %d entries", err, len(entries))
	}

	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}
	if _, found, _ := s.Lookup(ctx, "Hello", "uk"); found {
		t.Error("expected invalidated entry to miss")
	}

	// Saving again re-validates.
	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	if _, found, _ := s.Lookup(ctx, "Hello", "uk"); !found {
		t.Error("expected re-saved entry to hit")
	}
}

func TestStore_DeleteMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "uk", "Привіт"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	entries, _ := s.ListMemory(ctx, "")
	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	if err := s.DeleteMemory(ctx, entries[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Replacements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "es", "Hola"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	if err := s.SaveTranslation(ctx, "https://example.com", "es", "https://example.es"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	got, err := s.Replacements(ctx, "es", []string{"Hello", "", "Unknown", "https://example.com", "Hello"})
	if err != nil {
		t.Fatalf("Replacements failed: %v", err)
	}
	want := map[string]string{"Hello": "Hola", "https://example.com": "https://example.es"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalUsage != 2 {
		t.Errorf("expected usage 2 after deduped lookups, got %d", stats.TotalUsage)
	}
}

func TestStore_Pending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"One", "Two", "One", "Three"} {
		err := s.RecordExtraction(ctx, internal.Extraction{
			SourceFile: "page.json",
			BlockName:  "core/paragraph",
			SourceText: text,
		})
		if err != nil {
			t.Fatalf("RecordExtraction failed: %v", err)
		}
	}
	if err := s.SaveTranslation(ctx, "Two", "fr", "Deux"); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	got, err := s.Pending(ctx, "fr")
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"One", "Three"}) {
		t.Errorf("unexpected pending %v", got)
	}

	got, err = s.Pending(ctx, "de")
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 pending for untouched locale, got %v", got)
	}
}

func TestStore_StatsAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.SaveTranslation(ctx, "A", "uk", "А")
	_ = s.SaveTranslation(ctx, "B", "uk", "Б")
	_ = s.RecordExtraction(ctx, internal.Extraction{SourceFile: "f", BlockName: "core/paragraph", SourceText: "A"})

	entries, _ := s.ListMemory(ctx, "")
	_ = s.InvalidateMemory(ctx, entries[0].ID)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 1 || stats.InvalidEntries != 1 || stats.Extractions != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	stats, _ = s.Stats(ctx)
	if stats.TotalEntries != 0 || stats.Extractions != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
}
