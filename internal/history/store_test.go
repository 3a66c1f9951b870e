package history

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/promptforge/promptforge/internal/ollama"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.jsonl"))
}

func TestAppendAssignsID(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Append(Entry{OriginalPrompt: "a fox"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected a generated id")
	}
	if saved.Status != "enhanced" {
		t.Errorf("Status = %q", saved.Status)
	}
	if saved.Variations == nil {
		t.Error("expected non-nil variations map")
	}
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.Append(Entry{
		OriginalPrompt: "a fox",
		Enhanced:       ollama.Result{Prompt: "a cunning fox", SDModel: "SDXL"},
		Variations: map[string]ollama.Result{
			"cinematic": {Prompt: "a fox at dusk", SDModel: "SDXL"},
		},
		TemplateName: "animals.txt",
	})
	second, _ := store.Append(Entry{OriginalPrompt: "a cave"})

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Error("entries out of order")
	}
	if entries[0].Enhanced.Prompt != "a cunning fox" {
		t.Errorf("Enhanced = %+v", entries[0].Enhanced)
	}
	if entries[0].Variations["cinematic"].Prompt != "a fox at dusk" {
		t.Errorf("Variations = %+v", entries[0].Variations)
	}
	if entries[0].TemplateName != "animals.txt" {
		t.Errorf("TemplateName = %q", entries[0].TemplateName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.Load()
	if err != nil || entries != nil {
		t.Errorf("Load = %v, %v", entries, err)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	store := newTestStore(t)
	store.Append(Entry{OriginalPrompt: "valid"})

	f, err := os.OpenFile(store.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{broken json\n\n")
	f.Close()
	store.Append(Entry{OriginalPrompt: "also valid"})

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries: %+v", len(entries), entries)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	keep, _ := store.Append(Entry{OriginalPrompt: "keep"})
	drop, _ := store.Append(Entry{OriginalPrompt: "drop"})

	removed, err := store.Delete(drop.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Fatal("expected entry to be removed")
	}

	entries, _ := store.Load()
	if len(entries) != 1 || entries[0].ID != keep.ID {
		t.Errorf("entries = %+v", entries)
	}

	removed, err = store.Delete("no-such-id")
	if err != nil || removed {
		t.Errorf("Delete(missing) = %v, %v", removed, err)
	}
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	entry, _ := store.Append(Entry{OriginalPrompt: "a fox", Status: "pending"})
	store.Append(Entry{OriginalPrompt: "untouched"})

	entry.Status = "enhanced"
	entry.Enhanced = ollama.Result{Prompt: "a cunning fox", SDModel: "SDXL"}
	updated, err := store.Update(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected entry to be updated")
	}

	got, ok, _ := store.Get(entry.ID)
	if !ok || got.Status != "enhanced" || got.Enhanced.Prompt != "a cunning fox" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
}

func TestSetFavorite(t *testing.T) {
	store := newTestStore(t)
	entry, _ := store.Append(Entry{OriginalPrompt: "a fox"})

	ok, err := store.SetFavorite(entry.ID, true)
	if err != nil || !ok {
		t.Fatalf("SetFavorite = %v, %v", ok, err)
	}
	got, _, _ := store.Get(entry.ID)
	if !got.Favorite {
		t.Error("expected favorite flag set")
	}

	ok, err = store.SetFavorite("no-such-id", true)
	if err != nil || ok {
		t.Errorf("SetFavorite(missing) = %v, %v", ok, err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	store.Append(Entry{OriginalPrompt: "a fox"})
	store.Append(Entry{OriginalPrompt: "a cave"})

	var buf bytes.Buffer
	if err := store.Export(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	raw, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}

	original, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, original) {
		t.Error("decompressed export differs from history file")
	}
	if !strings.Contains(string(raw), "a fox") {
		t.Error("export missing entry content")
	}
}

func TestExportFileMissingHistory(t *testing.T) {
	store := newTestStore(t)
	out := filepath.Join(t.TempDir(), "history.jsonl.zst")

	if err := store.ExportFile(out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}
