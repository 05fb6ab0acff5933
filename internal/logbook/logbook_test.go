package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestRecentParsesLevels(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "logs", "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Info("query started")
	book.Error("query failed:\nnetwork down")
	entries, total := book.Recent(10)
	if len(entries) != 2 || total != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != LevelInfo || entries[0].Message != "query started" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Level != LevelError || entries[1].Message != "query failed: network down" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if entries[1].Time.IsZero() {
		t.Fatalf("expected parsed timestamp")
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Warn("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("expected empty tail from nil logbook")
	}
}

func TestTailPicksUpExistingFileThenServesFromMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	first, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 3; i++ {
		first.Info("earlier-%d", i)
	}

	book, err := New(path)
	if err != nil {
		t.Fatalf("reopen logbook: %v", err)
	}
	if _, total := book.Tail(1); total != 3 {
		t.Fatalf("existing entries not counted: %d", total)
	}
	// Once loaded, the file is not scanned again.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	book.Warn("later")
	lines, total := book.Tail(2)
	if total != 4 {
		t.Fatalf("total lines = %d, want 4", total)
	}
	if len(lines) != 2 || !strings.Contains(lines[0], "earlier-2") || !strings.Contains(lines[1], "WARN  later") {
		t.Fatalf("unexpected tail %q", lines)
	}
}

func TestTailKeepsBoundedHistory(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < keepLines+10; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(keepLines * 2)
	if total != keepLines+10 {
		t.Fatalf("total lines = %d, want %d", total, keepLines+10)
	}
	if len(lines) != keepLines {
		t.Fatalf("len(lines) = %d, want %d", len(lines), keepLines)
	}
	if !strings.HasSuffix(lines[len(lines)-1], fmt.Sprintf("entry-%d", keepLines+9)) {
		t.Fatalf("last line = %q", lines[len(lines)-1])
	}
}
