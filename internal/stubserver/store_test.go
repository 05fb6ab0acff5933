package stubserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/unicode/norm"
)

func TestStoreMatchesNormalizedNames(t *testing.T) {
	store := NewStore()
	decomposed := norm.NFD.String("  測試 ")
	if n := store.Seed(Review{Name: decomposed, FourChar: "別出心裁"}, Review{Name: "  "}); n != 1 {
		t.Fatalf("expected one seeded review, got %d", n)
	}
	review, ok := store.Review("測試")
	if !ok {
		t.Fatalf("expected review for normalized name")
	}
	if review.Name != "測試" {
		t.Fatalf("stored name not normalized: %q", review.Name)
	}
	if _, ok := store.Review("other"); ok {
		t.Fatalf("unexpected review for unknown name")
	}
}

func TestStoreSubmissionsAreCopied(t *testing.T) {
	store := NewStore()
	at := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	first := store.Submit(" a ", "one", at)
	second := store.Submit("b", "two", at.Add(time.Minute))
	if first.ID == second.ID {
		t.Fatalf("submission ids must be unique")
	}
	subs := store.Submissions()
	subs[0].Content = "mutated"
	again := store.Submissions()
	if again[0].Content != "one" || again[0].Name != "a" || again[1].Name != "b" {
		t.Fatalf("unexpected submissions: %+v", again)
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	data := `reviews:
  - name: 小明
    time: 2024/9/1 08:00:00
    four_char: 別出心裁
    feedback: 色彩運用大膽
  - name: 小華
    four_char: 循序漸進
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	reviews, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(reviews) != 2 || reviews[0].Feedback != "色彩運用大膽" || reviews[1].Time != "" {
		t.Fatalf("unexpected reviews: %+v", reviews)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("reviews: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeedFile(empty); err == nil {
		t.Fatalf("expected error for empty seed file")
	}
	if _, err := LoadSeedFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}
