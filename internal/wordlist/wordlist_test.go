package wordlist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStopwordsEnglish(t *testing.T) {
	words, ok := Stopwords("en")
	if !ok {
		t.Fatalf("expected english stopwords")
	}
	found := false
	for _, w := range words {
		if w == "the" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'the' in english stopwords")
	}
	words[0] = "mutated"
	again, _ := Stopwords("en")
	if again[0] == "mutated" {
		t.Fatalf("expected Stopwords to return a copy")
	}
}

func TestStopwordsUnknown(t *testing.T) {
	if _, ok := Stopwords("xx"); ok {
		t.Fatalf("expected unknown language to be rejected")
	}
	words, ok := Stopwords("none")
	if !ok || len(words) != 0 {
		t.Fatalf("expected empty set for none, got %v", words)
	}
}

func TestLoadWordsSkipsBlankAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	content := "# custom\napp\n\n  chatgpt  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("LoadWords failed: %v", err)
	}
	if len(words) != 2 || words[0] != "app" || words[1] != "chatgpt" {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestLoadWordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n# nothing\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Fatalf("expected error for empty list")
	}
}
