package store

import (
	"os"
	"path/filepath"
	"testing"

	"collecte/internal/core"
)

func TestNewInitializesEmptyStore(t *testing.T) {
	root := t.TempDir()

	s, err := New(root, "mine detection")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	articles, err := s.LoadArticles()
	if err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected an empty collection, got %d articles", len(articles))
	}

	authors, err := s.LoadAuthors()
	if err != nil {
		t.Fatalf("LoadAuthors failed: %v", err)
	}
	if len(authors) != 0 {
		t.Errorf("Expected no authors, got %d", len(authors))
	}

	for _, name := range []string{"Articles.gob", "Authors.gob"} {
		if _, err := os.Stat(filepath.Join(s.Dir(), name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}

func TestSaveLoadRebuildsSharedGraph(t *testing.T) {
	root := t.TempDir()

	first, err := New(root, "detection dogs")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	silva := &core.Author{Name: "Silva"}
	costa := &core.Author{Name: "Costa"}
	a1 := &core.Article{
		Title:     "Detection dogs in demining",
		Authors:   []*core.Author{silva, costa},
		Venue:     "Journal of Mine Action",
		Year:      "2020",
		Citations: "40",
		Link:      "https://example.org/a1",
		CiteType:  "article",
		BibTeX:    "@article{a1, title={x}}",
		Abstract:  "Dogs detect mines.",
		Qualis:    "B1",
		Score:     87.5,
		Concepts:  []string{"dog", "mine detection"},
	}
	a2 := &core.Article{
		Title:   "Olfactory thresholds",
		Authors: []*core.Author{silva},
		Venue:   "-",
		Link:    "https://example.org/a2",
		Score:   42.0,
	}
	silva.AddArticle(a1)
	silva.AddArticle(a2)
	costa.AddArticle(a1)

	if err := first.SaveArticles([]*core.Article{a1, a2}); err != nil {
		t.Fatalf("SaveArticles failed: %v", err)
	}
	if err := first.SaveAuthors([]*core.Author{costa, silva}); err != nil {
		t.Fatalf("SaveAuthors failed: %v", err)
	}

	second, err := New(root, "detection dogs")
	if err != nil {
		t.Fatalf("Reopening failed: %v", err)
	}
	articles, err := second.LoadArticles()
	if err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}
	authors, err := second.LoadAuthors()
	if err != nil {
		t.Fatalf("LoadAuthors failed: %v", err)
	}

	if len(articles) != 2 || len(authors) != 2 {
		t.Fatalf("Expected 2 articles and 2 authors, got %d and %d", len(articles), len(authors))
	}

	loaded := articles[0]
	if loaded.Title != "Detection dogs in demining" {
		loaded = articles[1]
	}
	if loaded.Score != 87.5 || loaded.Qualis != "B1" {
		t.Errorf("Expected fields preserved, got score %v qualis %q", loaded.Score, loaded.Qualis)
	}
	if len(loaded.Concepts) != 2 || loaded.Concepts[0] != "dog" {
		t.Errorf("Expected concepts preserved, got %v", loaded.Concepts)
	}
	if len(loaded.Authors) != 2 {
		t.Fatalf("Expected 2 authors on the article, got %d", len(loaded.Authors))
	}

	var loadedSilva *core.Author
	for _, au := range authors {
		if au.Name == "Silva" {
			loadedSilva = au
		}
	}
	if loadedSilva == nil {
		t.Fatal("Expected Silva among the loaded authors")
	}
	if len(loadedSilva.Articles) != 2 {
		t.Errorf("Expected 2 articles on Silva, got %d", len(loadedSilva.Articles))
	}

	// Both halves of the graph must share pointers.
	foundShared := false
	for _, au := range loaded.Authors {
		if au == loadedSilva {
			foundShared = true
		}
	}
	if !foundShared {
		t.Error("Expected the article to reference the same author instance")
	}
	sharedBack := false
	for _, a := range loadedSilva.Articles {
		if a == loaded {
			sharedBack = true
		}
	}
	if !sharedBack {
		t.Error("Expected the author to reference the same article instance")
	}
}

func TestSanitizesLabelAndMigratesLegacyDir(t *testing.T) {
	root := t.TempDir()
	rawLabel := "mines: where?"

	legacy := filepath.Join(root, rawLabel)
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		t.Fatalf("Preparing legacy dir failed: %v", err)
	}
	markerPath := filepath.Join(legacy, "marker.txt")
	if err := os.WriteFile(markerPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("Writing marker failed: %v", err)
	}

	s, err := New(root, rawLabel)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	expectedDir := filepath.Join(root, "mines_ where_")
	if s.Dir() != expectedDir {
		t.Errorf("Expected sanitized dir %q, got %q", expectedDir, s.Dir())
	}
	if _, err := os.Stat(filepath.Join(expectedDir, "marker.txt")); err != nil {
		t.Errorf("Expected the legacy content migrated: %v", err)
	}
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Errorf("Expected the legacy dir gone, got %v", err)
	}
}

func TestEmptyLabelFallsBack(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, "   ")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Label() != "Recherche" {
		t.Errorf("Expected the fallback label, got %q", s.Label())
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	root := t.TempDir()

	s, err := New(root, "broken")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "Articles.gob"), []byte("not gob"), 0o644); err != nil {
		t.Fatalf("Corrupting file failed: %v", err)
	}

	fresh, err := New(root, "broken")
	if err != nil {
		t.Fatalf("Reopening failed: %v", err)
	}
	if _, err := fresh.LoadArticles(); err == nil {
		t.Error("Expected an error for a corrupt articles file")
	}
}
