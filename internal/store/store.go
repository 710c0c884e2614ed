// Package store persists one collection per search label as a pair of
// gob files. Articles and authors reference each other in memory; on
// disk the cycle is flattened into identity keys and rebuilt on load.
package store

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"collecte/internal/core"
	"collecte/internal/logger"
	"collecte/internal/textutil"
)

const (
	articlesFile = "Articles.gob"
	authorsFile  = "Authors.gob"
)

// FileStore reads and writes the collection behind one search label.
// Loads are memoized so both halves of the graph share pointers.
type FileStore struct {
	root  string
	label string
	dir   string

	loaded   bool
	loadErr  error
	articles []*core.Article
	authors  []*core.Author
}

type storedArticle struct {
	Title     string
	Venue     string
	Year      string
	Citations string
	Link      string
	CiteType  string
	BibTeX    string
	Abstract  string
	Qualis    string
	Score     float64
	Concepts  []string
	Authors   []core.AuthorKey
}

type storedAuthor struct {
	Name     string
	Link     string
	Articles []core.Key
}

// New prepares the storage directory for the label, sanitizing it for
// the filesystem and migrating a legacy raw-label directory when one
// exists. Missing data files are initialized empty so loads succeed on
// a fresh store.
func New(root, label string) (*FileStore, error) {
	sanitized := textutil.SanitizeLabel(label)
	dir := filepath.Join(root, sanitized)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	migrateLegacyDir(root, label, sanitized)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &FileStore{root: root, label: sanitized, dir: dir}
	if err := s.initMissing(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the resolved storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Label returns the sanitized search label.
func (s *FileStore) Label() string { return s.label }

func (s *FileStore) LoadArticles() ([]*core.Article, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.articles, nil
}

func (s *FileStore) LoadAuthors() ([]*core.Author, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.authors, nil
}

func (s *FileStore) SaveArticles(articles []*core.Article) error {
	records := make([]storedArticle, 0, len(articles))
	for _, a := range articles {
		rec := storedArticle{
			Title:     a.Title,
			Venue:     a.Venue,
			Year:      a.Year,
			Citations: a.Citations,
			Link:      a.Link,
			CiteType:  a.CiteType,
			BibTeX:    a.BibTeX,
			Abstract:  a.Abstract,
			Qualis:    a.Qualis,
			Score:     a.Score,
			Concepts:  a.Concepts,
		}
		for _, au := range a.Authors {
			rec.Authors = append(rec.Authors, au.Key())
		}
		records = append(records, rec)
	}
	return writeGob(filepath.Join(s.dir, articlesFile), records)
}

func (s *FileStore) SaveAuthors(authors []*core.Author) error {
	records := make([]storedAuthor, 0, len(authors))
	for _, au := range authors {
		rec := storedAuthor{Name: au.Name, Link: au.Link}
		for _, a := range au.Articles {
			rec.Articles = append(rec.Articles, a.Key())
		}
		records = append(records, rec)
	}
	return writeGob(filepath.Join(s.dir, authorsFile), records)
}

// load reads both files once and rebuilds the object graph. Duplicate
// keys keep their first record; dangling references are dropped.
func (s *FileStore) load() error {
	if s.loaded {
		return s.loadErr
	}
	s.loaded = true

	var articleRecords []storedArticle
	if err := readGob(filepath.Join(s.dir, articlesFile), &articleRecords); err != nil {
		s.loadErr = err
		return err
	}
	var authorRecords []storedAuthor
	if err := readGob(filepath.Join(s.dir, authorsFile), &authorRecords); err != nil {
		s.loadErr = err
		return err
	}

	articleIndex := make(map[core.Key]*core.Article, len(articleRecords))
	authorIndex := make(map[core.AuthorKey]*core.Author, len(authorRecords))

	type articleLinks struct {
		article *core.Article
		authors []core.AuthorKey
	}
	type authorLinks struct {
		author   *core.Author
		articles []core.Key
	}

	var pendingArticles []articleLinks
	for _, rec := range articleRecords {
		key := core.NewKey(rec.Title, rec.Link)
		if _, dup := articleIndex[key]; dup {
			continue
		}
		a := &core.Article{
			Title:     rec.Title,
			Venue:     rec.Venue,
			Year:      rec.Year,
			Citations: rec.Citations,
			Link:      rec.Link,
			CiteType:  rec.CiteType,
			BibTeX:    rec.BibTeX,
			Abstract:  rec.Abstract,
			Qualis:    rec.Qualis,
			Score:     rec.Score,
			Concepts:  rec.Concepts,
		}
		articleIndex[key] = a
		s.articles = append(s.articles, a)
		pendingArticles = append(pendingArticles, articleLinks{article: a, authors: rec.Authors})
	}

	var pendingAuthors []authorLinks
	for _, rec := range authorRecords {
		key := core.AuthorKey{Name: rec.Name, Link: rec.Link}
		if _, dup := authorIndex[key]; dup {
			continue
		}
		au := &core.Author{Name: rec.Name, Link: rec.Link}
		authorIndex[key] = au
		s.authors = append(s.authors, au)
		pendingAuthors = append(pendingAuthors, authorLinks{author: au, articles: rec.Articles})
	}

	for _, p := range pendingArticles {
		for _, key := range p.authors {
			if au, ok := authorIndex[key]; ok {
				p.article.Authors = append(p.article.Authors, au)
			}
		}
	}
	for _, p := range pendingAuthors {
		for _, key := range p.articles {
			if a, ok := articleIndex[key]; ok {
				p.author.Articles = append(p.author.Articles, a)
			}
		}
	}
	return nil
}

func (s *FileStore) initMissing() error {
	articles := filepath.Join(s.dir, articlesFile)
	if _, err := os.Stat(articles); os.IsNotExist(err) {
		if err := writeGob(articles, []storedArticle{}); err != nil {
			return err
		}
	}
	authors := filepath.Join(s.dir, authorsFile)
	if _, err := os.Stat(authors); os.IsNotExist(err) {
		if err := writeGob(authors, []storedAuthor{}); err != nil {
			return err
		}
	}
	return nil
}

// migrateLegacyDir renames a directory created under the raw label
// before sanitization was applied. An existing target wins.
func migrateLegacyDir(root, label, sanitized string) {
	if label == sanitized {
		return
	}
	legacy := filepath.Join(root, label)
	target := filepath.Join(root, sanitized)
	if _, err := os.Stat(legacy); err != nil {
		return
	}
	if _, err := os.Stat(target); err == nil {
		logger.Event("STORE_MIGRATED", "legacy directory left in place, target already exists", map[string]interface{}{
			"legacy": legacy,
			"target": target,
		})
		return
	}
	if err := os.Rename(legacy, target); err != nil {
		logger.Warn("legacy directory rename failed", map[string]interface{}{
			"legacy": legacy,
			"target": target,
			"error":  err.Error(),
		})
		return
	}
	logger.Event("STORE_MIGRATED", "legacy directory renamed", map[string]interface{}{
		"legacy": legacy,
		"target": target,
	})
}

func readGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}

// writeGob encodes into a temp file in the target directory and renames
// it over the destination, so readers never see a partial file.
func writeGob(path string, v interface{}) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".collecte-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
