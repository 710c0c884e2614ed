// Package core defines the domain model shared across the collector:
// articles, authors, their identity keys and the canonical orderings
// used for persistence and export.
package core

import (
	"sort"
	"strconv"
	"strings"
)

// Article is one collected publication. Fields are filled by the crawler
// when the article is built and never mutated afterwards; export-time
// rankings live in their own records.
type Article struct {
	Title     string
	Authors   []*Author // input order, deduplicated per article
	Venue     string    // "-" when the API returned none
	Year      string    // decimal string, "0" when absent
	Citations string    // decimal string, "0" when absent
	Link      string    // "-" when absent
	BibTeX    string    // "-" when the API returned no citation styles
	CiteType  string    // BibTeX entry type, e.g. "article"; "-" when absent
	Abstract  string    // cleaned; "Aucun résumé" when absent
	Qualis    string    // venue grade: A1..C, NF, NP
	Score     float64
	Concepts  []string
}

// Key identifies an article across strategies and stored collections.
// Both parts are lower-cased and trimmed so that case and whitespace
// variations collapse onto one entry.
type Key struct {
	Title string
	Link  string
}

// NewKey builds the normalized identity for a title/link pair.
func NewKey(title, link string) Key {
	return Key{
		Title: strings.ToLower(strings.TrimSpace(title)),
		Link:  strings.ToLower(strings.TrimSpace(link)),
	}
}

// Key returns the article's normalized identity.
func (a *Article) Key() Key { return NewKey(a.Title, a.Link) }

// YearInt returns the publication year, 0 when unknown or unparsable.
func (a *Article) YearInt() int {
	n, err := strconv.Atoi(strings.TrimSpace(a.Year))
	if err != nil {
		return 0
	}
	return n
}

// CitationsInt returns the citation count, 0 when unknown or unparsable.
func (a *Article) CitationsInt() int {
	n, err := strconv.Atoi(strings.TrimSpace(a.Citations))
	if err != nil {
		return 0
	}
	return n
}

// CiteTypeLabel buckets the entry type for export: "1" journal
// material, "2" conference material, "3" books and reports, "4"
// anything else. Case-sensitive substring buckets, checked in order:
// a type carrying both Conference and Review labels "2".
func (a *Article) CiteTypeLabel() string {
	switch {
	case strings.Contains(a.CiteType, "Conference") || strings.Contains(a.CiteType, "CaseReport"):
		return "2"
	case strings.Contains(a.CiteType, "JournalArticle") || strings.Contains(a.CiteType, "Review"):
		return "1"
	case strings.Contains(a.CiteType, "Book") || strings.Contains(a.CiteType, "BookSection") ||
		strings.Contains(a.CiteType, "News") || strings.Contains(a.CiteType, "Study"):
		return "3"
	default:
		return "4"
	}
}

// Author is a collected author profile. Link stays empty for authors
// discovered through the search API; it remains part of the identity so
// profiles from richer sources do not collapse onto name-only ones.
type Author struct {
	Name     string
	Link     string
	Articles []*Article // ordered set, sorted by title then link
}

// AuthorKey identifies an author.
type AuthorKey struct {
	Name string
	Link string
}

// Key returns the author's identity.
func (au *Author) Key() AuthorKey { return AuthorKey{Name: au.Name, Link: au.Link} }

// AddArticle inserts the article keeping the title ordering. An article
// whose identity key is already present is ignored.
func (au *Author) AddArticle(a *Article) {
	k := a.Key()
	for _, existing := range au.Articles {
		if existing.Key() == k {
			return
		}
	}
	au.Articles = append(au.Articles, a)
	SortArticles(au.Articles)
}

// SortArticles orders articles by title then link, case-insensitive.
// Persisted and exported collections go through this so runs over the
// same data produce identical output.
func SortArticles(articles []*Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return LessByTitle(articles[i], articles[j])
	})
}

// SortAuthors orders authors by name then link, case-insensitive.
func SortAuthors(authors []*Author) {
	sort.SliceStable(authors, func(i, j int) bool {
		an, bn := strings.ToLower(authors[i].Name), strings.ToLower(authors[j].Name)
		if an != bn {
			return an < bn
		}
		return authors[i].Link < authors[j].Link
	})
}

// LessByTitle is the title-then-link ordering used as the global
// tie-break.
func LessByTitle(a, b *Article) bool {
	at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if at != bt {
		return at < bt
	}
	return strings.ToLower(a.Link) < strings.ToLower(b.Link)
}

// LessByScore orders best-first: score descending, then LessByTitle.
func LessByScore(a, b *Article) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return LessByTitle(a, b)
}
