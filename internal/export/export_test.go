package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"collecte/internal/core"
)

func testArticle(title, link, year, citations, grade string) *core.Article {
	return &core.Article{
		Title:     title,
		Venue:     "Journal of Mine Action",
		Year:      year,
		Citations: citations,
		Link:      link,
		BibTeX:    "-",
		CiteType:  "JournalArticle",
		Abstract:  "Aucun résumé",
		Qualis:    grade,
		Score:     50,
	}
}

func TestParseOrder(t *testing.T) {
	cases := []struct {
		in   string
		want Order
	}{
		{"", OrderImportance},
		{"importance", OrderImportance},
		{"Citations", OrderCitations},
		{"YEAR", OrderYear},
		{"alpha", OrderAlpha},
	}
	for _, tc := range cases {
		got, err := ParseOrder(tc.in)
		if err != nil {
			t.Errorf("ParseOrder(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOrder(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}

	if _, err := ParseOrder("bogus"); err == nil {
		t.Error("Expected error for unknown order")
	}
}

func TestRankArticlesFactors(t *testing.T) {
	articles := []*core.Article{
		testArticle("Old and excellent", "https://example.org/a", "2015", "150", "A1"),
		testArticle("Middle of the road", "https://example.org/b", "2020", "50", "B1"),
		testArticle("Fresh but unplaced", "https://example.org/c", "2025", "5", "NP"),
	}

	records := rankArticles(articles)

	if records[0].totalFactor != 0.8 {
		t.Errorf("Expected factor 0.8, got %v", records[0].totalFactor)
	}
	if records[1].totalFactor != 0.5278 {
		t.Errorf("Expected factor 0.5278, got %v", records[1].totalFactor)
	}
	if records[2].totalFactor != 0.2 {
		t.Errorf("Expected factor 0.2, got %v", records[2].totalFactor)
	}

	if records[0].relYear != 0 || records[2].relYear != 1 {
		t.Errorf("Expected year span 0..1, got %v and %v", records[0].relYear, records[2].relYear)
	}
	if records[1].citeBand != 0.5 {
		t.Errorf("Expected middle citation band 0.5, got %v", records[1].citeBand)
	}
}

func TestRankArticlesDegenerateSpan(t *testing.T) {
	articles := []*core.Article{
		testArticle("Only one", "https://example.org/a", "2020", "150", "A1"),
	}

	records := rankArticles(articles)
	if records[0].relYear != 0 {
		t.Errorf("Expected relYear 0 for single-year set, got %v", records[0].relYear)
	}
	if records[0].totalFactor != 0.8 {
		t.Errorf("Expected factor 0.8, got %v", records[0].totalFactor)
	}
}

func TestOrderRecords(t *testing.T) {
	articles := []*core.Article{
		testArticle("Bravo", "https://example.org/b", "2020", "200", "NP"),
		testArticle("Alpha", "https://example.org/a", "2025", "10", "NP"),
		testArticle("Charlie", "https://example.org/c", "2010", "50", "A1"),
	}

	cases := []struct {
		order Order
		first string
	}{
		{OrderImportance, "Charlie"},
		{OrderCitations, "Bravo"},
		{OrderYear, "Alpha"},
		{OrderAlpha, "Alpha"},
	}
	for _, tc := range cases {
		records := rankArticles(articles)
		orderRecords(records, tc.order)
		if got := records[0].article.Title; got != tc.first {
			t.Errorf("Order %q: expected %q first, got %q", tc.order, tc.first, got)
		}
	}
}

func TestOrderRecordsBreaksTiesByTitle(t *testing.T) {
	articles := []*core.Article{
		testArticle("Zulu", "https://example.org/z", "2020", "10", "NP"),
		testArticle("Alpha", "https://example.org/a", "2020", "10", "NP"),
	}

	records := rankArticles(articles)
	orderRecords(records, OrderYear)
	if records[0].article.Title != "Alpha" {
		t.Errorf("Expected title tie-break, got %q first", records[0].article.Title)
	}
}

func TestWriteAndReadBack(t *testing.T) {
	first := testArticle("Old and excellent", "https://example.org/a", "2015", "150", "A1")
	second := testArticle("Fresh but unplaced", "https://example.org/c", "2025", "5", "NP")
	author := &core.Author{Name: "Alice Martin"}
	author.AddArticle(first)
	author.AddArticle(second)
	empty := &core.Author{Name: "Bob Vide"}

	path := filepath.Join(t.TempDir(), "export", "Recherche.xlsx")
	err := Write(path, []*core.Article{first, second}, []*core.Author{author, empty}, OrderImportance)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "ARTICLES" || sheets[1] != "AUTHORS" {
		t.Fatalf("Expected sheets [ARTICLES AUTHORS], got %v", sheets)
	}

	cell := func(sheet, ref string) string {
		value, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s): %v", sheet, ref, err)
		}
		return value
	}

	if got := cell("ARTICLES", "A1"); got != "Rank" {
		t.Errorf("Expected header Rank, got %q", got)
	}
	if got := cell("ARTICLES", "M1"); got != "Abstract" {
		t.Errorf("Expected header Abstract, got %q", got)
	}
	if got := cell("ARTICLES", "B2"); got != "Old and excellent" {
		t.Errorf("Expected best factor first, got %q", got)
	}
	if got := cell("ARTICLES", "I2"); got != "0.8" {
		t.Errorf("Expected factor 0.8, got %q", got)
	}
	if got := cell("ARTICLES", "J2"); got != "1" {
		t.Errorf("Expected journal type label, got %q", got)
	}

	hasLink, target, err := f.GetCellHyperLink("ARTICLES", "K2")
	if err != nil {
		t.Fatalf("GetCellHyperLink: %v", err)
	}
	if !hasLink || target != "https://example.org/a" {
		t.Errorf("Expected hyperlink to the article, got %v %q", hasLink, target)
	}

	if got := cell("AUTHORS", "A2"); got != "Alice Martin" {
		t.Errorf("Expected Alice Martin, got %q", got)
	}
	if got := cell("AUTHORS", "B2"); got != "2" {
		t.Errorf("Expected 2 articles, got %q", got)
	}
	if got := cell("AUTHORS", "A3"); got != "" {
		t.Errorf("Expected authors without articles to be skipped, got %q", got)
	}
}

func TestMergeUnionsByKey(t *testing.T) {
	shared := testArticle("Shared study", "https://example.org/s", "2020", "10", "B1")
	duplicate := testArticle("Shared study", "https://example.org/s", "2020", "10", "B1")
	duplicate.Venue = "Different venue"
	extra := testArticle("Extra study", "https://example.org/e", "2021", "3", "NP")

	authorOne := &core.Author{Name: "Alice Martin"}
	authorOne.AddArticle(shared)
	authorTwo := &core.Author{Name: "Alice Martin"}
	authorTwo.AddArticle(duplicate)
	authorTwo.AddArticle(extra)

	articles, authors := Merge(
		[][]*core.Article{{shared}, {duplicate, extra}},
		[][]*core.Author{{authorOne}, {authorTwo}},
	)

	if len(articles) != 2 {
		t.Fatalf("Expected 2 merged articles, got %d", len(articles))
	}
	for _, article := range articles {
		if article.Title == "Shared study" && article.Venue != "Journal of Mine Action" {
			t.Errorf("Expected first occurrence to win, got venue %q", article.Venue)
		}
	}

	if len(authors) != 1 {
		t.Fatalf("Expected 1 merged author, got %d", len(authors))
	}
	if len(authors[0].Articles) != 2 {
		t.Errorf("Expected merged author with 2 articles, got %d", len(authors[0].Articles))
	}
	for _, article := range authors[0].Articles {
		if article.Title == "Shared study" && article != shared {
			t.Error("Expected the merged author to reference the canonical article")
		}
	}

	if len(authorOne.Articles) != 1 {
		t.Errorf("Expected input author untouched, got %d articles", len(authorOne.Articles))
	}
}
