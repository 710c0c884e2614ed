// Package export writes collected articles and authors to an xlsx
// workbook. Articles are never mutated; rankings live in per-export
// records so repeated exports over the same data are identical.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"collecte/internal/core"
	"collecte/internal/qualis"
)

// Order selects the row ordering of the ARTICLES sheet.
type Order string

const (
	OrderImportance Order = "importance"
	OrderCitations  Order = "citations"
	OrderYear       Order = "year"
	OrderAlpha      Order = "alpha"
)

// ParseOrder resolves a user-supplied order name. Empty means
// importance, the recommended default.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OrderImportance):
		return OrderImportance, nil
	case string(OrderCitations):
		return OrderCitations, nil
	case string(OrderYear):
		return OrderYear, nil
	case string(OrderAlpha):
		return OrderAlpha, nil
	}
	return "", fmt.Errorf("unknown export order %q (expected importance, citations, year or alpha)", s)
}

const (
	articlesSheet = "ARTICLES"
	authorsSheet  = "AUTHORS"
)

var articleHeaders = []string{
	"Rank", "Title", "Authors", "Venue", "Year", "Citations", "Qualis",
	"Score", "Facteur", "Type", "Link", "Concepts", "Abstract",
}

var authorHeaders = []string{"Name", "Articles", "Titles"}

// Workbook assembles one export.
type Workbook struct {
	articles []*core.Article
	authors  []*core.Author
	order    Order
}

// NewWorkbook prepares a workbook over the given collection.
func NewWorkbook(articles []*core.Article, authors []*core.Author, order Order) *Workbook {
	return &Workbook{articles: articles, authors: authors, order: order}
}

// Write exports the collection to path in the given order.
func Write(path string, articles []*core.Article, authors []*core.Author, order Order) error {
	return NewWorkbook(articles, authors, order).Save(path)
}

// Save renders both worksheets and writes the file, creating the parent
// directory when needed.
func (w *Workbook) Save(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", articlesSheet); err != nil {
		return fmt.Errorf("renaming articles sheet: %w", err)
	}
	if _, err := f.NewSheet(authorsSheet); err != nil {
		return fmt.Errorf("adding authors sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"757A79"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := w.writeArticles(f, headerStyle); err != nil {
		return err
	}
	if err := w.writeAuthors(f, headerStyle); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (w *Workbook) writeArticles(f *excelize.File, headerStyle int) error {
	if err := writeHeaderRow(f, articlesSheet, articleHeaders, headerStyle); err != nil {
		return err
	}

	records := rankArticles(w.articles)
	orderRecords(records, w.order)

	for i, record := range records {
		row := i + 2
		article := record.article
		values := []interface{}{
			i + 1,
			article.Title,
			joinAuthorNames(article.Authors),
			article.Venue,
			article.Year,
			article.Citations,
			article.Qualis,
			article.Score,
			record.totalFactor,
			article.CiteTypeLabel(),
			article.Link,
			strings.Join(article.Concepts, ", "),
			article.Abstract,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("resolving cell: %w", err)
			}
			if err := f.SetCellValue(articlesSheet, cell, value); err != nil {
				return fmt.Errorf("writing article row %d: %w", row, err)
			}
		}
		if strings.HasPrefix(article.Link, "http") {
			cell, err := excelize.CoordinatesToCellName(11, row)
			if err != nil {
				return fmt.Errorf("resolving cell: %w", err)
			}
			if err := f.SetCellHyperLink(articlesSheet, cell, article.Link, "External"); err != nil {
				return fmt.Errorf("linking article row %d: %w", row, err)
			}
		}
	}

	widths := map[string]float64{
		"A": 6, "B": 50, "C": 35, "D": 30, "E": 8, "F": 10, "G": 8,
		"H": 10, "I": 10, "J": 6, "K": 35, "L": 30, "M": 60,
	}
	for col, width := range widths {
		if err := f.SetColWidth(articlesSheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	return nil
}

func (w *Workbook) writeAuthors(f *excelize.File, headerStyle int) error {
	if err := writeHeaderRow(f, authorsSheet, authorHeaders, headerStyle); err != nil {
		return err
	}

	authors := make([]*core.Author, len(w.authors))
	copy(authors, w.authors)
	core.SortAuthors(authors)

	row := 2
	for _, author := range authors {
		if len(author.Articles) == 0 {
			continue
		}
		titles := make([]string, 0, len(author.Articles))
		for _, article := range author.Articles {
			titles = append(titles, article.Title)
		}
		values := []interface{}{author.Name, len(author.Articles), strings.Join(titles, "; ")}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("resolving cell: %w", err)
			}
			if err := f.SetCellValue(authorsSheet, cell, value); err != nil {
				return fmt.Errorf("writing author row %d: %w", row, err)
			}
		}
		row++
	}

	widths := map[string]float64{"A": 30, "B": 10, "C": 80}
	for col, width := range widths {
		if err := f.SetColWidth(authorsSheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("resolving cell: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	return nil
}

func joinAuthorNames(authors []*core.Author) string {
	names := make([]string, 0, len(authors))
	for _, author := range authors {
		names = append(names, author.Name)
	}
	return strings.Join(names, "; ")
}

// ranked carries the per-export scores of one article.
type ranked struct {
	article     *core.Article
	relYear     float64
	citeBand    float64
	qualisScore float64
	totalFactor float64
}

// rankArticles computes the importance factors over the exported set.
// The year is normalized across the set's own span, citations fall in
// three bands and the Qualis grade maps linearly with A1 best.
func rankArticles(articles []*core.Article) []ranked {
	minYear, maxYear := 0, 0
	for i, article := range articles {
		year := article.YearInt()
		if i == 0 || year < minYear {
			minYear = year
		}
		if i == 0 || year > maxYear {
			maxYear = year
		}
	}
	span := float64(maxYear - minYear)

	records := make([]ranked, 0, len(articles))
	for _, article := range articles {
		record := ranked{article: article}
		if span > 0 {
			record.relYear = float64(article.YearInt()-minYear) / span
		}
		citations := article.CitationsInt()
		switch {
		case citations > 100:
			record.citeBand = 1
		case citations > 20:
			record.citeBand = 0.5
		}
		record.qualisScore = 1 - float64(qualis.ScoreOf(article.Qualis)-1)/9
		record.totalFactor = round4(0.2*record.relYear + 0.3*record.citeBand + 0.5*record.qualisScore)
		records = append(records, record)
	}
	return records
}

func orderRecords(records []ranked, order Order) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch order {
		case OrderCitations:
			if ac, bc := a.article.CitationsInt(), b.article.CitationsInt(); ac != bc {
				return ac > bc
			}
		case OrderYear:
			if ay, by := a.article.YearInt(), b.article.YearInt(); ay != by {
				return ay > by
			}
		case OrderAlpha:
		default:
			if a.totalFactor != b.totalFactor {
				return a.totalFactor > b.totalFactor
			}
		}
		return core.LessByTitle(a.article, b.article)
	})
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// Merge unions several loaded collections for a merged export: articles
// dedupe by Key with the first occurrence winning, authors merge their
// article lists under one profile. Inputs are not mutated.
func Merge(articleSets [][]*core.Article, authorSets [][]*core.Author) ([]*core.Article, []*core.Author) {
	articleByKey := make(map[core.Key]*core.Article)
	var articles []*core.Article
	for _, set := range articleSets {
		for _, article := range set {
			key := article.Key()
			if _, seen := articleByKey[key]; seen {
				continue
			}
			articleByKey[key] = article
			articles = append(articles, article)
		}
	}

	authorByKey := make(map[core.AuthorKey]*core.Author)
	var authors []*core.Author
	for _, set := range authorSets {
		for _, author := range set {
			key := author.Key()
			merged, seen := authorByKey[key]
			if !seen {
				merged = &core.Author{Name: author.Name, Link: author.Link}
				authorByKey[key] = merged
				authors = append(authors, merged)
			}
			for _, article := range author.Articles {
				if canonical, ok := articleByKey[article.Key()]; ok {
					merged.AddArticle(canonical)
				} else {
					merged.AddArticle(article)
				}
			}
		}
	}

	core.SortArticles(articles)
	core.SortAuthors(authors)
	return articles, authors
}
