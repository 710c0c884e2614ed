// Package crawler drives a collection run end to end: query expansion,
// strategy execution, relevance filtering and integration of the
// survivors into the stored collection.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"collecte/internal/core"
	"collecte/internal/logger"
	"collecte/internal/planner"
	"collecte/internal/relevance"
	"collecte/internal/semanticscholar"
	"collecte/internal/textutil"
)

// ErrNoNewArticles reports a run that finished without adding any
// article to the stored collection.
var ErrNoNewArticles = errors.New("no new articles collected")

// Config carries the parameters of one collection run.
type Config struct {
	RunID      string
	Query      string
	Pages      int      // desired number of articles
	YearFilter int      // publication window in years, 0 disables it
	Mandatory  []string // keyword terms an article must contain
	Optional   []string // keyword terms that lift the score
}

// Controller owns one run.
type Controller struct {
	cfg        Config
	fetcher    Fetcher
	store      Store
	translator Translator
	rater      VenueRater
	notifier   Notifier
	planner    planner.Planner
	now        func() time.Time
}

// New wires a controller from its ports.
func New(cfg Config, fetcher Fetcher, store Store, translator Translator, rater VenueRater, notifier Notifier) *Controller {
	return &Controller{
		cfg:        cfg,
		fetcher:    fetcher,
		store:      store,
		translator: translator,
		rater:      rater,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Run executes the collection. It returns ErrNoNewArticles when every
// strategy completed but nothing new was kept, and the underlying
// request error when a strategy failed outright.
func (c *Controller) Run(ctx context.Context) error {
	started := c.now()

	desired := c.cfg.Pages
	if desired < 1 {
		desired = 1
	}

	// Working form of the query: whitespace collapsed, trimmed.
	queryPhrase := strings.Join(strings.Fields(c.cfg.Query), " ")

	articles, err := c.store.LoadArticles()
	if err != nil {
		logger.Warn("stored articles unreadable, starting empty", map[string]interface{}{
			"run_id": c.cfg.RunID, "error": err.Error(),
		})
		articles = nil
	}
	authors, err := c.store.LoadAuthors()
	if err != nil {
		logger.Warn("stored authors unreadable, starting empty", map[string]interface{}{
			"run_id": c.cfg.RunID, "error": err.Error(),
		})
		authors = nil
	}

	existing := make(map[core.Key]struct{}, len(articles))
	for _, article := range articles {
		existing[article.Key()] = struct{}{}
	}
	authorIndex := make(map[core.AuthorKey]*core.Author, len(authors))
	inCollection := make(map[core.AuthorKey]struct{}, len(authors))
	for _, author := range authors {
		authorIndex[author.Key()] = author
		inCollection[author.Key()] = struct{}{}
	}

	searchQuery := c.buildQuery(ctx, queryPhrase)
	engine := relevance.NewEngine(searchQuery,
		c.keywordRules(ctx, c.cfg.Mandatory),
		c.keywordRules(ctx, c.cfg.Optional))

	base := semanticscholar.SearchParams{
		Query:  searchQuery,
		Fields: semanticscholar.DefaultFields,
		Limit:  desired,
	}
	if year := c.planner.YearParam(c.cfg.YearFilter); year != "" {
		base.Year = year
	}

	targeted := engine.TargetedQueries()
	strategies := c.planner.Build(c.cfg.YearFilter, targeted)

	logger.Info("collection run starting", map[string]interface{}{
		"run_id":      c.cfg.RunID,
		"query":       searchQuery,
		"desired":     desired,
		"year_filter": c.cfg.YearFilter,
		"strategies":  len(strategies),
		"targeted":    len(targeted),
	})

	accepted := newPool()
	fallback := newPool()
	responses := 0

	for i, strategy := range strategies {
		c.notifier.StrategyStarted(strategy.Description, i+1, len(strategies))

		resp, err := c.fetcher.Search(ctx, strategy.Params(base))
		if err != nil {
			var reqErr *semanticscholar.RequestError
			if !errors.As(err, &reqErr) || reqErr.Kind != semanticscholar.KindMalformed {
				logger.Error("strategy request failed", err, map[string]interface{}{
					"run_id":      c.cfg.RunID,
					"description": strategy.Description,
				})
				c.notifier.SearchFailed(semanticscholar.UserMessage(err))
				return err
			}
			resp = &semanticscholar.SearchResponse{}
		}
		responses++

		papers, ok := resp.Papers()
		if !ok {
			logger.Event("FETCH_EMPTY", "no usable article data in the response", map[string]interface{}{
				"run_id":      c.cfg.RunID,
				"description": strategy.Description,
			})
		}

		totalItems := len(papers)
		if resp.Total != nil && *resp.Total > 0 {
			totalItems = *resp.Total
		}

		before := accepted.size()
		for _, paper := range papers {
			article := c.buildArticle(paper, authorIndex)

			result := engine.Evaluate(article.Title, article.Abstract)
			article.Score = result.Score
			concepts := result.MatchedConcepts
			if len(concepts) == 0 {
				concepts = result.MatchedTerms
			}
			article.Concepts = append([]string(nil), concepts...)
			sort.Strings(article.Concepts)

			key := article.Key()
			if _, seen := existing[key]; seen {
				continue
			}
			if !accepted.better(key, article.Score) || !fallback.better(key, article.Score) {
				continue
			}

			if engine.ShouldKeep(result, accepted.size(), desired) {
				accepted.put(key, candidate{article: article, result: result})
				logger.Debug("article accepted", map[string]interface{}{
					"title": article.Title,
					"score": article.Score,
				})
			} else if len(result.MandatoryMissing) > 0 {
				logger.Event("RELEVANCE_REJECT", "article rejected, mandatory keywords missing", map[string]interface{}{
					"run_id":  c.cfg.RunID,
					"title":   article.Title,
					"link":    article.Link,
					"score":   article.Score,
					"missing": result.MandatoryMissing,
				})
			} else {
				fallback.put(key, candidate{article: article, result: result})
			}
		}

		c.notifier.StrategyResults(strategy.Description, accepted.size()-before, totalItems)

		if accepted.size() >= desired {
			break
		}
	}

	selected := accepted.ranked()
	if len(selected) < desired && fallback.size() > 0 {
		// A key promoted to accepted after landing in fallback lives in
		// both pools; the accepted entry wins.
		for _, cand := range fallback.ranked() {
			if len(selected) >= desired {
				break
			}
			if accepted.has(cand.article.Key()) {
				continue
			}
			selected = append(selected, cand)
		}
	}
	if len(selected) > desired {
		selected = selected[:desired]
	}

	added := 0
	for _, cand := range selected {
		key := cand.article.Key()
		if _, seen := existing[key]; seen {
			continue
		}
		existing[key] = struct{}{}
		articles = append(articles, cand.article)
		added++

		for _, author := range cand.article.Authors {
			if _, known := inCollection[author.Key()]; !known {
				inCollection[author.Key()] = struct{}{}
				authors = append(authors, author)
			}
			author.AddArticle(cand.article)
		}
	}

	if responses == 0 || added == 0 {
		c.notifier.SearchFailed(fmt.Sprintf(
			"Aucun nouvel article n’a été trouvé pour « %s ». Modifiez la requête ou réessayez ultérieurement.",
			queryPhrase))
		logger.Info("run kept nothing new", map[string]interface{}{
			"run_id":    c.cfg.RunID,
			"responses": responses,
		})
		return ErrNoNewArticles
	}

	core.SortArticles(articles)
	core.SortAuthors(authors)
	if err := c.store.SaveArticles(articles); err != nil {
		logger.Error("saving articles failed", err, map[string]interface{}{"run_id": c.cfg.RunID})
		return err
	}
	if err := c.store.SaveAuthors(authors); err != nil {
		logger.Error("saving authors failed", err, map[string]interface{}{"run_id": c.cfg.RunID})
		return err
	}

	logger.Info("collection run finished", map[string]interface{}{
		"run_id":         c.cfg.RunID,
		"added":          added,
		"total_articles": len(articles),
		"total_authors":  len(authors),
	})
	c.notifier.SearchDone(c.now().Sub(started), added)
	return nil
}

// buildQuery joins the translation variants of the query phrase and
// collapses adjacent duplicate tokens.
func (c *Controller) buildQuery(ctx context.Context, phrase string) string {
	variants := c.translator.Variants(ctx, phrase)
	if len(variants) == 0 {
		return ""
	}
	query := textutil.DedupeTokens(strings.Join(variants, " "))
	if query != phrase {
		logger.Debug("query expanded with variants", map[string]interface{}{
			"original": c.cfg.Query,
			"query":    query,
		})
	}
	return query
}

// keywordRules expands each raw term into a rule whose forms are its
// translation variants. Blank terms and terms the translator cannot
// expand are dropped.
func (c *Controller) keywordRules(ctx context.Context, terms []string) []relevance.KeywordRule {
	var rules []relevance.KeywordRule
	for _, raw := range terms {
		term := strings.TrimSpace(raw)
		if term == "" {
			continue
		}
		variants := c.translator.Variants(ctx, term)
		if len(variants) == 0 {
			continue
		}
		rules = append(rules, relevance.KeywordRule{Label: term, Forms: variants, Display: variants})
	}
	return rules
}

// buildArticle maps one API paper onto the stored article shape,
// canonicalizing its authors through the run-wide index.
func (c *Controller) buildArticle(paper semanticscholar.Paper, index map[core.AuthorKey]*core.Author) *core.Article {
	article := &core.Article{Title: paper.Title}

	seen := make(map[core.AuthorKey]struct{}, len(paper.Authors))
	for _, pa := range paper.Authors {
		if pa.Name == "" {
			continue
		}
		author := &core.Author{Name: pa.Name}
		key := author.Key()
		if canonical, ok := index[key]; ok {
			author = canonical
		} else {
			index[key] = author
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		article.Authors = append(article.Authors, author)
	}

	article.Venue = textOr(paper.Venue, "-")
	article.Year = numberOr(paper.Year)
	article.Citations = numberOr(paper.CitationCount)
	article.Link = textOr(paper.URL, "-")

	article.BibTeX = "-"
	article.CiteType = "-"
	if paper.CitationStyles != nil && paper.CitationStyles.BibTeX != nil && *paper.CitationStyles.BibTeX != "" {
		article.BibTeX = *paper.CitationStyles.BibTeX
		article.CiteType = citeTypeOf(article.BibTeX)
	}

	abstract := "Aucun résumé"
	if paper.Abstract != nil && *paper.Abstract != "" {
		abstract = strings.ReplaceAll(*paper.Abstract, " Expand", "")
	}
	article.Abstract = strings.ReplaceAll(abstract, "TLDR\n", "")

	article.Qualis = c.rater.Grade(article.Venue)
	return article
}

// citeTypeOf extracts the entry type from a BibTeX string, the text
// between the first '@' and the first '{'.
func citeTypeOf(bibtex string) string {
	start := strings.Index(bibtex, "@")
	if start < 0 {
		return "-"
	}
	head := bibtex[start+1:]
	if i := strings.Index(head, "{"); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		return "-"
	}
	return head
}

func textOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func numberOr(value *int) string {
	if value == nil {
		return "0"
	}
	return strconv.Itoa(*value)
}
