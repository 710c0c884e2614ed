// Package planner derives the ordered list of search strategies a
// collection run walks through on Semantic Scholar.
package planner

import (
	"fmt"
	"strings"
	"time"

	"collecte/internal/semanticscholar"
	"collecte/internal/textutil"
)

// Strategy is one pass over the search endpoint. It overlays the base
// parameters: QueryOverride replaces the query, QuerySuffix extends it,
// Year narrows the publication window.
type Strategy struct {
	Description   string
	QueryOverride string
	QuerySuffix   string
	Year          string
}

// Params applies the strategy overlay to the base search parameters.
func (s Strategy) Params(base semanticscholar.SearchParams) semanticscholar.SearchParams {
	params := base
	if s.QueryOverride != "" {
		params.Query = s.QueryOverride
	} else if s.QuerySuffix != "" {
		params.Query = strings.TrimSpace(params.Query + " " + s.QuerySuffix)
	}
	if params.Query != "" {
		params.Query = textutil.DedupeTokens(params.Query)
	}
	if s.Year != "" {
		params.Year = s.Year
	}
	return params
}

// Planner builds the strategy list for one run.
type Planner struct {
	// CurrentYear anchors the relative year windows. Zero means the
	// wall clock year.
	CurrentYear int
}

// YearParam renders the Semantic Scholar year window covering the last
// n years, "2016-" style. Values at or below zero produce "".
func (p *Planner) YearParam(years int) string {
	if years <= 0 {
		return ""
	}
	start := p.year() - years + 1
	if start < 1900 {
		start = 1900
	}
	return fmt.Sprintf("%d-", start)
}

// Build assembles the strategies in execution order: the standard
// search, one strategy per targeted query, the recency windows the user
// filter does not already enforce, and a literature review pass.
func (p *Planner) Build(yearFilter int, targeted []string) []Strategy {
	strategies := []Strategy{{Description: describeStandard(yearFilter)}}

	for i, query := range targeted {
		description := "Requête ciblée"
		if len(targeted) > 1 {
			description = fmt.Sprintf("Requête ciblée %d", i+1)
		}
		strategies = append(strategies, Strategy{Description: description, QueryOverride: query})
	}

	if shouldAddRecent(yearFilter, 5) {
		strategies = append(strategies, Strategy{
			Description: "Articles récents (5 dernières années)",
			Year:        p.YearParam(5),
		})
	}
	if shouldAddRecent(yearFilter, 10) {
		strategies = append(strategies, Strategy{
			Description: "Articles publiés depuis 10 ans",
			Year:        p.YearParam(10),
		})
	}

	strategies = append(strategies, Strategy{
		Description: "Requête orientée revue de littérature",
		QuerySuffix: "review",
	})
	return strategies
}

func (p *Planner) year() int {
	if p.CurrentYear > 0 {
		return p.CurrentYear
	}
	return time.Now().Year()
}

func describeStandard(yearFilter int) string {
	switch yearFilter {
	case 5, 10, 20:
		return fmt.Sprintf("Recherche standard (≤ %d ans)", yearFilter)
	default:
		return "Recherche standard"
	}
}

// shouldAddRecent reports whether a dedicated window of the given span
// still adds coverage beyond the user filter.
func shouldAddRecent(yearFilter, years int) bool {
	if yearFilter == 0 {
		return true
	}
	return yearFilter > years
}
