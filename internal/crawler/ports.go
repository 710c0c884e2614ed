package crawler

import (
	"context"
	"time"

	"collecte/internal/core"
	"collecte/internal/semanticscholar"
)

// Fetcher issues one search request against Semantic Scholar.
type Fetcher interface {
	Search(ctx context.Context, params semanticscholar.SearchParams) (*semanticscholar.SearchResponse, error)
}

// Store persists the collection behind one search label.
type Store interface {
	LoadArticles() ([]*core.Article, error)
	LoadAuthors() ([]*core.Author, error)
	SaveArticles([]*core.Article) error
	SaveAuthors([]*core.Author) error
}

// Translator expands a phrase into its language variants, the original
// form first.
type Translator interface {
	Variants(ctx context.Context, text string) []string
}

// VenueRater grades a publication venue on the Qualis scale.
type VenueRater interface {
	Grade(venue string) string
}

// Notifier receives the user-facing progress of a run. Retry
// notifications from the HTTP client arrive through the embedded
// interface.
type Notifier interface {
	semanticscholar.RetryNotifier

	StrategyStarted(description string, position, total int)
	StrategyResults(description string, newItems, totalItems int)
	SearchDone(elapsed time.Duration, saved int)
	SearchFailed(message string)
}
