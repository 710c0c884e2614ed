package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"collecte/internal/config"
	"collecte/internal/crawler"
	"collecte/internal/logger"
	"collecte/internal/notify"
	"collecte/internal/qualis"
	"collecte/internal/semanticscholar"
	"collecte/internal/store"
	"collecte/internal/tornet"
	"collecte/internal/translate"
	"collecte/internal/tui"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Lance une collecte d'articles pour une requête",
		Long: `Interroge Semantic Scholar avec la requête et ses variantes, filtre
les articles reçus par pertinence et ajoute les nouveaux articles aux
résultats enregistrés sous l'étiquette choisie.

Exemples :
  collecte search "mine detection dogs"
  collecte search "détection de mines" --label demining --pages 30 --years 10
  collecte search "landmine clearance" --required landmine --optional robot
  collecte search "mine detection" --tui`,
		Args: cobra.ExactArgs(1),
		RunE: searchRun,
	}

	cmd.Flags().String("label", "", "store label (default: the query)")
	cmd.Flags().Int("pages", 20, "desired number of articles")
	cmd.Flags().Int("years", 0, "keep publications of the last N years (0 = no limit)")
	cmd.Flags().StringSlice("required", nil, "keywords an article must contain")
	cmd.Flags().StringSlice("optional", nil, "keywords that raise the relevance score")
	cmd.Flags().Bool("tui", false, "show live progress instead of console lines")
	cmd.Flags().Bool("renew-identity", false, "request a new Tor identity before the run")

	return cmd
}

func searchRun(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}

	label, _ := cmd.Flags().GetString("label")
	pages, _ := cmd.Flags().GetInt("pages")
	years, _ := cmd.Flags().GetInt("years")
	required, _ := cmd.Flags().GetStringSlice("required")
	optional, _ := cmd.Flags().GetStringSlice("optional")
	useTUI, _ := cmd.Flags().GetBool("tui")
	renewIdentity, _ := cmd.Flags().GetBool("renew-identity")

	if label == "" {
		label = query
	}

	cfg := config.Get()
	runID := uuid.New().String()

	logger.Info("starting collection run", map[string]interface{}{
		"run_id": runID,
		"query":  query,
		"label":  label,
	})

	required = capKeywords(required, cfg.Search.MaxKeywordRules, "required")
	optional = capKeywords(optional, cfg.Search.MaxKeywordRules, "optional")

	if renewIdentity {
		if err := tornet.RenewIdentity(cfg.Tor); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Tor identity renewal failed: %v\n", err)
		}
	}

	timeout := time.Duration(cfg.SemanticScholar.TimeoutSeconds) * time.Second
	httpClient, err := tornet.HTTPClient(cfg.Tor, timeout)
	if err != nil {
		return fmt.Errorf("building HTTP client: %w", err)
	}

	fileStore, err := store.New(cfg.App.DataDir, label)
	if err != nil {
		return fmt.Errorf("opening result store: %w", err)
	}

	translator, err := translate.New(cfg.Translation, httpClient)
	if err != nil {
		return fmt.Errorf("configuring translation: %w", err)
	}

	crawlCfg := crawler.Config{
		RunID:      runID,
		Query:      query,
		Pages:      pages,
		YearFilter: years,
		Mandatory:  required,
		Optional:   optional,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if useTUI {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		return tui.RunCrawl(cancel, query, runID, func(notifier *tui.Notifier) error {
			fetcher := newFetcher(cfg, httpClient, notifier)
			controller := crawler.New(crawlCfg, fetcher, fileStore, translator, qualis.New(), notifier)
			return controller.Run(runCtx)
		})
	}

	notifier := notify.NewConsole()
	fetcher := newFetcher(cfg, httpClient, notifier)
	controller := crawler.New(crawlCfg, fetcher, fileStore, translator, qualis.New(), notifier)
	return controller.Run(ctx)
}

func newFetcher(cfg *config.Config, httpClient *http.Client, notifier semanticscholar.RetryNotifier) *semanticscholar.Client {
	return semanticscholar.New(semanticscholar.Config{
		Endpoint:   cfg.SemanticScholar.Endpoint,
		APIKey:     cfg.SemanticScholar.APIKey,
		Timeout:    time.Duration(cfg.SemanticScholar.TimeoutSeconds) * time.Second,
		HTTPClient: httpClient,
		Notifier:   notifier,
	})
}

// capKeywords trims keyword rule lists to the configured maximum so a
// single flag cannot blow up the per-article scoring work.
func capKeywords(terms []string, limit int, flag string) []string {
	if limit <= 0 || len(terms) <= limit {
		return terms
	}
	logger.Warn("keyword rules truncated", map[string]interface{}{
		"flag":  flag,
		"given": len(terms),
		"kept":  limit,
	})
	fmt.Fprintf(os.Stderr, "Warning: --%s keeps only the first %d keyword(s)\n", flag, limit)
	return terms[:limit]
}
