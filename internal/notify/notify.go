// Package notify renders run progress as operator messages on the
// console. The texts match the historical interface word for word;
// every message is mirrored as a structured activity event.
package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"collecte/internal/logger"
	"collecte/internal/semanticscholar"
)

// Console prints operator messages to Out, stdout when nil.
type Console struct {
	Out io.Writer
}

// NewConsole returns a Console writing to stdout.
func NewConsole() *Console {
	return &Console{Out: os.Stdout}
}

func (c *Console) writer() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// StrategyStarted announces one collection strategy.
func (c *Console) StrategyStarted(description string, position, total int) {
	fmt.Fprintf(c.writer(), "%s – étape %d/%d\n", description, position, total)
	logger.Event("SEARCH_STRATEGY", "running collection strategy", map[string]interface{}{
		"description": description,
		"position":    position,
		"total":       total,
	})
}

// StrategyResults reports how much one strategy contributed.
func (c *Console) StrategyResults(description string, newItems, totalItems int) {
	fmt.Fprintf(c.writer(), "%s : %d article(s) pertinent(s) sur %d reçu(s)\n", description, newItems, totalItems)
	logger.Event("SEARCH_STRATEGY_RESULT", "partial results received", map[string]interface{}{
		"description": description,
		"new_items":   newItems,
		"total_items": totalItems,
	})
}

// OnRetry surfaces the waits between request attempts.
func (c *Console) OnRetry(kind semanticscholar.RetryKind, wait time.Duration, attempt, maxAttempts int) {
	seconds := int(wait.Seconds())
	if kind == semanticscholar.RetryRateLimit {
		fmt.Fprintf(c.writer(), "Limite de requêtes atteinte. Nouvelle tentative dans %d seconde(s) (%d/%d).\n", seconds, attempt, maxAttempts)
		logger.Event("SEARCH_RETRY", "rate limit reached", map[string]interface{}{
			"wait_seconds": seconds,
			"attempt":      attempt,
			"max_attempts": maxAttempts,
		})
		return
	}
	fmt.Fprintf(c.writer(), "Nouvelle tentative dans %d seconde(s)… (%d/%d)\n", seconds, attempt, maxAttempts)
	logger.Event("SEARCH_RETRY", "transient error, retrying", map[string]interface{}{
		"wait_seconds": seconds,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
	})
}

// SearchDone announces a completed run.
func (c *Console) SearchDone(elapsed time.Duration, saved int) {
	seconds := int(elapsed.Seconds())
	fmt.Fprintf(c.writer(), "Recherche achevée en %d seconde(s) avec %d article(s) récupéré(s).\n", seconds, saved)
	logger.Event("SEARCH_SUCCESS", "collection run finished", map[string]interface{}{
		"duration_seconds": seconds,
		"new_articles":     saved,
	})
}

// SearchFailed announces an aborted or empty run.
func (c *Console) SearchFailed(message string) {
	fmt.Fprintf(c.writer(), "Recherche échouée : %s\n", message)
	logger.Event("SEARCH_FAILED", "collection run failed", map[string]interface{}{
		"reason": message,
	})
}

// ExportDone reports where the workbook landed.
func (c *Console) ExportDone(path string) {
	fmt.Fprintf(c.writer(), "Votre recherche a été enregistrée ici : %s\n", path)
	logger.Event("EXPORT_DONE", "export written", map[string]interface{}{
		"path": path,
	})
}

// ExportEmpty explains why nothing was exported.
func (c *Console) ExportEmpty(merge bool, label string) {
	if merge {
		fmt.Fprintln(c.writer(), "Aucun article n’a été trouvé dans les dossiers sélectionnés. Vérifiez les résultats enregistrés avant de fusionner.")
	} else {
		display := label
		if display == "" {
			display = "cette recherche"
		}
		fmt.Fprintf(c.writer(), "L’export est impossible : %s ne contient actuellement aucun article. Lancez ou relancez une collecte avant d’enregistrer.\n", display)
	}
	logger.Event("EXPORT_EMPTY", "export attempted with no articles", map[string]interface{}{
		"merge":  merge,
		"search": label,
	})
}
