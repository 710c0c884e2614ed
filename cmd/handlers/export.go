package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"collecte/internal/config"
	"collecte/internal/core"
	"collecte/internal/export"
	"collecte/internal/logger"
	"collecte/internal/notify"
	"collecte/internal/store"
	"collecte/internal/textutil"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [label...]",
		Short: "Exporte une ou plusieurs recherches au format Excel",
		Long: `Charge les articles enregistrés sous chaque étiquette et produit un
classeur Excel : une feuille d'articles classés et une feuille
d'auteurs. Plusieurs étiquettes sont fusionnées avant l'export.

Exemples :
  collecte export demining
  collecte export demining robots --order citations --out resultats/fusion.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: exportRun,
	}

	cmd.Flags().String("order", "", "article ordering: importance, citations, year or alpha")
	cmd.Flags().String("out", "", "output path (default: <export.directory>/<label>.xlsx)")

	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	orderFlag, _ := cmd.Flags().GetString("order")
	outFlag, _ := cmd.Flags().GetString("out")

	order, err := export.ParseOrder(orderFlag)
	if err != nil {
		return err
	}

	cfg := config.Get()
	notifier := notify.NewConsole()

	var articleSets [][]*core.Article
	var authorSets [][]*core.Author
	for _, label := range args {
		fileStore, err := store.New(cfg.App.DataDir, label)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open the store for %q: %v\n", label, err)
			continue
		}
		articles, err := fileStore.LoadArticles()
		if err != nil {
			logger.Warn("stored articles unreadable, treating as empty", map[string]interface{}{
				"label": label, "error": err.Error(),
			})
			articles = nil
		}
		authors, err := fileStore.LoadAuthors()
		if err != nil {
			logger.Warn("stored authors unreadable, treating as empty", map[string]interface{}{
				"label": label, "error": err.Error(),
			})
			authors = nil
		}
		articleSets = append(articleSets, articles)
		authorSets = append(authorSets, authors)
	}

	articles, authors := export.Merge(articleSets, authorSets)

	merge := len(args) > 1
	if len(articles) == 0 {
		notifier.ExportEmpty(merge, args[0])
		return fmt.Errorf("nothing to export")
	}

	path := outFlag
	if path == "" {
		path = filepath.Join(cfg.Export.Directory, textutil.SanitizeLabel(args[0])+".xlsx")
	}

	if err := export.Write(path, articles, authors, order); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	notifier.ExportDone(path)
	return nil
}
