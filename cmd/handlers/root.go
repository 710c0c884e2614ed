// Package handlers wires the command line surface: configuration
// loading, logger setup and one constructor per subcommand.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"collecte/internal/config"
	"collecte/internal/logger"
)

var cfgFile string

// NewRootCmd creates the base command with the shared configuration
// flag and every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collecte",
		Short: "Collecte d'articles scientifiques via Semantic Scholar",
		Long: `Collecte interroge l'API Semantic Scholar, filtre les articles reçus
par pertinence et enregistre les résultats de chaque recherche sous une
étiquette réutilisable.

Exemples :
  # Lancer une collecte
  collecte search "mine detection dogs" --label demining --pages 30

  # Exporter une recherche au format Excel
  collecte export demining --order citations

  # Vérifier la configuration réseau
  collecte status`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .collecte.yaml)")

	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewStatusCmd())

	cobra.OnInitialize(initConfig)

	return rootCmd
}

// initConfig loads configuration and prepares the activity log before
// any command runs.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		return
	}
	logger.Init(cfg.App.LogLevel, cfg.App.LogDir)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
