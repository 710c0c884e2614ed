package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"collecte/internal/config"
	"collecte/internal/semanticscholar"
	"collecte/internal/tornet"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Affiche la configuration réseau et l'état de la connexion",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Get()

			endpoint := cfg.SemanticScholar.Endpoint
			if endpoint == "" {
				endpoint = semanticscholar.DefaultEndpoint
			}
			fmt.Printf("Endpoint Semantic Scholar : %s\n", endpoint)

			fmt.Printf("Proxy SOCKS : %s\n", orNone(cfg.Tor.SocksProxy))
			fmt.Printf("Proxy HTTP : %s\n", orNone(cfg.Tor.HTTPProxy))

			if cfg.Tor.ControlPort > 0 {
				fmt.Printf("Port de contrôle Tor : %d\n", cfg.Tor.ControlPort)
			} else {
				fmt.Println("Port de contrôle Tor : désactivé")
			}

			if cfg.Tor.BrowserPath != "" {
				fmt.Printf("Navigateur Tor : %s\n", cfg.Tor.BrowserPath)
			}

			status := tornet.StatusMessage(cfg.Tor)
			if cfg.SemanticScholar.APIKey != "" {
				status += " Clé API Semantic Scholar chargée."
			} else {
				status += " Pas de clé API détectée."
			}
			fmt.Println(status)
		},
	}
}

func orNone(value string) string {
	if value == "" {
		return "aucun"
	}
	return value
}
