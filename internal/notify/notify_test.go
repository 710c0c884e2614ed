package notify

import (
	"bytes"
	"testing"
	"time"

	"collecte/internal/semanticscholar"
)

func TestStrategyMessages(t *testing.T) {
	var out bytes.Buffer
	console := &Console{Out: &out}

	console.StrategyStarted("Recherche standard", 1, 4)
	console.StrategyResults("Recherche standard", 3, 10)

	want := "Recherche standard – étape 1/4\n" +
		"Recherche standard : 3 article(s) pertinent(s) sur 10 reçu(s)\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestOnRetryDistinguishesKinds(t *testing.T) {
	var out bytes.Buffer
	console := &Console{Out: &out}

	console.OnRetry(semanticscholar.RetryRateLimit, 7*time.Second, 1, 6)
	console.OnRetry(semanticscholar.RetryTransient, 5*time.Second, 2, 6)

	want := "Limite de requêtes atteinte. Nouvelle tentative dans 7 seconde(s) (1/6).\n" +
		"Nouvelle tentative dans 5 seconde(s)… (2/6)\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestSearchOutcomeMessages(t *testing.T) {
	var out bytes.Buffer
	console := &Console{Out: &out}

	console.SearchDone(65*time.Second, 12)
	console.SearchFailed("quelque chose a mal tourné")

	want := "Recherche achevée en 65 seconde(s) avec 12 article(s) récupéré(s).\n" +
		"Recherche échouée : quelque chose a mal tourné\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestExportMessages(t *testing.T) {
	var out bytes.Buffer
	console := &Console{Out: &out}

	console.ExportDone("/tmp/Results/mines/mines.xlsx")
	if got, want := out.String(), "Votre recherche a été enregistrée ici : /tmp/Results/mines/mines.xlsx\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	out.Reset()
	console.ExportEmpty(true, "")
	if got, want := out.String(), "Aucun article n’a été trouvé dans les dossiers sélectionnés. Vérifiez les résultats enregistrés avant de fusionner.\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	out.Reset()
	console.ExportEmpty(false, "mines")
	if got, want := out.String(), "L’export est impossible : mines ne contient actuellement aucun article. Lancez ou relancez une collecte avant d’enregistrer.\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	out.Reset()
	console.ExportEmpty(false, "")
	if got, want := out.String(), "L’export est impossible : cette recherche ne contient actuellement aucun article. Lancez ou relancez une collecte avant d’enregistrer.\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
