package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"collecte/internal/semanticscholar"
)

func apply(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(model)
	if !ok {
		t.Fatalf("Expected model, got %T", updated)
	}
	return next, cmd
}

func TestUpdateTracksStrategyLifecycle(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, _ = apply(t, m, strategyStartedMsg{description: "Recherche standard", position: 1, total: 3})
	if len(m.strategies) != 1 {
		t.Fatalf("Expected 1 strategy line, got %d", len(m.strategies))
	}
	if m.strategies[0].status != statusRunning {
		t.Errorf("Expected first strategy running, got %v", m.strategies[0].status)
	}
	if m.total != 3 {
		t.Errorf("Expected total 3, got %d", m.total)
	}

	m, _ = apply(t, m, strategyResultsMsg{description: "Recherche standard", newItems: 4, totalItems: 20})
	if m.strategies[0].status != statusDone {
		t.Errorf("Expected first strategy done, got %v", m.strategies[0].status)
	}
	if m.strategies[0].newItems != 4 || m.strategies[0].totalItems != 20 {
		t.Errorf("Expected counts 4/20, got %d/%d", m.strategies[0].newItems, m.strategies[0].totalItems)
	}

	m, _ = apply(t, m, strategyStartedMsg{description: "Requête ciblée 1", position: 2, total: 3})
	if len(m.strategies) != 2 {
		t.Fatalf("Expected 2 strategy lines, got %d", len(m.strategies))
	}
	if m.strategies[1].description != "Requête ciblée 1" {
		t.Errorf("Expected second strategy description, got %q", m.strategies[1].description)
	}
}

func TestUpdateRetrySetsStatusLine(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, _ = apply(t, m, retryMsg{kind: semanticscholar.RetryRateLimit, wait: 7 * time.Second, attempt: 2, maxAttempts: 6})
	want := "Limite de requêtes atteinte. Nouvelle tentative dans 7 seconde(s) (2/6)."
	if m.statusLine != want {
		t.Errorf("Expected %q, got %q", want, m.statusLine)
	}

	m, _ = apply(t, m, retryMsg{kind: semanticscholar.RetryTransient, wait: 5 * time.Second, attempt: 1, maxAttempts: 6})
	want = "Nouvelle tentative dans 5 seconde(s)… (1/6)"
	if m.statusLine != want {
		t.Errorf("Expected %q, got %q", want, m.statusLine)
	}

	m, _ = apply(t, m, strategyStartedMsg{description: "Recherche standard", position: 1, total: 1})
	if m.statusLine != "" {
		t.Errorf("Expected status line cleared on strategy start, got %q", m.statusLine)
	}
}

func TestUpdateDoneSetsSummaryAndQuits(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, cmd := apply(t, m, doneMsg{elapsed: 65 * time.Second, saved: 12})
	if cmd == nil {
		t.Fatal("Expected quit command on completion")
	}
	if !m.finished {
		t.Error("Expected model to be finished")
	}
	want := "Recherche achevée en 65 seconde(s) avec 12 article(s) récupéré(s)."
	if m.summary != want {
		t.Errorf("Expected %q, got %q", want, m.summary)
	}
}

func TestUpdateFailedSetsSummary(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, cmd := apply(t, m, failedMsg{message: "clé API manquante"})
	if cmd == nil {
		t.Fatal("Expected quit command on failure")
	}
	if !m.failed {
		t.Error("Expected model to be marked failed")
	}
	want := "Recherche échouée : clé API manquante"
	if m.summary != want {
		t.Errorf("Expected %q, got %q", want, m.summary)
	}
}

func TestUpdateRunStoppedReportsError(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, cmd := apply(t, m, runStoppedMsg{err: errors.New("saving articles: disk full")})
	if cmd == nil {
		t.Fatal("Expected quit command when the run stops")
	}
	if !m.failed {
		t.Error("Expected model to be marked failed")
	}
	if !strings.Contains(m.summary, "disk full") {
		t.Errorf("Expected summary to carry the error, got %q", m.summary)
	}
}

func TestUpdateRunStoppedKeepsEarlierSummary(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)

	m, _ = apply(t, m, doneMsg{elapsed: 10 * time.Second, saved: 3})
	m, _ = apply(t, m, runStoppedMsg{err: errors.New("context canceled")})
	if m.failed {
		t.Error("Expected completed run to stay successful")
	}
	if !strings.Contains(m.summary, "Recherche achevée") {
		t.Errorf("Expected completion summary to survive, got %q", m.summary)
	}
}

func TestUpdateQuitKeysCancelRun(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	}
	for _, key := range keys {
		canceled := false
		m := newModel("mine detection", "run-1", func() { canceled = true })

		m, cmd := apply(t, m, key)
		if cmd == nil {
			t.Fatalf("Expected quit command for key %q", key.String())
		}
		if !canceled {
			t.Errorf("Expected cancel to be called for key %q", key.String())
		}
		if !m.quitting {
			t.Errorf("Expected quitting state for key %q", key.String())
		}
	}
}

func TestViewShowsProgress(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)
	m, _ = apply(t, m, strategyStartedMsg{description: "Recherche standard", position: 1, total: 3})
	m, _ = apply(t, m, strategyResultsMsg{description: "Recherche standard", newItems: 4, totalItems: 20})
	m, _ = apply(t, m, strategyStartedMsg{description: "Requête ciblée 1", position: 2, total: 3})

	view := m.View()
	if !strings.Contains(view, "Collecte « mine detection »") {
		t.Errorf("Expected header with query, got %q", view)
	}
	if !strings.Contains(view, "Recherche standard : 4 article(s) pertinent(s) sur 20 reçu(s)") {
		t.Errorf("Expected finished strategy line, got %q", view)
	}
	if !strings.Contains(view, "Requête ciblée 1 – en cours") {
		t.Errorf("Expected running strategy line, got %q", view)
	}
	if !strings.Contains(view, "1 stratégie(s) restante(s)") {
		t.Errorf("Expected remaining count, got %q", view)
	}
	if !strings.Contains(view, "[q] Interrompre la collecte") {
		t.Errorf("Expected help line, got %q", view)
	}
}

func TestViewAfterCompletionHidesHelp(t *testing.T) {
	m := newModel("mine detection", "run-1", nil)
	m, _ = apply(t, m, doneMsg{elapsed: 9 * time.Second, saved: 2})

	view := m.View()
	if !strings.Contains(view, "Recherche achevée en 9 seconde(s) avec 2 article(s) récupéré(s).") {
		t.Errorf("Expected final summary, got %q", view)
	}
	if strings.Contains(view, "[q]") {
		t.Errorf("Expected help line to disappear after completion, got %q", view)
	}
}

func TestViewWhileQuitting(t *testing.T) {
	m := newModel("mine detection", "run-1", func() {})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	view := m.View()
	if view != "Interruption de la collecte…\n" {
		t.Errorf("Expected interruption notice, got %q", view)
	}
}
