// Package tui shows a collection run live: the strategy list, retry
// waits and the final outcome. The crawl itself runs in a goroutine and
// reports through a Notifier that forwards messages to the program.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"collecte/internal/logger"
	"collecte/internal/semanticscholar"
)

type strategyStartedMsg struct {
	description string
	position    int
	total       int
}

type strategyResultsMsg struct {
	description string
	newItems    int
	totalItems  int
}

type retryMsg struct {
	kind        semanticscholar.RetryKind
	wait        time.Duration
	attempt     int
	maxAttempts int
}

type doneMsg struct {
	elapsed time.Duration
	saved   int
}

type failedMsg struct {
	message string
}

// runStoppedMsg closes the program when the crawl goroutine returns
// without having reached a done or failed notification, for example on
// a persistence error.
type runStoppedMsg struct {
	err error
}

type strategyStatus int

const (
	statusRunning strategyStatus = iota
	statusDone
)

type strategyLine struct {
	description string
	status      strategyStatus
	newItems    int
	totalItems  int
}

type model struct {
	query      string
	runID      string
	strategies []strategyLine
	total      int
	statusLine string
	summary    string
	finished   bool
	failed     bool
	quitting   bool
	cancel     func()
	width      int
}

func newModel(query, runID string, cancel func()) model {
	return model{query: query, runID: runID, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case strategyStartedMsg:
		for len(m.strategies) < msg.position {
			m.strategies = append(m.strategies, strategyLine{})
		}
		line := &m.strategies[msg.position-1]
		line.description = msg.description
		line.status = statusRunning
		m.total = msg.total
		m.statusLine = ""

	case strategyResultsMsg:
		for i := range m.strategies {
			if m.strategies[i].description == msg.description {
				m.strategies[i].status = statusDone
				m.strategies[i].newItems = msg.newItems
				m.strategies[i].totalItems = msg.totalItems
				break
			}
		}
		m.statusLine = ""

	case retryMsg:
		m.statusLine = retryText(msg)

	case doneMsg:
		m.finished = true
		m.statusLine = ""
		m.summary = fmt.Sprintf("Recherche achevée en %d seconde(s) avec %d article(s) récupéré(s).",
			int(msg.elapsed.Seconds()), msg.saved)
		return m, tea.Quit

	case failedMsg:
		m.finished = true
		m.failed = true
		m.statusLine = ""
		m.summary = "Recherche échouée : " + msg.message
		return m, tea.Quit

	case runStoppedMsg:
		if !m.finished {
			m.finished = true
			if msg.err != nil {
				m.failed = true
				m.summary = "Recherche échouée : " + msg.err.Error()
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func retryText(msg retryMsg) string {
	seconds := int(msg.wait.Seconds())
	if msg.kind == semanticscholar.RetryRateLimit {
		return fmt.Sprintf("Limite de requêtes atteinte. Nouvelle tentative dans %d seconde(s) (%d/%d).",
			seconds, msg.attempt, msg.maxAttempts)
	}
	return fmt.Sprintf("Nouvelle tentative dans %d seconde(s)… (%d/%d)",
		seconds, msg.attempt, msg.maxAttempts)
}

func (m model) View() string {
	if m.quitting && !m.finished {
		return "Interruption de la collecte…\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true)
	faintStyle := lipgloss.NewStyle().Faint(true)
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Collecte « %s »", m.query)))
	if m.runID != "" {
		b.WriteString(faintStyle.Render("  run " + m.runID))
	}
	b.WriteString("\n\n")

	for _, line := range m.strategies {
		switch line.status {
		case statusDone:
			b.WriteString(doneStyle.Render("✔"))
			b.WriteString(fmt.Sprintf(" %s : %d article(s) pertinent(s) sur %d reçu(s)\n",
				line.description, line.newItems, line.totalItems))
		default:
			b.WriteString(runningStyle.Render("▶"))
			b.WriteString(fmt.Sprintf(" %s – en cours\n", line.description))
		}
	}
	if remaining := m.total - len(m.strategies); remaining > 0 && !m.finished {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %d stratégie(s) restante(s)\n", remaining)))
	}

	if m.statusLine != "" {
		b.WriteString("\n" + m.statusLine + "\n")
	}

	if m.summary != "" {
		style := doneStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.summary) + "\n")
	}

	if !m.finished {
		b.WriteString(faintStyle.Render("\n[q] Interrompre la collecte\n"))
	}

	return b.String()
}

// Notifier forwards crawl progress to the running program. Program.Send
// is safe to call from the crawl goroutine. Each callback also emits
// the same activity markers as the console front-end.
type Notifier struct {
	program *tea.Program
}

// NewNotifier wraps a program for use as the crawl notifier.
func NewNotifier(program *tea.Program) *Notifier {
	return &Notifier{program: program}
}

func (n *Notifier) StrategyStarted(description string, position, total int) {
	logger.Event("SEARCH_STRATEGY", "running collection strategy", map[string]interface{}{
		"description": description,
		"position":    position,
		"total":       total,
	})
	n.program.Send(strategyStartedMsg{description: description, position: position, total: total})
}

func (n *Notifier) StrategyResults(description string, newItems, totalItems int) {
	logger.Event("SEARCH_STRATEGY_RESULT", "partial results received", map[string]interface{}{
		"description": description,
		"new_items":   newItems,
		"total_items": totalItems,
	})
	n.program.Send(strategyResultsMsg{description: description, newItems: newItems, totalItems: totalItems})
}

func (n *Notifier) OnRetry(kind semanticscholar.RetryKind, wait time.Duration, attempt, maxAttempts int) {
	reason := "transient error, retrying"
	if kind == semanticscholar.RetryRateLimit {
		reason = "rate limit reached"
	}
	logger.Event("SEARCH_RETRY", reason, map[string]interface{}{
		"wait_seconds": int(wait.Seconds()),
		"attempt":      attempt,
		"max_attempts": maxAttempts,
	})
	n.program.Send(retryMsg{kind: kind, wait: wait, attempt: attempt, maxAttempts: maxAttempts})
}

func (n *Notifier) SearchDone(elapsed time.Duration, saved int) {
	logger.Event("SEARCH_SUCCESS", "collection run finished", map[string]interface{}{
		"duration_seconds": int(elapsed.Seconds()),
		"new_articles":     saved,
	})
	n.program.Send(doneMsg{elapsed: elapsed, saved: saved})
}

func (n *Notifier) SearchFailed(message string) {
	logger.Event("SEARCH_FAILED", "collection run failed", map[string]interface{}{
		"reason": message,
	})
	n.program.Send(failedMsg{message: message})
}

// RunCrawl shows the progress display while run executes in the
// background. The cancel function is invoked when the operator quits
// early; run receives the notifier to report through.
func RunCrawl(cancel func(), query, runID string, run func(notifier *Notifier) error) error {
	program := tea.NewProgram(newModel(query, runID, cancel))
	notifier := NewNotifier(program)

	done := make(chan error, 1)
	go func() {
		err := run(notifier)
		program.Send(runStoppedMsg{err: err})
		done <- err
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running progress display: %w", err)
	}
	return <-done
}
