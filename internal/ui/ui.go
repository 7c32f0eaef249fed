package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cmx/internal/models"
	"github.com/desertthunder/cmx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ModeSelectView ViewState = iota
	ReviewView
	SummaryView
)

// Model represents the TUI application state while reviewing contacts
// flagged for deletion.
type Model struct {
	view      ViewState
	batch     []models.MarkedContact
	modeList  list.Model
	mode      models.DecisionMode
	cursor    int
	decisions map[string]models.Decision
	aborted   bool
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

// NewModel creates a TUI model for one batch of flagged contacts.
func NewModel(batch []models.MarkedContact) *Model {
	items := []list.Item{
		modeItem{mode: models.ModePerContact},
		modeItem{mode: models.ModeBulkIgnore},
		modeItem{mode: models.ModeBulkArchive},
		modeItem{mode: models.ModeBulkDelete},
	}
	modeList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	modeList.Title = fmt.Sprintf("%d contacts flagged for deletion", len(batch))
	modeList.SetShowStatusBar(false)
	modeList.SetFilteringEnabled(false)

	return &Model{
		view:      ModeSelectView,
		batch:     batch,
		modeList:  modeList,
		mode:      models.ModeBulkIgnore,
		decisions: make(map[string]models.Decision),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.modeList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ModeSelectView:
			return m.handleModeSelectKeys(msg)
		case ReviewView:
			return m.handleReviewKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}
	}

	var cmd tea.Cmd
	if m.view == ModeSelectView {
		m.modeList, cmd = m.modeList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ModeSelectView:
		return m.renderModeSelect()
	case ReviewView:
		return m.renderReview()
	case SummaryView:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) handleModeSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		selected := m.modeList.SelectedItem()
		if item, ok := selected.(modeItem); ok {
			m.mode = item.mode
			if m.mode == models.ModePerContact {
				m.view = ReviewView
				return m, nil
			}
			m.view = SummaryView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)
	return m, cmd
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	case "esc":
		m.view = ModeSelectView
		m.cursor = 0
		clear(m.decisions)
		return m, nil
	case "a":
		return m.decide(models.DecisionArchive)
	case "d":
		return m.decide(models.DecisionDelete)
	case "i":
		return m.decide(models.DecisionIgnore)
	}
	return m, nil
}

func (m *Model) decide(decision models.Decision) (tea.Model, tea.Cmd) {
	m.decisions[m.batch[m.cursor].Email] = decision
	m.cursor++
	if m.cursor >= len(m.batch) {
		m.view = SummaryView
	}
	return m, nil
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) renderModeSelect() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.modeList.View(), helpView)
}

func (m *Model) renderReview() string {
	contact := m.batch[m.cursor]

	title := styles.title.Render(fmt.Sprintf("Contact %d of %d", m.cursor+1, len(m.batch)))
	detail := describeContact(contact)

	helpKeys := []key.Binding{m.keys.archive, m.keys.delete, m.keys.ignore, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, detail, helpView)
}

func (m *Model) renderSummary() string {
	title := styles.title.Render("Review complete")

	var body string
	switch m.mode {
	case models.ModePerContact:
		var archive, del, ignore int
		for _, d := range m.decisions {
			switch d {
			case models.DecisionArchive:
				archive++
			case models.DecisionDelete:
				del++
			default:
				ignore++
			}
		}
		body = fmt.Sprintf("Archive: %d\nDelete: %s\nIgnore: %d",
			archive, styles.err.Render(fmt.Sprintf("%d", del)), ignore)
	case models.ModeBulkArchive:
		body = styles.warn.Render(fmt.Sprintf("All %d contacts will be archived", len(m.batch)))
	case models.ModeBulkDelete:
		body = styles.err.Render(fmt.Sprintf("All %d contacts will be permanently deleted", len(m.batch)))
	default:
		body = styles.help.Render(fmt.Sprintf("All %d contacts deferred to a future run", len(m.batch)))
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, styles.help.Render("press enter to continue"))
}

// TUIDecisionProvider implements [tasks.DecisionProvider] by running the
// review TUI once per batch and caching the per-contact answers.
type TUIDecisionProvider struct {
	decisions map[string]models.Decision
}

var _ tasks.DecisionProvider = (*TUIDecisionProvider)(nil)

func NewDecisionProvider() *TUIDecisionProvider {
	return &TUIDecisionProvider{decisions: make(map[string]models.Decision)}
}

// Decide runs the review TUI for the batch. Quitting the TUI without
// finishing defers the whole batch.
func (p *TUIDecisionProvider) Decide(ctx context.Context, batch []models.MarkedContact) (models.DecisionMode, error) {
	model := NewModel(batch)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return models.ModeBulkIgnore, fmt.Errorf("decision ui failed: %w", err)
	}

	m, ok := final.(*Model)
	if !ok || m.aborted {
		return models.ModeBulkIgnore, nil
	}

	p.decisions = m.decisions
	return m.mode, nil
}

// DecideOne answers from the cache built during [TUIDecisionProvider.Decide].
// Contacts without a cached answer are deferred.
func (p *TUIDecisionProvider) DecideOne(ctx context.Context, contact models.MarkedContact) (models.Decision, error) {
	if decision, ok := p.decisions[contact.Email]; ok {
		return decision, nil
	}
	return models.DecisionIgnore, nil
}
