package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/matching"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const reviewTimeout = 5 * time.Second

// reviewItem is a plan queued for a merchant name review with the alias suggested for it.
type reviewItem struct {
	entry      plan.Entry
	suggestion string
}

// ReviewModel walks through plans one at a time so merchant names can be cleaned up.
// Every rename is learned as an alias and applied to future imports.
type ReviewModel struct {
	CommonModel
	planService     *plan.Service
	matchingService *matching.Service

	queue   []reviewItem
	current *reviewItem
	total   int

	nameInput textinput.Model

	loading bool
	status  string
	renamed int
	failed  bool
}

func NewReviewModel(planSvc *plan.Service, matchSvc *matching.Service) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Merchant name"
	ti.Width = 50

	return ReviewModel{
		planService:     planSvc,
		matchingService: matchSvc,
		nameInput:       ti,
		loading:         true,
	}
}

func (m ReviewModel) Title() string { return "Review Merchants" }

func (m ReviewModel) ShortHelp() string {
	return "Enter: save & next | Tab: skip | Esc: back"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadQueueCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyTab:
			if m.current != nil {
				m.next()
				return m, textinput.Blink
			}
		case tea.KeyEnter:
			if m.current != nil {
				return m, m.saveCmd(*m.current, m.nameInput.Value())
			}
		}

	case loadQueueMsg:
		m.loading = false
		if msg.err != nil {
			m.status, m.failed = fmt.Sprintf("Error loading suggestions: %v", msg.err), true
			return m, nil
		}

		m.queue = msg.items
		m.total = len(msg.items)

		if m.total == 0 {
			m.status = "No plans to review."
			return m, nil
		}

		m.next()

		return m, textinput.Blink

	case reviewSaveMsg:
		if msg.err != nil {
			m.status, m.failed = fmt.Sprintf("Error saving: %v", msg.err), true
			return m, nil
		}

		if msg.renamed {
			m.renamed++
		}

		m.next()

		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.current != nil {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}

	return m, cmd
}

func (m *ReviewModel) next() {
	m.failed = false

	if len(m.queue) == 0 {
		m.current = nil
		m.status = fmt.Sprintf("All done! Renamed %d plans.", m.renamed)
		m.nameInput.Blur()
		m.nameInput.SetValue("")

		return
	}

	item := m.queue[0]
	m.queue = m.queue[1:]
	m.current = &item

	m.status = fmt.Sprintf("Reviewing %d/%d", m.total-len(m.queue), m.total)

	name := item.entry.Plan.MerchantName()
	if item.suggestion != "" {
		name = item.suggestion
	}

	m.nameInput.SetValue(name)
	m.nameInput.CursorEnd()
	m.nameInput.Focus()
}

func (m ReviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading plans...")
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(statusLine(m.status, m.failed) + "\n\n(Esc to back)")
	}

	p := m.current.entry.Plan

	suggestion := faintStyle.Render("none")
	if m.current.suggestion != "" {
		suggestion = activeStyle(m.current.suggestion)
	}

	info := fmt.Sprintf(
		"Merchant:   %s\nPurchased:  %s\nTotal:      %s\nSuggestion: %s\n",
		p.MerchantName(),
		FormatDate(p.PurchaseDate()),
		FormatAmount(p.TotalAmount()),
		suggestion,
	)

	status := m.status
	if m.failed {
		status = errorStyle.Render(status)
	}

	return lipgloss.NewStyle().Padding(2).Render(
		fmt.Sprintf("%s\n\n%s\nRename merchant:\n%s\n\n(Enter to save & next, Tab to skip, Esc to quit)",
			status, info, m.nameInput.View()),
	)
}

type loadQueueMsg struct {
	items []reviewItem
	err   error
}

func (m ReviewModel) loadQueueCmd() tea.Cmd {
	planSvc, matchSvc := m.planService, m.matchingService

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		entries := planSvc.List()
		items := make([]reviewItem, 0, len(entries))

		for _, e := range entries {
			suggestion, err := matchSvc.Suggest(ctx, e.Plan.MerchantName())
			if err != nil {
				return loadQueueMsg{err: err}
			}

			if suggestion == e.Plan.MerchantName() {
				suggestion = ""
			}

			items = append(items, reviewItem{entry: e, suggestion: suggestion})
		}

		return loadQueueMsg{items: items}
	}
}

type reviewSaveMsg struct {
	renamed bool
	err     error
}

func (m ReviewModel) saveCmd(item reviewItem, name string) tea.Cmd {
	planSvc, matchSvc := m.planService, m.matchingService
	name = strings.TrimSpace(name)

	return func() tea.Msg {
		current := item.entry.Plan.MerchantName()
		if name == "" || name == current {
			return reviewSaveMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		if err := matchSvc.Learn(ctx, current, name); err != nil {
			return reviewSaveMsg{err: err}
		}

		if _, err := planSvc.Rename(item.entry.ID, name); err != nil {
			return reviewSaveMsg{err: err}
		}

		return reviewSaveMsg{renamed: true}
	}
}
