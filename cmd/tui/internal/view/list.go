package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateSearch
	listStateDetails
)

var statusLabels = []string{"All", "Active", "Fully Paid", "Overdue"}

type ListModel struct {
	CommonModel
	planService *plan.Service

	state   listState
	table   table.Model
	entries []plan.Entry
	details DetailsModel

	statusFilterIdx int
	merchant        *string
	form            *huh.Form

	status string
}

func NewListModel(planSvc *plan.Service) ListModel {
	columns := []table.Column{
		{Title: "Merchant", Width: 24},
		{Title: "Total", Width: 12},
		{Title: "Remaining", Width: 12},
		{Title: "Paid", Width: 7},
		{Title: "Next Due", Width: 12},
		{Title: "Status", Width: 12},
	}

	m := ListModel{
		planService: planSvc,
		table:       newTable(columns),
		merchant:    new(string),
	}
	m.refresh()

	return m
}

// newTable builds a focused table with the shared header and selection styles.
func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m ListModel) Title() string { return "Plans" }

func (m ListModel) ShortHelp() string {
	switch m.state {
	case listStateSearch:
		return "Enter: apply | Esc: cancel"
	case listStateDetails:
		return m.details.ShortHelp()
	}

	return "Esc: back | Enter: details | /: merchant | s: status filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))

		if m.state == listStateDetails {
			m.details, _ = m.details.update(msg)
		}

		return m, nil

	case closeDetailsMsg:
		m.state = listStateBrowse
		m.status = msg.status
		m.refresh()
		m.table.Focus()

		return m, nil
	}

	switch m.state {
	case listStateSearch:
		return m.updateSearch(msg)
	case listStateDetails:
		var cmd tea.Cmd
		m.details, cmd = m.details.update(msg)

		return m, cmd
	}

	return m.updateBrowse(msg)
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			return m, Back
		case "r":
			m.status = ""
			m.refresh()

			return m, nil
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusLabels)
			m.refresh()

			return m, nil
		case "/":
			return m.enterSearch()
		case "enter":
			return m.openDetails()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) enterSearch() (tea.Model, tea.Cmd) {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Merchant contains").
				Value(m.merchant),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = listStateSearch
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = listStateBrowse
	m.form = nil
	m.refresh()
	m.table.Focus()

	return m, nil
}

func (m ListModel) openDetails() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		return m, nil
	}

	details, err := NewDetailsModel(m.planService, m.entries[idx].ID)
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
		return m, nil
	}

	details.Width, details.Height = m.Width, m.Height
	m.details = details
	m.state = listStateDetails
	m.table.Blur()

	return m, nil
}

func (m ListModel) currentFilter() analytics.Filter {
	f := analytics.Filter{Merchant: strings.TrimSpace(*m.merchant)}

	switch m.statusFilterIdx {
	case 1:
		f.Status.FullyPaid = new(false)
	case 2:
		f.Status.FullyPaid = new(true)
	case 3:
		f.Status.HasOverdue = new(true)
	}

	return f
}

func (m *ListModel) refresh() {
	m.entries = m.currentFilter().Apply(m.planService.List())

	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, planRow(e.Plan))
	}

	m.table.SetRows(rows)
}

func planRow(p *plan.Plan) table.Row {
	paid := 0
	for _, inst := range p.Installments() {
		if inst.IsPaid() {
			paid++
		}
	}

	status := "Active"
	switch {
	case p.IsFullyPaid():
		status = "Fully Paid"
	case p.HasOverdueAsOf(plan.Today()):
		status = "Overdue"
	}

	return table.Row{
		p.MerchantName(),
		FormatAmount(p.TotalAmount()),
		FormatAmount(p.RemainingBalance()),
		fmt.Sprintf("%d/%d", paid, p.NumInstallments()),
		formatOptionalDate(p.NextPaymentDue()),
		status,
	}
}

func (m ListModel) View() string {
	if m.state == listStateDetails {
		return m.details.View()
	}

	merchant := strings.TrimSpace(*m.merchant)
	if merchant == "" {
		merchant = "any"
	}

	header := fmt.Sprintf(
		"%d plans | [/] Merchant: %s | [s] Status: %s",
		len(m.entries),
		activeStyle(merchant),
		activeStyle(statusLabels[m.statusFilterIdx]),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if len(m.entries) == 0 {
		content += "\n" + faintStyle.Render("No plans match. Create one or import a CSV from the Data menu.")
	}

	if m.state == listStateSearch && m.form != nil {
		panel := panelStyle.Width(44).Render("Filter by merchant\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}
