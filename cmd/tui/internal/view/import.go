package view

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/importer"
	"github.com/MrJamesThe3rd/piggy/internal/matching"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateConflicts
	importStateResult
)

type ImportModel struct {
	CommonModel
	planService     *plan.Service
	importService   *importer.Service
	matchingService *matching.Service

	state      importState
	filePicker filepicker.Model

	fresh        []*plan.Plan
	conflicts    []plan.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(planSvc *plan.Service, impSvc *importer.Service, matchSvc *matching.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		planService:     planSvc,
		importService:   impSvc,
		matchingService: matchSvc,
		filePicker:      fp,
		selected:        make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Plans" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateConflicts {
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		if len(msg.result.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("Imported %d plans.%s", len(msg.result.Imported), aliasNote(msg.renamed))

			return m, nil
		}

		m.fresh = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: &m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = fmt.Sprintf("%d plans look like ones you already track. Import anyway?", len(m.conflicts))
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil

	case confirmResultMsg:
		m.state = importStateResult
		m.status = fmt.Sprintf("Imported %d plans, skipped %d duplicates.", msg.count, msg.skipped)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func aliasNote(renamed int) string {
	if renamed == 0 {
		return ""
	}

	return fmt.Sprintf(" %d merchant names matched a saved alias.", renamed)
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateResult:
		m.state = importStateFilePick
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	case importStateConflicts:
		m.state = importStateFilePick
		m.conflicts = nil
		m.fresh = nil
		m.selected = make(map[int]bool)

		return m, nil
	case importStateImporting:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select a plans CSV to import:\n\n" + m.filePicker.View(),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View())
	case importStateResult:
		return lipgloss.NewStyle().Padding(2).Render(
			statusLine(m.status, m.err != nil) + "\n\n" + faintStyle.Render("(Esc to import another file)"),
		)
	}

	return ""
}

// Messages

type importResultMsg struct {
	result  *plan.ImportResult
	renamed int
	err     error
}

type confirmResultMsg struct {
	count   int
	skipped int
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	planSvc, impSvc, matchSvc := m.planService, m.importService, m.matchingService

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		plans, err := impSvc.Import(importer.FormatCSV, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		renamed, err := matchSvc.Apply(ctx, plans)
		if err != nil {
			slog.Warn("failed to apply merchant aliases", "error", err)
		}

		return importResultMsg{result: planSvc.ImportBatch(plans), renamed: renamed}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	planSvc := m.planService
	fresh := m.fresh
	conflicts := m.conflicts
	selected := m.selected

	return func() tea.Msg {
		plans := append([]*plan.Plan(nil), fresh...)

		for i, c := range conflicts {
			if selected[i] {
				plans = append(plans, c.Incoming)
			}
		}

		entries := planSvc.AddBatch(plans)

		return confirmResultMsg{count: len(entries), skipped: len(fresh) + len(conflicts) - len(entries)}
	}
}

// Conflict list item

type conflictItem struct {
	conflict plan.Conflict
	index    int
}

func (i conflictItem) Title() string       { return i.conflict.Incoming.MerchantName() }
func (i conflictItem) Description() string { return i.conflict.Existing.ID }
func (i conflictItem) FilterValue() string { return i.conflict.Incoming.MerchantName() }

// Conflict list delegate

type conflictDelegate struct {
	selected *map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing.Plan

	line1 := fmt.Sprintf("%s%s %s  %s  %s  %d installments",
		cursor, checkbox,
		FormatDate(incoming.PurchaseDate()),
		FormatAmount(incoming.TotalAmount()),
		incoming.MerchantName(),
		incoming.NumInstallments(),
	)

	line2 := fmt.Sprintf("      Existing: %s  %s left of %s [%s]",
		existing.MerchantName(),
		FormatAmount(existing.RemainingBalance()),
		FormatAmount(existing.TotalAmount()),
		item.conflict.Existing.ID,
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
