package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/piggy/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/piggy/internal/config"
	"github.com/MrJamesThe3rd/piggy/internal/export"
	"github.com/MrJamesThe3rd/piggy/internal/importer"
	"github.com/MrJamesThe3rd/piggy/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/piggy/internal/matching/store"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
	planStore "github.com/MrJamesThe3rd/piggy/internal/plan/store"
)

type model struct {
	cfg *config.Config

	planService     *plan.Service
	matchingService *matching.Service
	importService   *importer.Service
	exportService   *export.Service

	currentView View
	width       int
	height      int

	overviewView view.OverviewModel
	createView   view.CreateModel
	listView     view.ListModel
	importView   view.ImportModel
	reviewView   view.ReviewModel
	exportView   view.ExportModel

	status      []string
	failed      bool
	confirmQuit bool
}

type View int

const (
	ViewMenu     View = 0
	ViewOverview View = 1
	ViewCreate   View = 2
	ViewList     View = 3
	ViewImport   View = 4
	ViewReview   View = 5
	ViewExport   View = 6
)

func initialModel(cfg *config.Config) model {
	planSvc := plan.NewService(planStore.New(cfg.Storage.DataDir))
	matchSvc := matching.NewService(matchingStore.New(cfg.AliasesPath()))
	impSvc := importer.NewService()
	expSvc := export.NewService(planSvc)

	m := model{
		cfg:             cfg,
		planService:     planSvc,
		matchingService: matchSvc,
		importService:   impSvc,
		exportService:   expSvc,
		currentView:     ViewMenu,
	}

	ctx, cancel := view.StorageCtx()
	defer cancel()

	loaded, errs := planSvc.LoadAll(ctx)
	planSvc.UpdateOverdueStatus(plan.Today())

	m.status = append([]string{fmt.Sprintf("Loaded %d plans from %s", loaded, cfg.Storage.DataDir)}, errs...)
	m.failed = len(errs) > 0

	for _, msg := range errs {
		slog.Warn("failed to load plan", "error", msg)
	}

	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}

	case storageResultMsg:
		m.status, m.failed = msg.lines, msg.failed
		if msg.quit && !msg.failed {
			return m, tea.Quit
		}

		return m, nil

	case view.BackMsg:
		m.currentView = ViewMenu
		m.confirmQuit = false

		return m, nil
	}

	switch m.currentView {
	case ViewOverview:
		var newModel tea.Model
		newModel, cmd = m.overviewView.Update(msg)
		m.overviewView = newModel.(view.OverviewModel)
	case ViewCreate:
		var newModel tea.Model
		newModel, cmd = m.createView.Update(msg)
		m.createView = newModel.(view.CreateModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.confirmQuit = false
	}

	// Views are rebuilt on entry so they always show the current plans.
	switch key {
	case "q":
		if m.planService.HasUnsavedChanges() && !m.confirmQuit {
			m.confirmQuit = true
			m.status, m.failed = []string{"You have unsaved changes. Press q again to quit without saving, or e to save and exit."}, true

			return m, nil
		}

		return m, tea.Quit
	case "e":
		return m, saveCmd(m.planService, true)
	case "s":
		return m, saveCmd(m.planService, false)
	case "l":
		return m, loadCmd(m.planService)
	case "o":
		m.currentView = ViewOverview
		m.overviewView = view.NewOverviewModel(m.planService, m.cfg.Overview.UpcomingDays, m.cfg.Overview.Periods)

		return m, m.enter(m.overviewView)
	case "1":
		m.currentView = ViewCreate
		m.createView = view.NewCreateModel(m.planService)

		return m, m.enter(m.createView)
	case "2":
		m.currentView = ViewList
		m.listView = view.NewListModel(m.planService)

		return m, m.enter(m.listView)
	case "3":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.planService, m.importService, m.matchingService)

		return m, m.enter(m.importView)
	case "4":
		m.currentView = ViewReview
		m.reviewView = view.NewReviewModel(m.planService, m.matchingService)

		return m, m.enter(m.reviewView)
	case "5":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exportService)

		return m, m.enter(m.exportView)
	}

	return m, nil
}

// enter starts v and hands it the last known window size.
func (m model) enter(v view.View) tea.Cmd {
	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	return tea.Batch(v.Init(), func() tea.Msg { return size })
}

func (m model) current() view.View {
	switch m.currentView {
	case ViewOverview:
		return m.overviewView
	case ViewCreate:
		return m.createView
	case ViewList:
		return m.listView
	case ViewImport:
		return m.importView
	case ViewReview:
		return m.reviewView
	case ViewExport:
		return m.exportView
	}

	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).PaddingLeft(1)
	helpStyle   = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

func (m model) View() string {
	v := m.current()
	if v == nil {
		return m.viewMenu()
	}

	title := fmt.Sprintf("%s > %s", m.cfg.App.Name, v.Title())
	if m.planService.HasUnsavedChanges() {
		title += " *"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(title),
		v.View(),
		helpStyle.Render(v.ShortHelp()),
	)
}

func (m model) viewMenu() string {
	unsaved := ""
	if m.planService.HasUnsavedChanges() {
		unsaved = " (unsaved changes)"
	}

	menu := fmt.Sprintf("%s - %d plans%s\n\n", m.cfg.App.Name, m.planService.Len(), unsaved) +
		"o. Payment Overview\n" +
		"1. Create Plan\n" +
		"2. Browse Plans\n" +
		"3. Import Plans\n" +
		"4. Review Merchants\n" +
		"5. Export Plans\n\n" +
		"s. Save  l. Reload from disk\n" +
		"e. Save and exit  q. Quit"

	if len(m.status) > 0 {
		color := lipgloss.Color("46")
		if m.failed {
			color = lipgloss.Color("196")
		}

		menu += "\n\n" + lipgloss.NewStyle().Foreground(color).Render(strings.Join(m.status, "\n"))
	}

	return lipgloss.NewStyle().Padding(2).Render(menu)
}

type storageResultMsg struct {
	lines  []string
	failed bool
	quit   bool
}

func saveCmd(svc *plan.Service, quit bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.StorageCtx()
		defer cancel()

		saved, errs := svc.SaveAll(ctx)
		for _, msg := range errs {
			slog.Error("failed to save plan", "error", msg)
		}

		lines := append([]string{fmt.Sprintf("Saved %d plans", saved)}, errs...)

		return storageResultMsg{lines: lines, failed: len(errs) > 0, quit: quit}
	}
}

func loadCmd(svc *plan.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.StorageCtx()
		defer cancel()

		loaded, errs := svc.Reload(ctx)
		if n := svc.UpdateOverdueStatus(plan.Today()); n > 0 {
			slog.Info("marked installments overdue", "count", n)
		}

		lines := append([]string{fmt.Sprintf("Loaded %d plans", loaded)}, errs...)

		return storageResultMsg{lines: lines, failed: len(errs) > 0}
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile(cfg.Log.File, "piggy")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
