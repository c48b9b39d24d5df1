package view

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const customFrequency = 0

type createState int

const (
	createStateForm createState = iota
	createStateResult
)

// createValues is shared by every copy of the model so the form can write into it.
type createValues struct {
	merchant   string
	total      string
	purchase   string
	count      string
	frequency  int
	customDays string
	first      string
}

type CreateModel struct {
	CommonModel
	planService *plan.Service

	state  createState
	form   *huh.Form
	values *createValues

	created plan.Entry
	err     error
}

func NewCreateModel(planSvc *plan.Service) CreateModel {
	m := CreateModel{planService: planSvc}
	m.reset()

	return m
}

func (m CreateModel) Title() string { return "Create Plan" }

func (m CreateModel) ShortHelp() string {
	if m.state == createStateResult {
		return "n: create another | Esc: back"
	}

	return "Tab/Enter: next field | Esc: cancel"
}

func (m CreateModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *CreateModel) reset() {
	m.values = &createValues{
		purchase:  FormatDate(plan.Today()),
		count:     "4",
		frequency: 14,
	}
	m.form = m.buildForm()
	m.state = createStateForm
	m.err = nil
}

func (m CreateModel) buildForm() *huh.Form {
	v := m.values

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Merchant").
				Value(&v.merchant).
				Validate(validateRequired("merchant name")),
			huh.NewInput().
				Title("Total amount").
				Placeholder("400.00").
				Value(&v.total).
				Validate(validatePositiveAmount),
			huh.NewInput().
				Title("Purchase date").
				Placeholder("YYYY-MM-DD").
				Value(&v.purchase).
				Validate(validateDate),
			huh.NewInput().
				Title("Number of installments").
				Value(&v.count).
				Validate(validateCount(1)),
			huh.NewSelect[int]().
				Title("Payment frequency").
				Options(
					huh.NewOption("Monthly (every 30 days)", 30),
					huh.NewOption("Fortnightly (every 14 days)", 14),
					huh.NewOption("Weekly (every 7 days)", 7),
					huh.NewOption("Custom", customFrequency),
				).
				Value(&v.frequency),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Days between payments").
				Value(&v.customDays).
				Validate(validateCount(0)),
		).WithHideFunc(func() bool { return v.frequency != customFrequency }),
		huh.NewGroup(
			huh.NewInput().
				Title("First payment date").
				Description("Leave empty to start one period after the purchase").
				Placeholder("YYYY-MM-DD").
				Value(&v.first).
				Validate(validateOptionalDate),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.Type == tea.KeyEsc:
			return m, Back
		case m.state == createStateResult && keyMsg.String() == "n":
			m.reset()
			return m, m.form.Init()
		}
	}

	if m.state != createStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.created, m.err = m.create()
	if m.err != nil {
		// Keep what was typed so the user can correct it.
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.state = createStateResult

	return m, nil
}

func (m CreateModel) create() (plan.Entry, error) {
	v := m.values

	total, err := parseAmount(v.total)
	if err != nil {
		return plan.Entry{}, err
	}

	purchased, err := parseDate(v.purchase)
	if err != nil {
		return plan.Entry{}, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(v.count))
	if err != nil {
		return plan.Entry{}, err
	}

	days := v.frequency
	if days == customFrequency {
		if days, err = strconv.Atoi(strings.TrimSpace(v.customDays)); err != nil {
			return plan.Entry{}, err
		}
	}

	params := plan.BuildParams{
		MerchantName:    v.merchant,
		TotalAmount:     total,
		PurchaseDate:    purchased,
		NumInstallments: count,
		DaysBetween:     days,
	}

	if strings.TrimSpace(v.first) != "" {
		if params.FirstPaymentDate, err = parseDate(v.first); err != nil {
			return plan.Entry{}, err
		}
	}

	return m.planService.Create(params)
}

func (m CreateModel) View() string {
	if m.state == createStateResult {
		return m.viewResult()
	}

	content := titleStyle.Render("New installment plan") + "\n\n" + m.form.View()
	if m.err != nil {
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m CreateModel) viewResult() string {
	p := m.created.Plan

	var b strings.Builder

	b.WriteString(successStyle.Render(fmt.Sprintf("Created plan %s", m.created.ID)))
	fmt.Fprintf(&b, "\n\n%s  %s over %d installments, purchased %s\n\n",
		p.MerchantName(), FormatAmount(p.TotalAmount()), p.NumInstallments(), FormatDate(p.PurchaseDate()))

	for _, inst := range p.Installments() {
		fmt.Fprintf(&b, "  #%-2d %s  %10s\n", inst.Number(), FormatDate(inst.DueDate()), FormatAmount(inst.Amount()))
	}

	b.WriteString("\n" + faintStyle.Render("Remember to save before exiting."))

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}
