package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// OverviewModel shows what is owed now and soon across all plans.
type OverviewModel struct {
	CommonModel
	planService *plan.Service

	upcomingDays int
	periods      []int
	overview     analytics.Overview
}

func NewOverviewModel(planSvc *plan.Service, upcomingDays int, periods []int) OverviewModel {
	m := OverviewModel{
		planService:  planSvc,
		upcomingDays: upcomingDays,
		periods:      periods,
	}
	m.refresh()

	return m
}

func (m OverviewModel) Title() string     { return "Payment Overview" }
func (m OverviewModel) ShortHelp() string { return "Esc: back | r: refresh | +/-: upcoming window" }

func (m OverviewModel) Init() tea.Cmd {
	return nil
}

func (m *OverviewModel) refresh() {
	m.overview = analytics.BuildOverview(m.planService.List(), plan.Today(), m.upcomingDays, m.periods)
}

func (m OverviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		return m, Back
	case "r":
		m.refresh()
	case "+", "=":
		m.upcomingDays += 7
		m.refresh()
	case "-":
		m.upcomingDays = max(0, m.upcomingDays-7)
		m.refresh()
	}

	return m, nil
}

func (m OverviewModel) View() string {
	ov := m.overview
	stats := ov.Stats

	if stats.TotalPlans == 0 {
		return lipgloss.NewStyle().Padding(2).Render(
			titleStyle.Render("Payment Overview") + "\n\nNo plans yet. Create one from the main menu.\n\n(Esc to go back)",
		)
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Payment Overview  %s", FormatDate(ov.Today))))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Plans: %d (%d fully paid)   Paid: %s   Remaining: %s   Unpaid installments: %d\n",
		stats.TotalPlans, stats.FullyPaidCount,
		FormatAmount(stats.TotalPaid), FormatAmount(stats.TotalRemaining), stats.TotalUnpaidInstallments)

	totals := make([]string, 0, len(stats.PeriodTotals)+2)
	totals = append(totals,
		"Overdue "+FormatAmount(stats.OverdueTotal),
		"Today "+FormatAmount(stats.DueTodayTotal),
	)

	for _, pt := range stats.PeriodTotals {
		totals = append(totals, fmt.Sprintf("Next %dd %s", pt.Days, FormatAmount(pt.Total)))
	}

	b.WriteString(faintStyle.Render(strings.Join(totals, "  |  ")))
	b.WriteString("\n")

	if len(ov.Payments.Overdue) > 0 {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("OVERDUE (%d)", len(ov.Payments.Overdue))) + "\n")

		for _, p := range ov.Payments.Overdue {
			b.WriteString(paymentLine(p) + "\n")
		}
	}

	if len(ov.Payments.DueToday) > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("DUE TODAY (%d)", len(ov.Payments.DueToday))) + "\n")

		for _, p := range ov.Payments.DueToday {
			b.WriteString(paymentLine(p) + "\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\n", activeStyle(fmt.Sprintf("UPCOMING, NEXT %d DAYS (%d)", m.upcomingDays, len(ov.Payments.Upcoming))))

	if len(ov.Payments.Upcoming) == 0 {
		b.WriteString(faintStyle.Render("  nothing due") + "\n")
	}

	for _, group := range analytics.GroupPaymentsByDate(ov.Payments.Upcoming) {
		fmt.Fprintf(&b, "  %s\n", FormatDate(group.Date))

		for _, p := range group.Payments {
			b.WriteString("  " + paymentLine(p) + "\n")
		}
	}

	if n := len(ov.Payments.Future); n > 0 {
		fmt.Fprintf(&b, "\n%s\n", faintStyle.Render(fmt.Sprintf("%d more installments due later", n)))
	}

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

func paymentLine(p analytics.PaymentInfo) string {
	inst := p.Installment

	line := fmt.Sprintf("  %-24s #%-2d %10s  %s  %s",
		p.MerchantName, inst.Number(), FormatAmount(inst.Amount()), FormatDate(inst.DueDate()), DueLabel(p.DaysUntilDue))

	if inst.IsPartiallyPaid() {
		line += faintStyle.Render(fmt.Sprintf("  (%s left)", FormatAmount(inst.RemainingAmount())))
	}

	return line
}
