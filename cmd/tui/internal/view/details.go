package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type detailAction int

const (
	actionNone detailAction = iota
	actionPay
	actionPartial
	actionEdit
	actionRename
	actionDelete
)

func (a detailAction) title() string {
	switch a {
	case actionPay:
		return "Mark paid"
	case actionPartial:
		return "Record partial payment"
	case actionEdit:
		return "Edit installment"
	case actionRename:
		return "Rename plan"
	case actionDelete:
		return "Delete plan"
	}

	return ""
}

type detailValues struct {
	date    string
	amount  string
	dueDate string
	name    string
	confirm bool
}

// closeDetailsMsg returns control to the plans list.
type closeDetailsMsg struct {
	status string
}

type csvExportedMsg struct {
	path string
	err  error
}

// DetailsModel shows one plan with its installments and the payment actions.
type DetailsModel struct {
	CommonModel
	planService *plan.Service

	id    string
	plan  *plan.Plan
	table table.Model

	action detailAction
	number int
	form   *huh.Form
	values *detailValues

	status string
	failed bool
}

func NewDetailsModel(planSvc *plan.Service, id string) (DetailsModel, error) {
	p, err := planSvc.Get(id)
	if err != nil {
		return DetailsModel{}, err
	}

	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Due", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Left", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Paid On", Width: 12},
	}

	m := DetailsModel{
		planService: planSvc,
		id:          id,
		plan:        p,
		table:       newTable(columns),
	}
	m.refreshTable()

	return m, nil
}

func (m DetailsModel) ShortHelp() string {
	if m.action != actionNone {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | p: paid | u: unpaid | a: partial | e: edit | n: rename | d: delete | x: export CSV"
}

func (m DetailsModel) update(msg tea.Msg) (DetailsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-16, 5))

		return m, nil

	case csvExportedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.setStatus("Exported to "+msg.path, false)
		}

		return m, nil
	}

	if m.action != actionNone {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return closeDetailsMsg{} }
		case "p":
			return m.startAction(actionPay)
		case "a":
			return m.startAction(actionPartial)
		case "e":
			return m.startAction(actionEdit)
		case "n":
			return m.startAction(actionRename)
		case "d":
			return m.startAction(actionDelete)
		case "u":
			return m.markUnpaid(), nil
		case "x":
			return m, m.exportCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DetailsModel) setStatus(msg string, failed bool) {
	m.status, m.failed = msg, failed
}

func (m DetailsModel) selected() (plan.Installment, bool) {
	insts := m.plan.Installments()

	idx := m.table.Cursor()
	if idx < 0 || idx >= len(insts) {
		return plan.Installment{}, false
	}

	return insts[idx], true
}

func (m DetailsModel) startAction(action detailAction) (DetailsModel, tea.Cmd) {
	inst, ok := m.selected()
	if !ok && action != actionRename && action != actionDelete {
		return m, nil
	}

	m.number = inst.Number()
	m.values = &detailValues{}
	v := m.values

	var fields []huh.Field

	switch action {
	case actionPay:
		if inst.IsPaid() {
			m.setStatus(fmt.Sprintf("Installment %d is already paid", m.number), true)
			return m, nil
		}

		v.date = FormatDate(inst.DueDate())
		fields = append(fields,
			huh.NewInput().Title("Paid on").Value(&v.date).Validate(validateDate),
		)

	case actionPartial:
		if inst.IsPaid() {
			m.setStatus(fmt.Sprintf("Installment %d is already paid", m.number), true)
			return m, nil
		}

		v.date = FormatDate(plan.Today())
		fields = append(fields,
			huh.NewInput().
				Title("Amount").
				Description(fmt.Sprintf("%s left on this installment", FormatAmount(inst.RemainingAmount()))).
				Value(&v.amount).
				Validate(validatePositiveAmount),
			huh.NewInput().Title("Paid on").Value(&v.date).Validate(validateDate),
		)

	case actionEdit:
		v.amount = plan.FormatAmount(inst.Amount())
		v.dueDate = FormatDate(inst.DueDate())
		fields = append(fields,
			huh.NewInput().Title("Amount").Value(&v.amount).Validate(validatePositiveAmount),
			huh.NewInput().Title("Due date").Value(&v.dueDate).Validate(validateDate),
		)

	case actionRename:
		v.name = m.plan.MerchantName()
		fields = append(fields,
			huh.NewInput().Title("Merchant").Value(&v.name).Validate(validateRequired("merchant name")),
		)

	case actionDelete:
		fields = append(fields,
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", m.plan.MerchantName())).
				Description("The file is removed on the next save.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&v.confirm),
		)
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(40).WithShowHelp(false)
	m.action = action
	m.table.Blur()

	return m, m.form.Init()
}

func (m DetailsModel) updateForm(msg tea.Msg) (DetailsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.endAction(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	action := m.action
	m = m.endAction()

	if action == actionDelete {
		if !m.values.confirm {
			return m, nil
		}

		m.planService.Remove(m.id)
		status := fmt.Sprintf("Deleted %s", m.plan.MerchantName())

		return m, func() tea.Msg { return closeDetailsMsg{status: status} }
	}

	if action == actionRename {
		id, err := m.planService.Rename(m.id, m.values.name)
		if err != nil {
			m.setStatus(fmt.Sprintf("Error: %v", err), true)
			return m, nil
		}

		m.id = id
		m.reload()
		m.setStatus("Renamed to "+m.plan.MerchantName(), false)

		return m, nil
	}

	if err := m.apply(action); err != nil {
		m.setStatus(fmt.Sprintf("Error: %v", err), true)
		return m, nil
	}

	m.reload()
	m.setStatus(fmt.Sprintf("Installment %d updated", m.number), false)

	return m, nil
}

func (m DetailsModel) apply(action detailAction) error {
	v := m.values

	_, err := m.planService.Update(m.id, func(p *plan.Plan) error {
		switch action {
		case actionPay:
			date, err := parseDate(v.date)
			if err != nil {
				return err
			}

			return p.MarkInstallmentPaid(m.number, date)

		case actionPartial:
			amount, err := parseAmount(v.amount)
			if err != nil {
				return err
			}

			date, err := parseDate(v.date)
			if err != nil {
				return err
			}

			return p.MarkInstallmentPartialPayment(m.number, amount, date)

		case actionEdit:
			amount, err := parseAmount(v.amount)
			if err != nil {
				return err
			}

			due, err := parseDate(v.dueDate)
			if err != nil {
				return err
			}

			if err := p.SetInstallmentAmount(m.number, amount); err != nil {
				return err
			}

			return p.SetInstallmentDueDate(m.number, due)
		}

		return nil
	})

	return err
}

func (m DetailsModel) markUnpaid() DetailsModel {
	inst, ok := m.selected()
	if !ok {
		return m
	}

	if inst.IsUnpaid() {
		m.setStatus(fmt.Sprintf("Installment %d has no payments", inst.Number()), true)
		return m
	}

	_, err := m.planService.Update(m.id, func(p *plan.Plan) error {
		if err := p.MarkInstallmentUnpaid(inst.Number()); err != nil {
			return err
		}

		p.UpdateOverdueStatus(plan.Today())

		return nil
	})
	if err != nil {
		m.setStatus(fmt.Sprintf("Error: %v", err), true)
		return m
	}

	m.reload()
	m.setStatus(fmt.Sprintf("Installment %d marked unpaid", inst.Number()), false)

	return m
}

func (m DetailsModel) endAction() DetailsModel {
	m.action = actionNone
	m.form = nil
	m.table.Focus()

	return m
}

func (m DetailsModel) exportCmd() tea.Cmd {
	svc, id := m.planService, m.id

	return func() tea.Msg {
		ctx, cancel := StorageCtx()
		defer cancel()

		path, err := svc.ExportCSV(ctx, id)

		return csvExportedMsg{path: path, err: err}
	}
}

func (m *DetailsModel) reload() {
	if p, err := m.planService.Get(m.id); err == nil {
		m.plan = p
	}

	m.refreshTable()
}

func (m *DetailsModel) refreshTable() {
	insts := m.plan.Installments()
	rows := make([]table.Row, 0, len(insts))

	for _, inst := range insts {
		rows = append(rows, table.Row{
			strconv.Itoa(inst.Number()),
			FormatDate(inst.DueDate()),
			FormatAmount(inst.Amount()),
			FormatAmount(inst.AmountPaid()),
			FormatAmount(inst.RemainingAmount()),
			string(inst.Status()),
			formatOptionalDate(inst.PaidDate()),
		})
	}

	m.table.SetRows(rows)
}

func (m DetailsModel) View() string {
	p := m.plan

	var b strings.Builder

	b.WriteString(titleStyle.Render(p.MerchantName()))
	fmt.Fprintf(&b, "  %s\n", faintStyle.Render(m.id))
	fmt.Fprintf(&b, "Purchased %s | Total %s | Remaining %s | Next due %s\n",
		FormatDate(p.PurchaseDate()),
		FormatAmount(p.TotalAmount()),
		FormatAmount(p.RemainingBalance()),
		formatOptionalDate(p.NextPaymentDue()),
	)

	if p.IsFullyPaid() {
		b.WriteString(successStyle.Render("Fully paid") + "\n")
	} else if overdue := p.OverdueInstallments(plan.Today()); len(overdue) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d overdue", len(overdue))) + "\n")
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left, b.String(), tableView)

	if m.action != actionNone && m.form != nil {
		heading := m.action.title()
		if m.action != actionRename && m.action != actionDelete {
			heading = fmt.Sprintf("%s #%d", heading, m.number)
		}

		panel := panelStyle.Width(44).Render(heading + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if line := statusLine(m.status, m.failed); line != "" {
		content += "\n" + line
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}
