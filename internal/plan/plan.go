package plan

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a purchase split into numbered installments whose amounts always sum to the total.
type Plan struct {
	merchantName string
	totalAmount  decimal.Decimal
	purchaseDate time.Time
	installments []*Installment
	createdAt    time.Time
	updatedAt    time.Time
}

// Entry pairs a plan with the identifier it is stored under.
type Entry struct {
	ID   string
	Plan *Plan
}

type Params struct {
	MerchantName string
	TotalAmount  decimal.Decimal
	PurchaseDate time.Time
	Installments []*Installment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New validates params and assembles a Plan. The installments are copied.
func New(params Params) (*Plan, error) {
	name := strings.TrimSpace(params.MerchantName)
	if name == "" {
		return nil, fmt.Errorf("%w: merchant name is required", ErrValidation)
	}

	if !params.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be greater than 0, got %s", ErrValidation, params.TotalAmount)
	}

	if len(params.Installments) == 0 {
		return nil, fmt.Errorf("%w: plan must have at least one installment", ErrValidation)
	}

	installments := make([]*Installment, len(params.Installments))
	numbers := make([]int, len(params.Installments))
	sum := decimal.Zero

	for i, inst := range params.Installments {
		if inst == nil {
			return nil, fmt.Errorf("%w: installment at position %d is missing", ErrValidation, i)
		}

		installments[i] = new(*inst)
		numbers[i] = inst.number
		sum = sum.Add(inst.amount)
	}

	slices.Sort(numbers)

	for i, n := range numbers {
		if n != i+1 {
			return nil, fmt.Errorf("%w: installment numbers must be sequential from 1 to %d", ErrValidation, len(numbers))
		}
	}

	if !sum.Equal(params.TotalAmount) {
		return nil, fmt.Errorf("%w: sum of installments (%s) must equal total_amount (%s)",
			ErrValidation, FormatAmount(sum), FormatAmount(params.TotalAmount))
	}

	created := params.CreatedAt
	if created.IsZero() {
		created = now()
	}

	updated := params.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	return &Plan{
		merchantName: name,
		totalAmount:  params.TotalAmount,
		purchaseDate: DateOf(params.PurchaseDate),
		installments: installments,
		createdAt:    created,
		updatedAt:    updated,
	}, nil
}

type BuildParams struct {
	MerchantName    string
	TotalAmount     decimal.Decimal
	PurchaseDate    time.Time
	NumInstallments int
	DaysBetween     int
	// FirstPaymentDate defaults to PurchaseDate plus DaysBetween.
	FirstPaymentDate time.Time
}

// Build creates a plan of equally spaced installments.
// The total is split evenly at the total's precision (at least cents); the last installment
// absorbs the rounding remainder.
func Build(params BuildParams) (*Plan, error) {
	if params.NumInstallments < 1 {
		return nil, fmt.Errorf("%w: number of installments must be at least 1, got %d",
			ErrValidation, params.NumInstallments)
	}

	if !params.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be greater than 0, got %s", ErrValidation, params.TotalAmount)
	}

	if params.DaysBetween < 0 {
		return nil, fmt.Errorf("%w: days between payments cannot be negative, got %d",
			ErrValidation, params.DaysBetween)
	}

	first := params.FirstPaymentDate
	if first.IsZero() {
		first = DateOf(params.PurchaseDate).AddDate(0, 0, params.DaysBetween)
	}

	first = DateOf(first)
	ts := now()
	amounts := splitAmount(params.TotalAmount, params.NumInstallments)
	installments := make([]*Installment, params.NumInstallments)

	for k, amount := range amounts {
		inst, err := NewInstallment(InstallmentParams{
			Number:    k + 1,
			Amount:    amount,
			DueDate:   first.AddDate(0, 0, k*params.DaysBetween),
			CreatedAt: ts,
		})
		if err != nil {
			return nil, err
		}

		installments[k] = inst
	}

	return New(Params{
		MerchantName: params.MerchantName,
		TotalAmount:  params.TotalAmount,
		PurchaseDate: params.PurchaseDate,
		Installments: installments,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
}

func splitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	places := int32(2)
	if e := -total.Exponent(); e > places {
		places = e
	}

	base := total.Div(decimal.NewFromInt(int64(n))).Truncate(places)
	amounts := make([]decimal.Decimal, n)

	for i := range n - 1 {
		amounts[i] = base
	}

	amounts[n-1] = total.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))

	return amounts
}

func (p *Plan) MerchantName() string         { return p.merchantName }
func (p *Plan) TotalAmount() decimal.Decimal { return p.totalAmount }
func (p *Plan) PurchaseDate() time.Time      { return p.purchaseDate }
func (p *Plan) CreatedAt() time.Time         { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time         { return p.updatedAt }
func (p *Plan) NumInstallments() int         { return len(p.installments) }

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := *p
	c.installments = make([]*Installment, len(p.installments))

	for i, inst := range p.installments {
		c.installments[i] = new(*inst)
	}

	return &c
}

// Installments returns copies of all installments in plan order.
func (p *Plan) Installments() []Installment {
	out := make([]Installment, len(p.installments))
	for i, inst := range p.installments {
		out[i] = *inst
	}

	return out
}

// Installment returns a copy of installment n.
func (p *Plan) Installment(n int) (Installment, error) {
	inst, err := p.find(n)
	if err != nil {
		return Installment{}, err
	}

	return *inst, nil
}

// GetInstallments returns copies of the requested installments in the requested order.
// A nil slice selects every installment; an empty non-nil slice selects none.
func (p *Plan) GetInstallments(numbers []int) ([]Installment, error) {
	if numbers == nil {
		return p.Installments(), nil
	}

	out := make([]Installment, 0, len(numbers))

	for _, n := range numbers {
		inst, err := p.find(n)
		if err != nil {
			return nil, err
		}

		out = append(out, *inst)
	}

	return out, nil
}

// UnpaidInstallments returns every installment that is not paid, in plan order.
func (p *Plan) UnpaidInstallments() []Installment {
	var out []Installment

	for _, inst := range p.installments {
		if !inst.IsPaid() {
			out = append(out, *inst)
		}
	}

	return out
}

// RemainingBalance is the amount still owed across unpaid installments.
func (p *Plan) RemainingBalance() decimal.Decimal {
	total := decimal.Zero

	for _, inst := range p.installments {
		if !inst.IsPaid() {
			total = total.Add(inst.RemainingAmount())
		}
	}

	return total
}

func (p *Plan) IsFullyPaid() bool {
	for _, inst := range p.installments {
		if !inst.IsPaid() {
			return false
		}
	}

	return true
}

// NextPaymentDue returns the earliest due date among pending installments.
// Overdue installments are not considered.
func (p *Plan) NextPaymentDue() *time.Time {
	var next *time.Time

	for _, inst := range p.installments {
		if inst.status != StatusPending {
			continue
		}

		if next == nil || inst.dueDate.Before(*next) {
			next = new(inst.dueDate)
		}
	}

	return next
}

// OverdueInstallments returns unpaid installments due strictly before asOf.
func (p *Plan) OverdueInstallments(asOf time.Time) []Installment {
	asOf = DateOf(asOf)

	var out []Installment

	for _, inst := range p.installments {
		if !inst.IsPaid() && inst.dueDate.Before(asOf) {
			out = append(out, *inst)
		}
	}

	return out
}

func (p *Plan) HasOverdueAsOf(asOf time.Time) bool {
	return len(p.OverdueInstallments(asOf)) > 0
}

func (p *Plan) HasOverduePayments() bool {
	return p.HasOverdueAsOf(Today())
}

// UpdateOverdueStatus flags pending installments due before asOf as overdue and
// returns how many changed.
func (p *Plan) UpdateOverdueStatus(asOf time.Time) int {
	asOf = DateOf(asOf)
	count := 0

	for _, inst := range p.installments {
		if inst.status == StatusPending && inst.dueDate.Before(asOf) {
			inst.status = StatusOverdue
			inst.touch()
			count++
		}
	}

	if count > 0 {
		p.touch()
	}

	return count
}

func (p *Plan) SetMerchantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: merchant name is required", ErrInvalidArgument)
	}

	p.merchantName = name
	p.touch()

	return nil
}

// SetInstallmentAmount changes installment n's amount and moves the plan total by the difference.
func (p *Plan) SetInstallmentAmount(n int, amount decimal.Decimal) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	old := inst.amount
	if err := inst.SetAmount(amount); err != nil {
		return err
	}

	p.totalAmount = p.totalAmount.Sub(old).Add(amount)
	p.touch()

	return nil
}

func (p *Plan) SetInstallmentDueDate(n int, date time.Time) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	inst.SetDueDate(date)
	p.touch()

	return nil
}

// SetInstallmentPaidDate corrects the settlement date of a paid installment.
func (p *Plan) SetInstallmentPaidDate(n int, date time.Time) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	if inst.status != StatusPaid {
		return fmt.Errorf("%w: installment #%d is %s, only paid installments have a paid date",
			ErrInvalidState, n, inst.status)
	}

	inst.SetPaidDate(&date)
	p.touch()

	return nil
}

func (p *Plan) MarkInstallmentPaid(n int, date time.Time) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	inst.MarkFullPayment(date)
	p.touch()

	return nil
}

func (p *Plan) MarkInstallmentUnpaid(n int) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	inst.MarkUnpaid()
	p.touch()

	return nil
}

func (p *Plan) MarkInstallmentPartialPayment(n int, amount decimal.Decimal, date time.Time) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	if err := inst.MarkPartialPayment(amount, date); err != nil {
		return err
	}

	p.touch()

	return nil
}

func (p *Plan) SetInstallmentAmountPaid(n int, amount decimal.Decimal) error {
	inst, err := p.find(n)
	if err != nil {
		return err
	}

	if err := inst.SetAmountPaid(amount); err != nil {
		return err
	}

	p.touch()

	return nil
}

func (p *Plan) find(n int) (*Installment, error) {
	for _, inst := range p.installments {
		if inst.number == n {
			return inst, nil
		}
	}

	return nil, fmt.Errorf("%w: Installment #%d does not exist.", ErrNotFound, n)
}

func (p *Plan) touch() {
	p.updatedAt = now()
}
