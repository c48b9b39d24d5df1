package plan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the payment state of an installment.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}

	return false
}

var now = time.Now

// DateOf truncates t to its calendar day, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day as a DateOf value.
func Today() time.Time {
	return DateOf(now())
}

// FormatAmount renders d with at least two fraction digits, keeping any extra precision it carries.
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if e := -d.Exponent(); e > places {
		places = e
	}

	return d.StringFixed(places)
}

// Installment is a single scheduled payment inside a Plan.
type Installment struct {
	number     int
	amount     decimal.Decimal
	dueDate    time.Time
	status     Status
	paidDate   *time.Time
	amountPaid decimal.Decimal
	createdAt  time.Time
	updatedAt  time.Time
}

type InstallmentParams struct {
	Number     int
	Amount     decimal.Decimal
	DueDate    time.Time
	Status     Status // defaults to StatusPending
	PaidDate   *time.Time
	AmountPaid decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewInstallment validates params and builds an Installment.
// Zero timestamps default to the current time.
func NewInstallment(params InstallmentParams) (*Installment, error) {
	status := params.Status
	if status == "" {
		status = StatusPending
	}

	switch {
	case params.Number < 1:
		return nil, fmt.Errorf("%w: installment number must be at least 1, got %d", ErrValidation, params.Number)
	case !params.Amount.IsPositive():
		return nil, fmt.Errorf("%w: installment #%d amount must be greater than 0, got %s",
			ErrValidation, params.Number, params.Amount)
	case !status.Valid():
		return nil, fmt.Errorf("%w: installment #%d has unknown status %q", ErrValidation, params.Number, status)
	case params.PaidDate != nil && status != StatusPaid:
		return nil, fmt.Errorf("%w: installment #%d has a paid date but status is %s",
			ErrValidation, params.Number, status)
	case params.AmountPaid.IsNegative():
		return nil, fmt.Errorf("%w: installment #%d amount paid cannot be negative", ErrValidation, params.Number)
	case params.AmountPaid.GreaterThan(params.Amount):
		return nil, fmt.Errorf("%w: installment #%d amount paid %s exceeds amount %s",
			ErrValidation, params.Number, FormatAmount(params.AmountPaid), FormatAmount(params.Amount))
	}

	created := params.CreatedAt
	if created.IsZero() {
		created = now()
	}

	updated := params.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	inst := &Installment{
		number:     params.Number,
		amount:     params.Amount,
		dueDate:    DateOf(params.DueDate),
		status:     status,
		amountPaid: params.AmountPaid,
		createdAt:  created,
		updatedAt:  updated,
	}

	if params.PaidDate != nil {
		inst.paidDate = new(DateOf(*params.PaidDate))
	}

	return inst, nil
}

func (i *Installment) Number() int                 { return i.number }
func (i *Installment) Amount() decimal.Decimal     { return i.amount }
func (i *Installment) DueDate() time.Time          { return i.dueDate }
func (i *Installment) Status() Status              { return i.status }
func (i *Installment) AmountPaid() decimal.Decimal { return i.amountPaid }
func (i *Installment) CreatedAt() time.Time        { return i.createdAt }
func (i *Installment) UpdatedAt() time.Time        { return i.updatedAt }

// PaidDate returns the settlement date, or nil when none is recorded.
func (i *Installment) PaidDate() *time.Time {
	if i.paidDate == nil {
		return nil
	}

	return new(*i.paidDate)
}

func (i *Installment) IsPaid() bool    { return i.status == StatusPaid }
func (i *Installment) IsPending() bool { return i.status == StatusPending }
func (i *Installment) IsOverdue() bool { return i.status == StatusOverdue }

// RemainingAmount is the part of the amount not yet paid.
func (i *Installment) RemainingAmount() decimal.Decimal {
	return i.amount.Sub(i.amountPaid)
}

// IsPartiallyPaid reports whether some, but not all, of the amount has been paid.
func (i *Installment) IsPartiallyPaid() bool {
	return i.amountPaid.IsPositive() && i.amountPaid.LessThan(i.amount)
}

// IsUnpaid reports a pending installment with nothing paid yet.
func (i *Installment) IsUnpaid() bool {
	return i.status == StatusPending && i.amountPaid.IsZero()
}

func (i *Installment) touch() {
	i.updatedAt = now()
}

// SetAmount changes the installment amount. A paid installment stays fully paid at the new amount.
// The caller is responsible for keeping the owning plan's total consistent.
func (i *Installment) SetAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0, got %s", ErrInvalidArgument, amount)
	}

	if i.status != StatusPaid && i.amountPaid.GreaterThan(amount) {
		return fmt.Errorf("%w: amount %s is below the %s already paid",
			ErrInvalidArgument, FormatAmount(amount), FormatAmount(i.amountPaid))
	}

	i.amount = amount
	if i.status == StatusPaid {
		i.amountPaid = amount
	}

	i.touch()

	return nil
}

func (i *Installment) SetDueDate(date time.Time) {
	i.dueDate = DateOf(date)
	i.touch()
}

// SetStatus is a low-level setter; it does not adjust the paid date or amount paid.
func (i *Installment) SetStatus(status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	i.status = status
	i.touch()

	return nil
}

// SetPaidDate is a low-level setter and does not check the status.
// Plan.SetInstallmentPaidDate only allows it on paid installments.
func (i *Installment) SetPaidDate(date *time.Time) {
	if date == nil {
		i.paidDate = nil
	} else {
		i.paidDate = new(DateOf(*date))
	}

	i.touch()
}

// MarkFullPayment settles the installment in full on date.
func (i *Installment) MarkFullPayment(date time.Time) {
	i.status = StatusPaid
	i.paidDate = new(DateOf(date))
	i.amountPaid = i.amount
	i.touch()
}

// MarkUnpaid resets the installment to pending with nothing paid.
func (i *Installment) MarkUnpaid() {
	i.status = StatusPending
	i.paidDate = nil
	i.amountPaid = decimal.Zero
	i.touch()
}

// MarkPartialPayment adds amount to what has been paid so far.
// Reaching the full amount settles the installment on date.
func (i *Installment) MarkPartialPayment(amount decimal.Decimal, date time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment must be greater than 0, got %s", ErrInvalidArgument, amount)
	}

	total := i.amountPaid.Add(amount)
	if total.GreaterThan(i.amount) {
		return fmt.Errorf("%w: payment of %s exceeds remaining balance of %s",
			ErrInvalidArgument, FormatAmount(amount), FormatAmount(i.RemainingAmount()))
	}

	i.amountPaid = total
	if total.Equal(i.amount) {
		i.status = StatusPaid
		i.paidDate = new(DateOf(date))
	}

	i.touch()

	return nil
}

// SetAmountPaid replaces the amount paid so far.
// Paying the full amount marks the installment paid (dated today unless a paid date exists);
// dropping below it on a paid installment reverts it to pending.
func (i *Installment) SetAmountPaid(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount paid cannot be negative, got %s", ErrInvalidArgument, amount)
	}

	if amount.GreaterThan(i.amount) {
		return fmt.Errorf("%w: amount paid %s exceeds installment amount %s",
			ErrInvalidArgument, FormatAmount(amount), FormatAmount(i.amount))
	}

	i.amountPaid = amount

	switch {
	case amount.Equal(i.amount):
		i.status = StatusPaid
		if i.paidDate == nil {
			i.paidDate = new(Today())
		}
	case i.status == StatusPaid:
		i.status = StatusPending
		i.paidDate = nil
	}

	i.touch()

	return nil
}
