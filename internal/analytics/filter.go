package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// StatusFilter selects plans by payment state. Nil fields are not applied.
type StatusFilter struct {
	FullyPaid  *bool
	HasOverdue *bool
	// AsOf is the day overdue payments are judged against. Zero means today.
	AsOf time.Time
}

// AmountFilter bounds are inclusive. Nil fields are not applied.
type AmountFilter struct {
	MinTotal     *decimal.Decimal
	MaxTotal     *decimal.Decimal
	MinRemaining *decimal.Decimal
	MaxRemaining *decimal.Decimal
}

// DateFilter bounds are inclusive. Plans without a next payment never pass a next-payment bound.
type DateFilter struct {
	PurchaseAfter     *time.Time
	PurchaseBefore    *time.Time
	NextPaymentAfter  *time.Time
	NextPaymentBefore *time.Time
}

// FilterByMerchant keeps plans whose merchant name contains query, ignoring case.
func FilterByMerchant(entries []plan.Entry, query string) []plan.Entry {
	query = strings.ToLower(query)

	return keep(entries, func(p *plan.Plan) bool {
		return strings.Contains(strings.ToLower(p.MerchantName()), query)
	})
}

func FilterByStatus(entries []plan.Entry, f StatusFilter) []plan.Entry {
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = plan.Today()
	}

	return keep(entries, func(p *plan.Plan) bool {
		if f.FullyPaid != nil && p.IsFullyPaid() != *f.FullyPaid {
			return false
		}

		if f.HasOverdue != nil && p.HasOverdueAsOf(asOf) != *f.HasOverdue {
			return false
		}

		return true
	})
}

func FilterByAmount(entries []plan.Entry, f AmountFilter) []plan.Entry {
	return keep(entries, func(p *plan.Plan) bool {
		total, remaining := p.TotalAmount(), p.RemainingBalance()

		switch {
		case f.MinTotal != nil && total.LessThan(*f.MinTotal),
			f.MaxTotal != nil && total.GreaterThan(*f.MaxTotal),
			f.MinRemaining != nil && remaining.LessThan(*f.MinRemaining),
			f.MaxRemaining != nil && remaining.GreaterThan(*f.MaxRemaining):
			return false
		}

		return true
	})
}

func FilterByDate(entries []plan.Entry, f DateFilter) []plan.Entry {
	return keep(entries, func(p *plan.Plan) bool {
		purchased := p.PurchaseDate()

		if f.PurchaseAfter != nil && purchased.Before(plan.DateOf(*f.PurchaseAfter)) {
			return false
		}

		if f.PurchaseBefore != nil && purchased.After(plan.DateOf(*f.PurchaseBefore)) {
			return false
		}

		if f.NextPaymentAfter == nil && f.NextPaymentBefore == nil {
			return true
		}

		next := p.NextPaymentDue()
		if next == nil {
			return false
		}

		if f.NextPaymentAfter != nil && next.Before(plan.DateOf(*f.NextPaymentAfter)) {
			return false
		}

		if f.NextPaymentBefore != nil && next.After(plan.DateOf(*f.NextPaymentBefore)) {
			return false
		}

		return true
	})
}

func keep(entries []plan.Entry, match func(p *plan.Plan) bool) []plan.Entry {
	out := make([]plan.Entry, 0, len(entries))

	for _, e := range entries {
		if match(e.Plan) {
			out = append(out, e)
		}
	}

	return out
}

// Filter combines every plan filter. Zero-valued parts are not applied.
type Filter struct {
	Merchant string
	Status   StatusFilter
	Amount   AmountFilter
	Date     DateFilter
}

// Apply runs the merchant, status, amount and date filters in turn.
func (f Filter) Apply(entries []plan.Entry) []plan.Entry {
	out := entries
	if f.Merchant != "" {
		out = FilterByMerchant(out, f.Merchant)
	}

	out = FilterByStatus(out, f.Status)
	out = FilterByAmount(out, f.Amount)

	return FilterByDate(out, f.Date)
}
