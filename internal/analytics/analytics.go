// Package analytics derives payment schedules, totals and filtered views from a set of plans.
// Every function is pure: inputs are never modified and results are fresh values.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// DefaultPeriods are the look-ahead windows, in days, reported when none are requested.
var DefaultPeriods = []int{7, 14, 30}

// PaymentInfo is an unpaid installment tagged with the plan it belongs to.
type PaymentInfo struct {
	PlanID       string
	MerchantName string
	Installment  plan.Installment
	DaysUntilDue int
}

// CategorizedPayments splits unpaid installments by how far away their due date is.
// Each list is ordered by due date.
type CategorizedPayments struct {
	AllUnpaid []PaymentInfo
	Overdue   []PaymentInfo
	DueToday  []PaymentInfo
	Upcoming  []PaymentInfo
	Future    []PaymentInfo
}

type PeriodTotal struct {
	Days  int
	Total decimal.Decimal
}

type PaymentStatistics struct {
	TotalPlans              int
	FullyPaidCount          int
	TotalPaid               decimal.Decimal
	TotalRemaining          decimal.Decimal
	TotalUnpaidInstallments int
	OverdueTotal            decimal.Decimal
	DueTodayTotal           decimal.Decimal
	// PeriodTotals holds, per requested window, everything owed by the end of it
	// (overdue, due today and due within the window), in request order.
	PeriodTotals []PeriodTotal
}

// PeriodTotal looks up the total for a window of the given length.
func (s PaymentStatistics) PeriodTotal(days int) (decimal.Decimal, bool) {
	for _, pt := range s.PeriodTotals {
		if pt.Days == days {
			return pt.Total, true
		}
	}

	return decimal.Zero, false
}

type DateGroup struct {
	Date     time.Time
	Payments []PaymentInfo
}

// Overview bundles the categorized payments with their statistics.
type Overview struct {
	Today    time.Time
	Payments CategorizedPayments
	Stats    PaymentStatistics
}

// BuildOverview categorizes the unpaid installments of entries and computes statistics over them.
// A nil periods slice uses DefaultPeriods.
func BuildOverview(entries []plan.Entry, today time.Time, upcomingDays int, periods []int) Overview {
	if periods == nil {
		periods = DefaultPeriods
	}

	categorized := CategorizeUnpaidInstallments(entries, today, upcomingDays)

	return Overview{
		Today:    plan.DateOf(today),
		Payments: categorized,
		Stats:    CalculatePaymentStatistics(entries, categorized, periods),
	}
}

// CategorizeUnpaidInstallments lists every unpaid installment sorted by due date and partitions it
// relative to today. Installments due on the same day keep plan order, then installment order.
func CategorizeUnpaidInstallments(entries []plan.Entry, today time.Time, upcomingDays int) CategorizedPayments {
	today = plan.DateOf(today)

	var all []PaymentInfo

	for _, e := range entries {
		for _, inst := range e.Plan.UnpaidInstallments() {
			all = append(all, PaymentInfo{
				PlanID:       e.ID,
				MerchantName: e.Plan.MerchantName(),
				Installment:  inst,
				DaysUntilDue: daysBetween(today, inst.DueDate()),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Installment.DueDate().Before(all[j].Installment.DueDate())
	})

	c := CategorizedPayments{AllUnpaid: all}

	for _, p := range all {
		switch d := p.DaysUntilDue; {
		case d < 0:
			c.Overdue = append(c.Overdue, p)
		case d == 0:
			c.DueToday = append(c.DueToday, p)
		case d <= upcomingDays:
			c.Upcoming = append(c.Upcoming, p)
		default:
			c.Future = append(c.Future, p)
		}
	}

	return c
}

// CalculatePaymentStatistics summarizes entries. Overdue, due-today and period totals sum the
// full installment amounts, including any part already paid on a partially paid installment.
func CalculatePaymentStatistics(entries []plan.Entry, categorized CategorizedPayments, periods []int) PaymentStatistics {
	stats := PaymentStatistics{
		TotalPlans:              len(entries),
		TotalPaid:               decimal.Zero,
		TotalRemaining:          decimal.Zero,
		TotalUnpaidInstallments: len(categorized.AllUnpaid),
		OverdueTotal:            sumAmounts(categorized.Overdue),
		DueTodayTotal:           sumAmounts(categorized.DueToday),
		PeriodTotals:            make([]PeriodTotal, 0, len(periods)),
	}

	for _, e := range entries {
		stats.TotalRemaining = stats.TotalRemaining.Add(e.Plan.RemainingBalance())

		insts := e.Plan.Installments()
		for i := range insts {
			if insts[i].IsPaid() {
				stats.TotalPaid = stats.TotalPaid.Add(insts[i].Amount())
			}
		}

		if e.Plan.IsFullyPaid() {
			stats.FullyPaidCount++
		}
	}

	due := stats.OverdueTotal.Add(stats.DueTodayTotal)

	for _, days := range periods {
		total := due

		for i := range categorized.AllUnpaid {
			p := &categorized.AllUnpaid[i]
			if p.DaysUntilDue > 0 && p.DaysUntilDue <= days {
				total = total.Add(p.Installment.Amount())
			}
		}

		stats.PeriodTotals = append(stats.PeriodTotals, PeriodTotal{Days: days, Total: total})
	}

	return stats
}

// GroupPaymentsByDate buckets payments by due date, earliest date first.
// Payments within a bucket keep their input order.
func GroupPaymentsByDate(payments []PaymentInfo) []DateGroup {
	index := make(map[time.Time]int)

	var groups []DateGroup

	for _, p := range payments {
		due := p.Installment.DueDate()

		i, ok := index[due]
		if !ok {
			i = len(groups)
			index[due] = i
			groups = append(groups, DateGroup{Date: due})
		}

		groups[i].Payments = append(groups[i].Payments, p)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})

	return groups
}

func sumAmounts(payments []PaymentInfo) decimal.Decimal {
	total := decimal.Zero
	for i := range payments {
		total = total.Add(payments[i].Installment.Amount())
	}

	return total
}

func daysBetween(from, to time.Time) int {
	return int(plan.DateOf(to).Sub(from).Hours() / 24)
}
