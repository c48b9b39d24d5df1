package plan_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

func buildPlan(t *testing.T, total string, n, days int, first time.Time) *plan.Plan {
	t.Helper()

	p, err := plan.Build(plan.BuildParams{
		MerchantName:     "Test Store",
		TotalAmount:      dec(total),
		PurchaseDate:     first.AddDate(0, 0, -days),
		NumInstallments:  n,
		DaysBetween:      days,
		FirstPaymentDate: first,
	})
	require.NoError(t, err)

	return p
}

func amounts(insts []plan.Installment) []string {
	out := make([]string, len(insts))
	for i := range insts {
		out[i] = plan.FormatAmount(insts[i].Amount())
	}

	return out
}

func numbers(insts []plan.Installment) []int {
	out := make([]int, len(insts))
	for i := range insts {
		out[i] = insts[i].Number()
	}

	return out
}

func TestBuild(t *testing.T) {
	p := buildPlan(t, "1200.00", 4, 14, date(2024, 1, 15))

	assert.Equal(t, "Test Store", p.MerchantName())
	assert.Equal(t, 4, p.NumInstallments())
	assert.Equal(t, date(2024, 1, 1), p.PurchaseDate())

	insts := p.Installments()
	assert.Equal(t, []string{"300.00", "300.00", "300.00", "300.00"}, amounts(insts))
	assert.Equal(t, []int{1, 2, 3, 4}, numbers(insts))

	wantDue := []time.Time{date(2024, 1, 15), date(2024, 1, 29), date(2024, 2, 12), date(2024, 2, 26)}
	for i := range insts {
		assert.Equal(t, wantDue[i], insts[i].DueDate())
		assert.True(t, insts[i].IsPending())
	}
}

func TestBuild_LastInstallmentAbsorbsRemainder(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{name: "Thirds", total: "100.00", n: 3, want: []string{"33.33", "33.33", "33.34"}},
		{name: "Sevenths", total: "10", n: 7, want: []string{"1.42", "1.42", "1.42", "1.42", "1.42", "1.42", "1.48"}},
		{name: "Single", total: "99.99", n: 1, want: []string{"99.99"}},
		{name: "ExtraPrecision", total: "10.005", n: 2, want: []string{"5.002", "5.003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPlan(t, tt.total, tt.n, 30, date(2024, 3, 1))

			insts := p.Installments()
			assert.Equal(t, tt.want, amounts(insts))

			sum := decimal.Zero
			for i := range insts {
				sum = sum.Add(insts[i].Amount())
			}

			assert.True(t, sum.Equal(p.TotalAmount()))
		})
	}
}

func TestBuild_DefaultFirstPayment(t *testing.T) {
	p, err := plan.Build(plan.BuildParams{
		MerchantName:    "Shop",
		TotalAmount:     dec("40"),
		PurchaseDate:    date(2024, 5, 1),
		NumInstallments: 2,
		DaysBetween:     7,
	})
	require.NoError(t, err)

	inst, err := p.Installment(1)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 8), inst.DueDate())
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params plan.BuildParams
	}{
		{
			name:   "NoInstallments",
			params: plan.BuildParams{MerchantName: "Shop", TotalAmount: dec("100"), NumInstallments: 0, DaysBetween: 14},
		},
		{
			name:   "ZeroTotal",
			params: plan.BuildParams{MerchantName: "Shop", TotalAmount: decimal.Zero, NumInstallments: 4, DaysBetween: 14},
		},
		{
			name:   "NegativeDays",
			params: plan.BuildParams{MerchantName: "Shop", TotalAmount: dec("100"), NumInstallments: 4, DaysBetween: -1},
		},
		{
			name:   "NoMerchant",
			params: plan.BuildParams{MerchantName: "  ", TotalAmount: dec("100"), NumInstallments: 4, DaysBetween: 14},
		},
		{
			name:   "TooSmallToSplit",
			params: plan.BuildParams{MerchantName: "Shop", TotalAmount: dec("0.01"), NumInstallments: 3, DaysBetween: 14},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := plan.Build(tt.params)

			require.ErrorIs(t, err, plan.ErrValidation)
			assert.Nil(t, p)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	mk := func(n int, amount string) *plan.Installment {
		return newInstallment(t, n, amount, date(2024, 1, n))
	}

	tests := []struct {
		name        string
		total       string
		insts       []*plan.Installment
		errContains string
	}{
		{
			name:        "GapInNumbers",
			total:       "300.00",
			insts:       []*plan.Installment{mk(1, "100.00"), mk(2, "100.00"), mk(4, "100.00")},
			errContains: "sequential from 1 to 3",
		},
		{
			name:        "DuplicateNumbers",
			total:       "200.00",
			insts:       []*plan.Installment{mk(1, "100.00"), mk(1, "100.00")},
			errContains: "sequential from 1 to 2",
		},
		{
			name:        "SumMismatch",
			total:       "1000.00",
			insts:       []*plan.Installment{mk(1, "300.00"), mk(2, "300.00")},
			errContains: "sum of installments (600.00) must equal total_amount (1000.00)",
		},
		{
			name:        "Empty",
			total:       "100.00",
			errContains: "at least one installment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := plan.New(plan.Params{
				MerchantName: "Shop",
				TotalAmount:  dec(tt.total),
				PurchaseDate: date(2024, 1, 1),
				Installments: tt.insts,
			})

			require.ErrorIs(t, err, plan.ErrValidation)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Nil(t, p)
		})
	}
}

func TestNew_AcceptsUnorderedNumbers(t *testing.T) {
	p, err := plan.New(plan.Params{
		MerchantName: "Shop",
		TotalAmount:  dec("30"),
		PurchaseDate: date(2024, 1, 1),
		Installments: []*plan.Installment{
			newInstallment(t, 2, "10", date(2024, 2, 1)),
			newInstallment(t, 1, "10", date(2024, 1, 1)),
			newInstallment(t, 3, "10", date(2024, 3, 1)),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1, 3}, numbers(p.Installments()))
}

func TestNew_CopiesInstallments(t *testing.T) {
	inst := newInstallment(t, 1, "50.00", date(2024, 1, 15))

	p, err := plan.New(plan.Params{
		MerchantName: "Shop",
		TotalAmount:  dec("50.00"),
		PurchaseDate: date(2024, 1, 1),
		Installments: []*plan.Installment{inst},
	})
	require.NoError(t, err)

	inst.MarkFullPayment(date(2024, 1, 10))

	assert.False(t, p.IsFullyPaid())
}

func TestPlan_GetInstallments(t *testing.T) {
	p := buildPlan(t, "400.00", 4, 14, date(2024, 1, 15))

	all, err := p.GetInstallments(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, numbers(all))

	picked, err := p.GetInstallments([]int{3, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 3}, numbers(picked))

	none, err := p.GetInstallments([]int{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = p.GetInstallments([]int{1, 99})
	require.ErrorIs(t, err, plan.ErrNotFound)
	assert.Contains(t, err.Error(), "Installment #99 does not exist.")

	_, err = p.Installment(5)
	require.ErrorIs(t, err, plan.ErrNotFound)
}

func TestPlan_InstallmentsAreCopies(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 14, date(2024, 1, 15))

	insts := p.Installments()
	insts[0].MarkFullPayment(date(2024, 1, 1))

	inst, err := p.Installment(1)
	require.NoError(t, err)
	assert.True(t, inst.IsPending())
}

func TestPlan_Balances(t *testing.T) {
	p := buildPlan(t, "400.00", 4, 14, date(2024, 1, 15))

	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 15)))
	require.NoError(t, p.MarkInstallmentPartialPayment(2, dec("40.00"), date(2024, 1, 20)))

	assert.Equal(t, []int{2, 3, 4}, numbers(p.UnpaidInstallments()))
	assert.True(t, p.RemainingBalance().Equal(dec("260")))
	assert.False(t, p.IsFullyPaid())

	for n := 2; n <= 4; n++ {
		require.NoError(t, p.MarkInstallmentPaid(n, date(2024, 3, 1)))
	}

	assert.True(t, p.IsFullyPaid())
	assert.True(t, p.RemainingBalance().IsZero())
	assert.Nil(t, p.NextPaymentDue())
}

func TestPlan_NextPaymentDue(t *testing.T) {
	p := buildPlan(t, "300.00", 3, 30, date(2024, 1, 1))

	next := p.NextPaymentDue()
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 1, 1), *next)

	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 1)))
	assert.Equal(t, date(2024, 1, 31), *p.NextPaymentDue())

	// Overdue installments do not count as the next payment.
	assert.Equal(t, 1, p.UpdateOverdueStatus(date(2024, 2, 15)))
	assert.Equal(t, date(2024, 3, 1), *p.NextPaymentDue())

	assert.Equal(t, 1, p.UpdateOverdueStatus(date(2024, 3, 2)))
	assert.Nil(t, p.NextPaymentDue())
}

func TestPlan_OverdueInstallments(t *testing.T) {
	p := buildPlan(t, "300.00", 3, 30, date(2024, 1, 1))
	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 1)))

	assert.Empty(t, p.OverdueInstallments(date(2024, 1, 31)))
	assert.Equal(t, []int{2}, numbers(p.OverdueInstallments(date(2024, 2, 1))))
	assert.True(t, p.HasOverdueAsOf(date(2024, 2, 1)))
	assert.False(t, p.HasOverdueAsOf(date(2024, 1, 31)))

	// Overdue detection does not depend on the stored status.
	inst, err := p.Installment(2)
	require.NoError(t, err)
	assert.True(t, inst.IsPending())
}

func TestPlan_UpdateOverdueStatus(t *testing.T) {
	p := buildPlan(t, "300.00", 3, 30, date(2024, 1, 1))
	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 1)))

	assert.Equal(t, 1, p.UpdateOverdueStatus(date(2024, 2, 10)))
	assert.Equal(t, 0, p.UpdateOverdueStatus(date(2024, 2, 10)))

	inst1, _ := p.Installment(1)
	inst2, _ := p.Installment(2)
	inst3, _ := p.Installment(3)

	assert.True(t, inst1.IsPaid())
	assert.True(t, inst2.IsOverdue())
	assert.True(t, inst3.IsPending())
}

func TestPlan_SetInstallmentAmount(t *testing.T) {
	p := buildPlan(t, "300.00", 3, 30, date(2024, 1, 1))

	require.NoError(t, p.SetInstallmentAmount(2, dec("150.00")))

	assert.True(t, p.TotalAmount().Equal(dec("350")))
	assert.Equal(t, "350.00", plan.FormatAmount(p.TotalAmount()))

	require.ErrorIs(t, p.SetInstallmentAmount(9, dec("1")), plan.ErrNotFound)
	require.ErrorIs(t, p.SetInstallmentAmount(1, dec("-1")), plan.ErrInvalidArgument)
	assert.True(t, p.TotalAmount().Equal(dec("350")))
}

func TestPlan_SetInstallmentPaidDate(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 30, date(2024, 1, 1))

	err := p.SetInstallmentPaidDate(1, date(2024, 1, 2))
	require.ErrorIs(t, err, plan.ErrInvalidState)

	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 1)))
	require.NoError(t, p.SetInstallmentPaidDate(1, date(2024, 1, 3)))

	inst, err := p.Installment(1)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 3), *inst.PaidDate())

	require.ErrorIs(t, p.SetInstallmentPaidDate(7, date(2024, 1, 3)), plan.ErrNotFound)
}

func TestPlan_MarkPaidAndUnpaid(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 30, date(2024, 1, 1))

	require.NoError(t, p.MarkInstallmentPaid(2, date(2024, 1, 20)))
	inst, _ := p.Installment(2)
	assert.True(t, inst.IsPaid())

	require.NoError(t, p.MarkInstallmentUnpaid(2))
	inst, _ = p.Installment(2)
	assert.True(t, inst.IsUnpaid())

	require.ErrorIs(t, p.MarkInstallmentPaid(3, date(2024, 1, 20)), plan.ErrNotFound)
	require.ErrorIs(t, p.MarkInstallmentUnpaid(0), plan.ErrNotFound)
}

func TestPlan_SetInstallmentDueDate(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 30, date(2024, 1, 1))

	require.NoError(t, p.SetInstallmentDueDate(1, time.Date(2024, 1, 5, 18, 30, 0, 0, time.UTC)))

	inst, _ := p.Installment(1)
	assert.Equal(t, date(2024, 1, 5), inst.DueDate())
}

func TestPlan_SetMerchantName(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 30, date(2024, 1, 1))
	before := p.UpdatedAt()

	require.NoError(t, p.SetMerchantName("New Shop"))
	assert.Equal(t, "New Shop", p.MerchantName())
	assert.False(t, p.UpdatedAt().Before(before))

	require.ErrorIs(t, p.SetMerchantName(""), plan.ErrInvalidArgument)
	assert.Equal(t, "New Shop", p.MerchantName())
}

func TestPlan_Clone(t *testing.T) {
	p := buildPlan(t, "200.00", 2, 30, date(2024, 1, 1))

	c := p.Clone()
	require.NoError(t, c.MarkInstallmentPaid(1, date(2024, 1, 1)))

	inst, _ := p.Installment(1)
	assert.True(t, inst.IsPending())
}
