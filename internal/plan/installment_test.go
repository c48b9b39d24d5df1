package plan_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newInstallment(t *testing.T, number int, amount string, due time.Time) *plan.Installment {
	t.Helper()

	inst, err := plan.NewInstallment(plan.InstallmentParams{
		Number:  number,
		Amount:  dec(amount),
		DueDate: due,
	})
	require.NoError(t, err)

	return inst
}

func TestNewInstallment(t *testing.T) {
	paid := date(2024, 1, 10)

	tests := []struct {
		name    string
		params  plan.InstallmentParams
		wantErr bool
	}{
		{
			name:   "Defaults",
			params: plan.InstallmentParams{Number: 1, Amount: dec("100.00"), DueDate: date(2024, 1, 15)},
		},
		{
			name: "PaidWithDate",
			params: plan.InstallmentParams{
				Number: 1, Amount: dec("100.00"), DueDate: date(2024, 1, 15),
				Status: plan.StatusPaid, PaidDate: &paid, AmountPaid: dec("100.00"),
			},
		},
		{
			name:    "ZeroNumber",
			params:  plan.InstallmentParams{Number: 0, Amount: dec("100.00")},
			wantErr: true,
		},
		{
			name:    "ZeroAmount",
			params:  plan.InstallmentParams{Number: 1, Amount: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "NegativeAmount",
			params:  plan.InstallmentParams{Number: 1, Amount: dec("-5")},
			wantErr: true,
		},
		{
			name: "PaidDateWhilePending",
			params: plan.InstallmentParams{
				Number: 1, Amount: dec("100.00"), Status: plan.StatusPending, PaidDate: &paid,
			},
			wantErr: true,
		},
		{
			name:    "UnknownStatus",
			params:  plan.InstallmentParams{Number: 1, Amount: dec("100.00"), Status: "failed"},
			wantErr: true,
		},
		{
			name:    "AmountPaidAboveAmount",
			params:  plan.InstallmentParams{Number: 1, Amount: dec("100.00"), AmountPaid: dec("100.01")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := plan.NewInstallment(tt.params)

			if tt.wantErr {
				require.ErrorIs(t, err, plan.ErrValidation)
				assert.Nil(t, inst)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.params.Number, inst.Number())
			assert.False(t, inst.CreatedAt().IsZero())
		})
	}
}

func TestNewInstallment_DefaultsToPending(t *testing.T) {
	inst := newInstallment(t, 1, "250.00", date(2024, 2, 1))

	assert.Equal(t, plan.StatusPending, inst.Status())
	assert.True(t, inst.IsPending())
	assert.True(t, inst.IsUnpaid())
	assert.Nil(t, inst.PaidDate())
	assert.True(t, inst.AmountPaid().IsZero())
	assert.True(t, inst.RemainingAmount().Equal(dec("250")))
}

func TestInstallment_MarkFullPayment(t *testing.T) {
	inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

	inst.MarkFullPayment(date(2024, 1, 12))

	assert.True(t, inst.IsPaid())
	require.NotNil(t, inst.PaidDate())
	assert.Equal(t, date(2024, 1, 12), *inst.PaidDate())
	assert.True(t, inst.AmountPaid().Equal(dec("100")))
	assert.True(t, inst.RemainingAmount().IsZero())
	assert.False(t, inst.IsPartiallyPaid())
}

func TestInstallment_MarkUnpaid(t *testing.T) {
	inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
	inst.MarkFullPayment(date(2024, 1, 12))

	inst.MarkUnpaid()

	assert.True(t, inst.IsPending())
	assert.Nil(t, inst.PaidDate())
	assert.True(t, inst.AmountPaid().IsZero())
}

func TestInstallment_MarkPartialPayment(t *testing.T) {
	t.Run("Accumulates", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

		require.NoError(t, inst.MarkPartialPayment(dec("30.00"), date(2024, 1, 5)))
		require.NoError(t, inst.MarkPartialPayment(dec("20.00"), date(2024, 1, 6)))

		assert.True(t, inst.AmountPaid().Equal(dec("50")))
		assert.True(t, inst.RemainingAmount().Equal(dec("50")))
		assert.True(t, inst.IsPartiallyPaid())
		assert.False(t, inst.IsUnpaid())
		assert.True(t, inst.IsPending())
		assert.Nil(t, inst.PaidDate())
	})

	t.Run("CompletesPayment", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		require.NoError(t, inst.MarkPartialPayment(dec("60.00"), date(2024, 1, 5)))

		require.NoError(t, inst.MarkPartialPayment(dec("40.00"), date(2024, 1, 9)))

		assert.True(t, inst.IsPaid())
		require.NotNil(t, inst.PaidDate())
		assert.Equal(t, date(2024, 1, 9), *inst.PaidDate())
	})

	t.Run("ExceedsRemaining", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		require.NoError(t, inst.MarkPartialPayment(dec("60.00"), date(2024, 1, 5)))

		err := inst.MarkPartialPayment(dec("50.00"), date(2024, 1, 6))

		require.ErrorIs(t, err, plan.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "40.00")
		assert.True(t, inst.AmountPaid().Equal(dec("60")))
		assert.True(t, inst.IsPending())
	})

	t.Run("NonPositive", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

		require.ErrorIs(t, inst.MarkPartialPayment(decimal.Zero, date(2024, 1, 5)), plan.ErrInvalidArgument)
		require.ErrorIs(t, inst.MarkPartialPayment(dec("-1"), date(2024, 1, 5)), plan.ErrInvalidArgument)
	})

	t.Run("OverdueBecomesPaid", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		require.NoError(t, inst.SetStatus(plan.StatusOverdue))

		require.NoError(t, inst.MarkPartialPayment(dec("100.00"), date(2024, 2, 1)))

		assert.True(t, inst.IsPaid())
	})
}

func TestInstallment_SetAmountPaid(t *testing.T) {
	t.Run("FullAmountMarksPaidToday", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

		require.NoError(t, inst.SetAmountPaid(dec("100.00")))

		assert.True(t, inst.IsPaid())
		require.NotNil(t, inst.PaidDate())
		assert.Equal(t, plan.Today(), *inst.PaidDate())
	})

	t.Run("FullAmountKeepsExistingPaidDate", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		inst.MarkFullPayment(date(2024, 1, 3))

		require.NoError(t, inst.SetAmountPaid(dec("100.00")))

		assert.Equal(t, date(2024, 1, 3), *inst.PaidDate())
	})

	t.Run("BelowAmountRevertsPaid", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		inst.MarkFullPayment(date(2024, 1, 3))

		require.NoError(t, inst.SetAmountPaid(dec("25.00")))

		assert.True(t, inst.IsPending())
		assert.Nil(t, inst.PaidDate())
		assert.True(t, inst.IsPartiallyPaid())
	})

	t.Run("BelowAmountKeepsOverdue", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
		require.NoError(t, inst.SetStatus(plan.StatusOverdue))

		require.NoError(t, inst.SetAmountPaid(dec("25.00")))

		assert.True(t, inst.IsOverdue())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

		require.ErrorIs(t, inst.SetAmountPaid(dec("-0.01")), plan.ErrInvalidArgument)
		require.ErrorIs(t, inst.SetAmountPaid(dec("100.01")), plan.ErrInvalidArgument)
		assert.True(t, inst.AmountPaid().IsZero())
	})
}

func TestInstallment_SetAmount(t *testing.T) {
	inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))

	require.ErrorIs(t, inst.SetAmount(decimal.Zero), plan.ErrInvalidArgument)
	require.NoError(t, inst.SetAmount(dec("120.00")))
	assert.True(t, inst.Amount().Equal(dec("120")))

	inst.MarkFullPayment(date(2024, 1, 10))
	require.NoError(t, inst.SetAmount(dec("90.00")))
	assert.True(t, inst.IsPaid())
	assert.True(t, inst.AmountPaid().Equal(dec("90")))
}

func TestInstallment_SetAmount_BelowAmountPaid(t *testing.T) {
	inst := newInstallment(t, 1, "100.00", date(2024, 1, 15))
	require.NoError(t, inst.MarkPartialPayment(dec("60.00"), date(2024, 1, 10)))

	err := inst.SetAmount(dec("50.00"))
	require.ErrorIs(t, err, plan.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "already paid")
	assert.True(t, inst.Amount().Equal(dec("100")))

	require.NoError(t, inst.SetAmount(dec("80.00")))
	assert.True(t, inst.IsPending())
	assert.True(t, inst.RemainingAmount().Equal(dec("20")))
}

func TestInstallment_SettersRefreshUpdatedAt(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	inst, err := plan.NewInstallment(plan.InstallmentParams{
		Number:    1,
		Amount:    dec("10.00"),
		DueDate:   date(2024, 1, 1),
		CreatedAt: old,
		UpdatedAt: old,
	})
	require.NoError(t, err)

	inst.SetDueDate(date(2024, 2, 1))

	assert.Equal(t, date(2024, 2, 1), inst.DueDate())
	assert.True(t, inst.UpdatedAt().After(old))
	assert.Equal(t, old, inst.CreatedAt())
}

func TestInstallment_SetPaidDateIsLowLevel(t *testing.T) {
	inst := newInstallment(t, 1, "10.00", date(2024, 1, 1))

	inst.SetPaidDate(new(date(2024, 1, 2)))

	assert.True(t, inst.IsPending())
	require.NotNil(t, inst.PaidDate())

	inst.SetPaidDate(nil)
	assert.Nil(t, inst.PaidDate())
}

func TestInstallment_SetStatusRejectsUnknown(t *testing.T) {
	inst := newInstallment(t, 1, "10.00", date(2024, 1, 1))

	require.ErrorIs(t, inst.SetStatus("failed"), plan.ErrInvalidArgument)
	assert.True(t, inst.IsPending())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1200.00", plan.FormatAmount(dec("1200")))
	assert.Equal(t, "1200.00", plan.FormatAmount(dec("1200.00")))
	assert.Equal(t, "33.33", plan.FormatAmount(dec("33.33")))
	assert.Equal(t, "10.005", plan.FormatAmount(dec("10.005")))
	assert.Equal(t, "0.00", plan.FormatAmount(decimal.Zero))
}
