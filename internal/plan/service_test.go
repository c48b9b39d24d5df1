package plan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

func newService(t *testing.T) (*plan.Service, *plan.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := plan.NewMockRepository(ctrl)

	return plan.NewService(repo), repo
}

func createParams(merchant string) plan.BuildParams {
	return plan.BuildParams{
		MerchantName:     merchant,
		TotalAmount:      dec("400.00"),
		PurchaseDate:     date(2024, 1, 1),
		NumInstallments:  4,
		DaysBetween:      14,
		FirstPaymentDate: date(2024, 1, 15),
	}
}

func ids(entries []plan.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}

	return out
}

func TestService_GenerateID(t *testing.T) {
	svc, _ := newService(t)

	assert.Equal(t, "Apple Store_2024-01-01", svc.GenerateID("Apple Store", date(2024, 1, 1)))
	assert.Equal(t, "a_b_2024-01-01", svc.GenerateID("a/b", date(2024, 1, 1)))

	_, err := svc.Create(createParams("Apple Store"))
	require.NoError(t, err)
	assert.Equal(t, "Apple Store_2024-01-01_2", svc.GenerateID("Apple Store", date(2024, 1, 1)))

	_, err = svc.Create(createParams("Apple Store"))
	require.NoError(t, err)
	assert.Equal(t, "Apple Store_2024-01-01_3", svc.GenerateID("Apple Store", date(2024, 1, 1)))
}

func TestService_CreateGetRemove(t *testing.T) {
	svc, _ := newService(t)

	assert.False(t, svc.HasPlans())
	assert.False(t, svc.HasUnsavedChanges())

	a, err := svc.Create(createParams("Shop A"))
	require.NoError(t, err)
	b, err := svc.Create(createParams("Shop B"))
	require.NoError(t, err)

	assert.True(t, svc.HasPlans())
	assert.True(t, svc.HasUnsavedChanges())
	assert.Equal(t, []string{a.ID, b.ID}, ids(svc.List()))

	got, err := svc.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shop A", got.MerchantName())

	assert.True(t, svc.Remove(a.ID))
	assert.False(t, svc.Remove(a.ID))

	_, err = svc.Get(a.ID)
	require.ErrorIs(t, err, plan.ErrNotFound)
	assert.Equal(t, 1, svc.Len())
}

func TestService_Create_Invalid(t *testing.T) {
	svc, _ := newService(t)

	params := createParams("Shop")
	params.NumInstallments = 0

	_, err := svc.Create(params)
	require.ErrorIs(t, err, plan.ErrValidation)
	assert.False(t, svc.HasPlans())
}

func TestService_Add(t *testing.T) {
	svc, _ := newService(t)
	p := buildPlan(t, "100.00", 2, 14, date(2024, 1, 15))

	require.ErrorIs(t, svc.Add(" ", p), plan.ErrInvalidArgument)
	require.NoError(t, svc.Add("custom", p))

	// The service keeps its own copy.
	require.NoError(t, p.MarkInstallmentPaid(1, date(2024, 1, 15)))

	got, err := svc.Get("custom")
	require.NoError(t, err)
	assert.False(t, got.IsFullyPaid())
	assert.Len(t, got.UnpaidInstallments(), 2)
}

func TestService_Update(t *testing.T) {
	svc, _ := newService(t)
	e, err := svc.Create(createParams("Shop"))
	require.NoError(t, err)

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		updated, err := svc.Update(e.ID, func(p *plan.Plan) error {
			return p.MarkInstallmentPaid(1, date(2024, 1, 15))
		})
		require.NoError(t, err)
		assert.Len(t, updated.UnpaidInstallments(), 3)

		got, err := svc.Get(e.ID)
		require.NoError(t, err)
		assert.Len(t, got.UnpaidInstallments(), 3)
	})

	t.Run("DiscardsOnFailure", func(t *testing.T) {
		_, err := svc.Update(e.ID, func(p *plan.Plan) error {
			if err := p.MarkInstallmentPaid(2, date(2024, 1, 29)); err != nil {
				return err
			}

			return p.MarkInstallmentPaid(9, date(2024, 1, 29))
		})
		require.ErrorIs(t, err, plan.ErrNotFound)

		got, err := svc.Get(e.ID)
		require.NoError(t, err)

		inst, err := got.Installment(2)
		require.NoError(t, err)
		assert.True(t, inst.IsPending())
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		_, err := svc.Update("missing", func(*plan.Plan) error { return nil })
		require.ErrorIs(t, err, plan.ErrNotFound)
	})
}

func TestService_Rename(t *testing.T) {
	svc, repo := newService(t)

	first, err := svc.Create(createParams("Shop A"))
	require.NoError(t, err)
	second, err := svc.Create(createParams("Shop B"))
	require.NoError(t, err)

	newID, err := svc.Rename(first.ID, "Shop C")
	require.NoError(t, err)
	assert.Equal(t, "Shop C_2024-01-01", newID)
	assert.Equal(t, []string{newID, second.ID}, ids(svc.List()))

	got, err := svc.Get(newID)
	require.NoError(t, err)
	assert.Equal(t, "Shop C", got.MerchantName())

	sameID, err := svc.Rename(newID, "Shop C")
	require.NoError(t, err)
	assert.Equal(t, newID, sameID)

	_, err = svc.Rename(newID, "")
	require.ErrorIs(t, err, plan.ErrInvalidArgument)

	// The old document is removed on the next save.
	repo.EXPECT().DeletePlan(gomock.Any(), first.ID).Return(nil)
	repo.EXPECT().SavePlan(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	saved, errs := svc.SaveAll(context.Background())
	assert.Equal(t, 2, saved)
	assert.Empty(t, errs)
}

func TestService_SaveAll(t *testing.T) {
	type testCase struct {
		name        string
		setupMock   func(m *plan.MockRepository)
		wantSaved   int
		wantErrs    []string
		wantUnsaved bool
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *plan.MockRepository) {
				m.EXPECT().SavePlan(gomock.Any(), "Shop A_2024-01-01", gomock.Any()).Return(nil)
				m.EXPECT().SavePlan(gomock.Any(), "Shop B_2024-01-01", gomock.Any()).Return(nil)
			},
			wantSaved:   2,
			wantUnsaved: false,
		},
		{
			name: "PartialFailure",
			setupMock: func(m *plan.MockRepository) {
				m.EXPECT().SavePlan(gomock.Any(), "Shop A_2024-01-01", gomock.Any()).Return(errors.New("disk full"))
				m.EXPECT().SavePlan(gomock.Any(), "Shop B_2024-01-01", gomock.Any()).Return(nil)
			},
			wantSaved:   1,
			wantErrs:    []string{"error saving Shop A_2024-01-01: disk full"},
			wantUnsaved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			tt.setupMock(repo)

			_, err := svc.Create(createParams("Shop A"))
			require.NoError(t, err)
			_, err = svc.Create(createParams("Shop B"))
			require.NoError(t, err)

			saved, errs := svc.SaveAll(context.Background())

			assert.Equal(t, tt.wantSaved, saved)
			assert.Equal(t, tt.wantErrs, errs)
			assert.Equal(t, tt.wantUnsaved, svc.HasUnsavedChanges())
		})
	}
}

func TestService_SaveAll_DeletesRemoved(t *testing.T) {
	svc, repo := newService(t)

	e, err := svc.Create(createParams("Shop"))
	require.NoError(t, err)
	require.True(t, svc.Remove(e.ID))

	repo.EXPECT().DeletePlan(gomock.Any(), e.ID).Return(errors.New("permission denied"))

	saved, errs := svc.SaveAll(context.Background())
	assert.Equal(t, 0, saved)
	assert.Equal(t, []string{"error removing Shop_2024-01-01: permission denied"}, errs)
	assert.True(t, svc.HasUnsavedChanges())

	repo.EXPECT().DeletePlan(gomock.Any(), e.ID).Return(nil)

	_, errs = svc.SaveAll(context.Background())
	assert.Empty(t, errs)
	assert.False(t, svc.HasUnsavedChanges())

	// Nothing left to delete.
	_, errs = svc.SaveAll(context.Background())
	assert.Empty(t, errs)
}

func TestService_LoadAll(t *testing.T) {
	t.Run("CollectsErrors", func(t *testing.T) {
		svc, repo := newService(t)
		p := buildPlan(t, "200.00", 2, 14, date(2024, 1, 15))

		repo.EXPECT().ListIDs(gomock.Any()).Return([]string{"a", "b", "c"}, nil)
		repo.EXPECT().LoadPlan(gomock.Any(), "a").Return(p, nil)
		repo.EXPECT().LoadPlan(gomock.Any(), "b").Return(nil, errors.New("bad json"))
		repo.EXPECT().LoadPlan(gomock.Any(), "c").Return(p, nil)

		loaded, errs := svc.LoadAll(context.Background())

		assert.Equal(t, 2, loaded)
		assert.Equal(t, []string{"error loading b: bad json"}, errs)
		assert.Equal(t, []string{"a", "c"}, ids(svc.List()))
		assert.False(t, svc.HasUnsavedChanges())
	})

	t.Run("ListFails", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().ListIDs(gomock.Any()).Return(nil, errors.New("unreadable"))

		loaded, errs := svc.LoadAll(context.Background())

		assert.Equal(t, 0, loaded)
		assert.Equal(t, []string{"error listing plans: unreadable"}, errs)
	})

	t.Run("Empty", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().ListIDs(gomock.Any()).Return(nil, nil)

		loaded, errs := svc.LoadAll(context.Background())

		assert.Equal(t, 0, loaded)
		assert.Empty(t, errs)
		assert.False(t, svc.HasPlans())
	})
}

func TestService_UpdateOverdueStatus(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(createParams("Shop A"))
	require.NoError(t, err)
	_, err = svc.Create(createParams("Shop B"))
	require.NoError(t, err)

	assert.Equal(t, 4, svc.UpdateOverdueStatus(date(2024, 2, 1)))
	assert.Equal(t, 0, svc.UpdateOverdueStatus(date(2024, 2, 1)))
}

func TestService_ExportCSV(t *testing.T) {
	svc, repo := newService(t)

	e, err := svc.Create(createParams("Shop"))
	require.NoError(t, err)

	repo.EXPECT().ExportCSV(gomock.Any(), e.ID, gomock.Any()).Return("data/"+e.ID+".csv", nil)

	path, err := svc.ExportCSV(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "data/Shop_2024-01-01.csv", path)

	_, err = svc.ExportCSV(context.Background(), "missing")
	require.ErrorIs(t, err, plan.ErrNotFound)
}

func TestService_ImportBatch(t *testing.T) {
	svc, _ := newService(t)

	existing, err := svc.Create(createParams("Shop A"))
	require.NoError(t, err)

	dup, err := plan.Build(createParams("shop a"))
	require.NoError(t, err)
	fresh, err := plan.Build(createParams("Shop B"))
	require.NoError(t, err)

	result := svc.ImportBatch([]*plan.Plan{dup, fresh})

	assert.Empty(t, result.Imported)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, existing.ID, result.Conflicts[0].Existing.ID)
	assert.Equal(t, []*plan.Plan{fresh}, result.New)
	assert.Equal(t, 1, svc.Len())

	result = svc.ImportBatch([]*plan.Plan{fresh})
	require.Len(t, result.Imported, 1)
	assert.Equal(t, "Shop B_2024-01-01", result.Imported[0].ID)

	added := svc.AddBatch([]*plan.Plan{dup})
	require.Len(t, added, 1)
	assert.Equal(t, "shop a_2024-01-01", added[0].ID)
	assert.Equal(t, 3, svc.Len())
}

func TestService_Reload(t *testing.T) {
	t.Run("ReplacesWorkingSet", func(t *testing.T) {
		svc, repo := newService(t)
		stored := buildPlan(t, "200.00", 2, 14, date(2024, 1, 15))

		_, err := svc.Create(createParams("Unsaved Shop"))
		require.NoError(t, err)
		require.True(t, svc.HasUnsavedChanges())

		repo.EXPECT().ListIDs(gomock.Any()).Return([]string{"a"}, nil)
		repo.EXPECT().LoadPlan(gomock.Any(), "a").Return(stored, nil)

		loaded, errs := svc.Reload(context.Background())

		assert.Equal(t, 1, loaded)
		assert.Empty(t, errs)
		assert.Equal(t, []string{"a"}, ids(svc.List()))
		assert.False(t, svc.HasUnsavedChanges())
	})

	t.Run("PartialFailureStaysDirty", func(t *testing.T) {
		svc, repo := newService(t)
		stored := buildPlan(t, "200.00", 2, 14, date(2024, 1, 15))

		repo.EXPECT().ListIDs(gomock.Any()).Return([]string{"a", "b"}, nil)
		repo.EXPECT().LoadPlan(gomock.Any(), "a").Return(stored, nil)
		repo.EXPECT().LoadPlan(gomock.Any(), "b").Return(nil, errors.New("bad json"))

		loaded, errs := svc.Reload(context.Background())

		assert.Equal(t, 1, loaded)
		assert.Equal(t, []string{"error loading b: bad json"}, errs)
		assert.Equal(t, []string{"a"}, ids(svc.List()))
		assert.True(t, svc.HasUnsavedChanges())
	})

	t.Run("ListFailsKeepsPlans", func(t *testing.T) {
		svc, repo := newService(t)

		_, err := svc.Create(createParams("Apple Store"))
		require.NoError(t, err)

		repo.EXPECT().ListIDs(gomock.Any()).Return(nil, errors.New("unreadable"))

		loaded, errs := svc.Reload(context.Background())

		assert.Equal(t, 0, loaded)
		assert.Equal(t, []string{"error listing plans: unreadable"}, errs)
		assert.Equal(t, 1, svc.Len())
	})
}
