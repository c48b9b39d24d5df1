package matching_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/piggy/internal/matching"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

func buildPlan(t *testing.T, merchant string) *plan.Plan {
	t.Helper()

	p, err := plan.Build(plan.BuildParams{
		MerchantName:    merchant,
		TotalAmount:     decimal.RequireFromString("60.00"),
		PurchaseDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		NumInstallments: 3,
		DaysBetween:     14,
	})
	require.NoError(t, err)

	return p
}

func TestService_Learn(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		preferred string
		wantCall  bool
		wantErr   error
	}{
		{name: "Valid", pattern: " AMZN Mktp ", preferred: "Amazon", wantCall: true},
		{name: "EmptyPattern", pattern: "  ", preferred: "Amazon", wantErr: plan.ErrInvalidArgument},
		{name: "EmptyPreferred", pattern: "AMZN", preferred: "", wantErr: plan.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := matching.NewMockRepository(gomock.NewController(t))
			svc := matching.NewService(repo)

			if tt.wantCall {
				repo.EXPECT().CreateMapping(gomock.Any(), "AMZN Mktp", "Amazon").Return(nil)
			}

			err := svc.Learn(context.Background(), tt.pattern, tt.preferred)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestService_Apply(t *testing.T) {
	repo := matching.NewMockRepository(gomock.NewController(t))
	svc := matching.NewService(repo)

	amazon := buildPlan(t, "AMZN Mktp US*2K4")
	known := buildPlan(t, "Best Buy")
	other := buildPlan(t, "Corner Shop")

	repo.EXPECT().FindMatch(gomock.Any(), "AMZN Mktp US*2K4").Return("Amazon", nil)
	repo.EXPECT().FindMatch(gomock.Any(), "Best Buy").Return("Best Buy", nil)
	repo.EXPECT().FindMatch(gomock.Any(), "Corner Shop").Return("", nil)

	n, err := svc.Apply(context.Background(), []*plan.Plan{amazon, known, other})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Amazon", amazon.MerchantName())
	assert.Equal(t, "Best Buy", known.MerchantName())
	assert.Equal(t, "Corner Shop", other.MerchantName())
}

func TestService_Apply_RepositoryError(t *testing.T) {
	repo := matching.NewMockRepository(gomock.NewController(t))
	svc := matching.NewService(repo)

	boom := errors.New("boom")
	repo.EXPECT().FindMatch(gomock.Any(), gomock.Any()).Return("", boom)

	_, err := svc.Apply(context.Background(), []*plan.Plan{buildPlan(t, "Shop")})
	require.ErrorIs(t, err, boom)
}
