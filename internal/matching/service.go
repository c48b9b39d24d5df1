package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindMatch(ctx context.Context, merchantName string) (string, error)
	CreateMapping(ctx context.Context, rawPattern, preferredName string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest tries to find a preferred merchant name for the given raw merchant name.
// Returns empty string if no match found.
func (s *Service) Suggest(ctx context.Context, merchantName string) (string, error) {
	return s.repo.FindMatch(ctx, merchantName)
}

// Learn remembers a new mapping between a raw pattern and a preferred merchant name.
func (s *Service) Learn(ctx context.Context, rawPattern, preferredName string) error {
	rawPattern = strings.TrimSpace(rawPattern)
	preferredName = strings.TrimSpace(preferredName)

	if rawPattern == "" || preferredName == "" {
		return fmt.Errorf("%w: raw pattern and preferred name are required", plan.ErrInvalidArgument)
	}

	return s.repo.CreateMapping(ctx, rawPattern, preferredName)
}

// Apply renames plans whose merchant has a learned alias and returns how many changed.
func (s *Service) Apply(ctx context.Context, plans []*plan.Plan) (int, error) {
	renamed := 0

	for _, p := range plans {
		preferred, err := s.repo.FindMatch(ctx, p.MerchantName())
		if err != nil {
			return renamed, err
		}

		if preferred == "" || preferred == p.MerchantName() {
			continue
		}

		if err := p.SetMerchantName(preferred); err != nil {
			return renamed, err
		}

		renamed++
	}

	return renamed, nil
}
