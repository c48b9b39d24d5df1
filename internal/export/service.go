package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// Item is an exported plan with the CSV file it was written to.
type Item struct {
	ID       string
	Plan     *plan.Plan
	FilePath string
}

// Service exports selections of plans as CSV files with a plain-text payment summary.
type Service struct {
	plans *plan.Service
}

// NewService creates an export service over the loaded plans.
func NewService(plans *plan.Service) *Service {
	return &Service{plans: plans}
}

// Export writes one CSV per plan matching filter into outputDir.
func (s *Service) Export(ctx context.Context, filter analytics.Filter, outputDir string) ([]Item, error) {
	entries := filter.Apply(s.plans.List())

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(outputDir, e.ID+".csv")
		if err := writePlan(path, e.Plan); err != nil {
			return nil, fmt.Errorf("exporting plan %s: %w", e.ID, err)
		}

		items = append(items, Item{ID: e.ID, Plan: e.Plan, FilePath: path})
	}

	return items, nil
}

func writePlan(path string, p *plan.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := p.WriteCSV(f); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return f.Close()
}

// GenerateSummary renders a plain-text line per exported plan, suitable for an email body.
func (s *Service) GenerateSummary(items []Item, today time.Time) string {
	var sb strings.Builder

	for _, item := range items {
		p := item.Plan

		next := "fully paid"
		if due := p.NextPaymentDue(); due != nil {
			next = "next " + due.Format(time.DateOnly)
		}

		overdue := ""
		if n := len(p.OverdueInstallments(today)); n > 0 {
			overdue = fmt.Sprintf(" | %d overdue", n)
		}

		fmt.Fprintf(&sb, "* %s | $%s of $%s left | %s%s | %s\n",
			p.MerchantName(),
			plan.FormatAmount(p.RemainingBalance()),
			plan.FormatAmount(p.TotalAmount()),
			next,
			overdue,
			filepath.Base(item.FilePath),
		)
	}

	return sb.String()
}
