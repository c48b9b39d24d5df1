package importer

import (
	"io"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Format string

const (
	// FormatCSV covers plan exports and hand-made installment schedules.
	FormatCSV Format = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]*plan.Plan, error)
}
