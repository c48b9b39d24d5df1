package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/piggy/internal/importer/planscsv"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Service struct {
	csvImporter Importer
}

func NewService() *Service {
	return &Service{
		csvImporter: planscsv.NewParser(),
	}
}

// Import parses r in the given format. An empty format is read as CSV.
func (s *Service) Import(format Format, r io.Reader) ([]*plan.Plan, error) {
	var importer Importer

	switch format {
	case FormatCSV, "":
		importer = s.csvImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return importer.Parse(r)
}
