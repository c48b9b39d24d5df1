package planscsv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount accepts "1234.56", "1,234.56" and the European "1.234,56".
// Whichever of '.' and ',' comes last is the decimal separator. Currency symbols are ignored.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ' ', '\u00a0':
			return -1
		}

		return r
	}, s)

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	switch {
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case lastComma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
