package planscsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/piggy/internal/encoding"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

var dateLayouts = []string{time.DateOnly, "02-01-2006", "02/01/2006"}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

// Parser reads plan CSV files and rebuilds the plans they describe.
// It auto-detects the layout by matching column headers against known profiles,
// and the separator (',' or ';') from the header line.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]*plan.Plan, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching plan CSV format found: expected columns for export or schedule")
	}

	slog.Debug("parsing plan csv", "profile", profile.Name, "charset", charset, "rows", len(rows)-headerIdx-1)

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
}

// detectSeparator picks ';' or ',' from the first line containing either, preferring the more frequent.
func detectSeparator(data []byte) rune {
	for line := range bytes.Lines(data) {
		semicolons := bytes.Count(line, []byte(";"))
		commas := bytes.Count(line, []byte(","))

		switch {
		case semicolons > commas:
			return ';'
		case commas > 0:
			return ','
		}
	}

	return ','
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// group collects the rows of one plan.
type group struct {
	firstRow     int
	merchant     string
	total        *decimal.Decimal
	purchaseDate time.Time
	createdAt    time.Time
	updatedAt    time.Time
	installments []*plan.Installment
}

// parseRows groups rows by plan identity (merchant, total, purchase date, creation time)
// in order of first appearance and validates each plan.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]*plan.Plan, error) {
	index := make(map[string]int)

	var groups []*group

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, the header itself is row headerRowNum+1

		if isBlank(row) {
			continue
		}

		g, inst, err := parseRow(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		key := strings.Join([]string{
			g.merchant,
			optionalCell(row, cols, p.TotalCol),
			g.purchaseDate.Format(time.DateOnly),
			optionalCell(row, cols, p.CreatedCol),
		}, "\x00")

		idx, ok := index[key]
		if !ok {
			g.firstRow = rowNum
			idx = len(groups)
			index[key] = idx
			groups = append(groups, g)
		}

		groups[idx].installments = append(groups[idx].installments, inst)
	}

	plans := make([]*plan.Plan, 0, len(groups))

	for _, g := range groups {
		total := decimal.Zero
		if g.total != nil {
			total = *g.total
		} else {
			for _, inst := range g.installments {
				total = total.Add(inst.Amount())
			}
		}

		built, err := plan.New(plan.Params{
			MerchantName: g.merchant,
			TotalAmount:  total,
			PurchaseDate: g.purchaseDate,
			Installments: g.installments,
			CreatedAt:    g.createdAt,
			UpdatedAt:    g.updatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("plan %q starting at row %d: %w", g.merchant, g.firstRow, err)
		}

		plans = append(plans, built)
	}

	return plans, nil
}

func parseRow(p *Profile, cols colIndex, row []string) (*group, *plan.Installment, error) {
	merchant := cellValue(row, cols[p.MerchantCol])
	if merchant == "" {
		return nil, nil, fmt.Errorf("missing %s", p.MerchantCol)
	}

	purchased, err := parseDate(cellValue(row, cols[p.PurchaseCol]))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", p.PurchaseCol, err)
	}

	g := &group{merchant: merchant, purchaseDate: purchased}

	if s := optionalCell(row, cols, p.TotalCol); s != "" {
		total, err := parseAmount(s)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p.TotalCol, err)
		}

		g.total = &total
	}

	if g.createdAt, err = parseTimestamp(optionalCell(row, cols, p.CreatedCol)); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", p.CreatedCol, err)
	}

	if g.updatedAt, err = parseTimestamp(optionalCell(row, cols, p.UpdatedCol)); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", p.UpdatedCol, err)
	}

	inst, err := parseInstallment(p, cols, row)
	if err != nil {
		return nil, nil, err
	}

	return g, inst, nil
}

func parseInstallment(p *Profile, cols colIndex, row []string) (*plan.Installment, error) {
	number, err := strconv.Atoi(cellValue(row, cols[p.NumberCol]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.NumberCol, err)
	}

	amount, err := parseAmount(cellValue(row, cols[p.AmountCol]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.AmountCol, err)
	}

	due, err := parseDate(cellValue(row, cols[p.DueCol]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.DueCol, err)
	}

	params := plan.InstallmentParams{
		Number:  number,
		Amount:  amount,
		DueDate: due,
		Status:  plan.Status(strings.ToLower(optionalCell(row, cols, p.StatusCol))),
	}

	if s := optionalCell(row, cols, p.PaidDateCol); s != "" {
		paid, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.PaidDateCol, err)
		}

		params.PaidDate = &paid
		if params.Status == "" {
			params.Status = plan.StatusPaid
			params.AmountPaid = amount
		}
	}

	if s := optionalCell(row, cols, p.PaidCol); s != "" {
		if params.AmountPaid, err = parseAmount(s); err != nil {
			return nil, fmt.Errorf("%s: %w", p.PaidCol, err)
		}
	}

	return plan.NewInstallment(params)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseTimestamp returns the zero time for an empty cell.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// optionalCell returns the trimmed value of a column the profile may not define or the file may lack.
func optionalCell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

// cellValue safely gets a trimmed cell value by index.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
