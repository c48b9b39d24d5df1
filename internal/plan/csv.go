package plan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVHeader lists the export columns in order. One row is written per installment.
var CSVHeader = []string{
	"merchant_name",
	"total_amount",
	"purchase_date",
	"created_at",
	"updated_at",
	"installment_number",
	"amount",
	"due_date",
	"status",
	"paid_date",
	"amount_paid",
	"remaining_amount",
	"is_paid",
	"is_pending",
	"is_overdue",
	"is_partially_paid",
}

// WriteCSV writes the header followed by one row per installment of each plan.
func WriteCSV(w io.Writer, plans ...*Plan) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range plans {
		for _, inst := range p.installments {
			if err := cw.Write(p.csvRow(inst)); err != nil {
				return fmt.Errorf("write installment #%d: %w", inst.number, err)
			}
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteCSV exports this plan alone.
func (p *Plan) WriteCSV(w io.Writer) error {
	return WriteCSV(w, p)
}

func (p *Plan) csvRow(inst *Installment) []string {
	paid := ""
	if inst.paidDate != nil {
		paid = inst.paidDate.Format(time.DateOnly)
	}

	return []string{
		p.merchantName,
		FormatAmount(p.totalAmount),
		p.purchaseDate.Format(time.DateOnly),
		p.createdAt.Format(time.RFC3339Nano),
		p.updatedAt.Format(time.RFC3339Nano),
		strconv.Itoa(inst.number),
		FormatAmount(inst.amount),
		inst.dueDate.Format(time.DateOnly),
		string(inst.status),
		paid,
		FormatAmount(inst.amountPaid),
		FormatAmount(inst.RemainingAmount()),
		strconv.FormatBool(inst.IsPaid()),
		strconv.FormatBool(inst.IsPending()),
		strconv.FormatBool(inst.IsOverdue()),
		strconv.FormatBool(inst.IsPartiallyPaid()),
	}
}
