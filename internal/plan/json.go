package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Naive timestamps are accepted for files written without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

type installmentJSON struct {
	InstallmentNumber int     `json:"installment_number"`
	Amount            string  `json:"amount"`
	DueDate           string  `json:"due_date"`
	Status            Status  `json:"status"`
	PaidDate          *string `json:"paid_date"`
	AmountPaid        *string `json:"amount_paid"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type planJSON struct {
	MerchantName string            `json:"merchant_name"`
	TotalAmount  string            `json:"total_amount"`
	PurchaseDate string            `json:"purchase_date"`
	Installments []installmentJSON `json:"installments"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// ToJSON renders the plan as indented JSON.
func (p *Plan) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// FromJSON decodes and validates a plan. A missing amount_paid is read as zero.
func FromJSON(data []byte) (*Plan, error) {
	var doc planJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	return doc.toPlan()
}

func (p *Plan) MarshalJSON() ([]byte, error) {
	doc := planJSON{
		MerchantName: p.merchantName,
		TotalAmount:  FormatAmount(p.totalAmount),
		PurchaseDate: p.purchaseDate.Format(time.DateOnly),
		Installments: make([]installmentJSON, len(p.installments)),
		CreatedAt:    p.createdAt.Format(time.RFC3339Nano),
		UpdatedAt:    p.updatedAt.Format(time.RFC3339Nano),
	}

	for i, inst := range p.installments {
		item := installmentJSON{
			InstallmentNumber: inst.number,
			Amount:            FormatAmount(inst.amount),
			DueDate:           inst.dueDate.Format(time.DateOnly),
			Status:            inst.status,
			AmountPaid:        new(FormatAmount(inst.amountPaid)),
			CreatedAt:         inst.createdAt.Format(time.RFC3339Nano),
			UpdatedAt:         inst.updatedAt.Format(time.RFC3339Nano),
		}

		if inst.paidDate != nil {
			item.PaidDate = new(inst.paidDate.Format(time.DateOnly))
		}

		doc.Installments[i] = item
	}

	return json.Marshal(doc)
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	decoded, err := FromJSON(data)
	if err != nil {
		return err
	}

	*p = *decoded

	return nil
}

func (doc planJSON) toPlan() (*Plan, error) {
	total, err := parseAmount("total_amount", doc.TotalAmount)
	if err != nil {
		return nil, err
	}

	purchased, err := parseDate("purchase_date", doc.PurchaseDate)
	if err != nil {
		return nil, err
	}

	created, err := parseTimestamp("created_at", doc.CreatedAt)
	if err != nil {
		return nil, err
	}

	updated, err := parseTimestamp("updated_at", doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	installments := make([]*Installment, len(doc.Installments))

	for i, item := range doc.Installments {
		inst, err := item.toInstallment()
		if err != nil {
			return nil, fmt.Errorf("installment at position %d: %w", i, err)
		}

		installments[i] = inst
	}

	return New(Params{
		MerchantName: doc.MerchantName,
		TotalAmount:  total,
		PurchaseDate: purchased,
		Installments: installments,
		CreatedAt:    created,
		UpdatedAt:    updated,
	})
}

func (item installmentJSON) toInstallment() (*Installment, error) {
	amount, err := parseAmount("amount", item.Amount)
	if err != nil {
		return nil, err
	}

	due, err := parseDate("due_date", item.DueDate)
	if err != nil {
		return nil, err
	}

	amountPaid := decimal.Zero
	if item.AmountPaid != nil {
		if amountPaid, err = parseAmount("amount_paid", *item.AmountPaid); err != nil {
			return nil, err
		}
	}

	var paid *time.Time

	if item.PaidDate != nil {
		d, err := parseDate("paid_date", *item.PaidDate)
		if err != nil {
			return nil, err
		}

		paid = &d
	}

	created, err := parseTimestamp("created_at", item.CreatedAt)
	if err != nil {
		return nil, err
	}

	updated, err := parseTimestamp("updated_at", item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return NewInstallment(InstallmentParams{
		Number:     item.InstallmentNumber,
		Amount:     amount,
		DueDate:    due,
		Status:     item.Status,
		PaidDate:   paid,
		AmountPaid: amountPaid,
		CreatedAt:  created,
		UpdatedAt:  updated,
	})
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a decimal amount", ErrValidation, field, s)
	}

	return d, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", ErrValidation, field, s)
	}

	return t, nil
}

// parseTimestamp returns the zero time for an empty value so constructors apply their default.
func parseTimestamp(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s %q is not a timestamp", ErrValidation, field, s)
}
