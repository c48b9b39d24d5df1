package api

import (
	"time"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type InstallmentResponse struct {
	Number          int         `json:"installment_number"`
	Amount          string      `json:"amount"`
	DueDate         string      `json:"due_date"`
	Status          plan.Status `json:"status"`
	PaidDate        *string     `json:"paid_date"`
	AmountPaid      string      `json:"amount_paid"`
	RemainingAmount string      `json:"remaining_amount"`
	IsPartiallyPaid bool        `json:"is_partially_paid"`
}

type PlanResponse struct {
	ID               string                `json:"id"`
	MerchantName     string                `json:"merchant_name"`
	TotalAmount      string                `json:"total_amount"`
	PurchaseDate     string                `json:"purchase_date"`
	RemainingBalance string                `json:"remaining_balance"`
	IsFullyPaid      bool                  `json:"is_fully_paid"`
	NextPaymentDue   *string               `json:"next_payment_due"`
	Installments     []InstallmentResponse `json:"installments"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func ToInstallmentResponse(inst plan.Installment) InstallmentResponse {
	return InstallmentResponse{
		Number:          inst.Number(),
		Amount:          plan.FormatAmount(inst.Amount()),
		DueDate:         inst.DueDate().Format(time.DateOnly),
		Status:          inst.Status(),
		PaidDate:        formatDate(inst.PaidDate()),
		AmountPaid:      plan.FormatAmount(inst.AmountPaid()),
		RemainingAmount: plan.FormatAmount(inst.RemainingAmount()),
		IsPartiallyPaid: inst.IsPartiallyPaid(),
	}
}

func ToPlanResponse(id string, p *plan.Plan) PlanResponse {
	insts := p.Installments()

	resp := PlanResponse{
		ID:               id,
		MerchantName:     p.MerchantName(),
		TotalAmount:      plan.FormatAmount(p.TotalAmount()),
		PurchaseDate:     p.PurchaseDate().Format(time.DateOnly),
		RemainingBalance: plan.FormatAmount(p.RemainingBalance()),
		IsFullyPaid:      p.IsFullyPaid(),
		NextPaymentDue:   formatDate(p.NextPaymentDue()),
		Installments:     make([]InstallmentResponse, 0, len(insts)),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}

	for _, inst := range insts {
		resp.Installments = append(resp.Installments, ToInstallmentResponse(inst))
	}

	return resp
}

func ToPlanResponseList(entries []plan.Entry) []PlanResponse {
	resp := make([]PlanResponse, len(entries))
	for i, e := range entries {
		resp[i] = ToPlanResponse(e.ID, e.Plan)
	}

	return resp
}

type PaymentResponse struct {
	PlanID       string              `json:"plan_id"`
	MerchantName string              `json:"merchant_name"`
	DaysUntilDue int                 `json:"days_until_due"`
	Installment  InstallmentResponse `json:"installment"`
}

func ToPaymentResponseList(payments []analytics.PaymentInfo) []PaymentResponse {
	resp := make([]PaymentResponse, len(payments))
	for i, pi := range payments {
		resp[i] = PaymentResponse{
			PlanID:       pi.PlanID,
			MerchantName: pi.MerchantName,
			DaysUntilDue: pi.DaysUntilDue,
			Installment:  ToInstallmentResponse(pi.Installment),
		}
	}

	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}

	return new(t.Format(time.DateOnly))
}
