package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Handler struct {
	svc      *plan.Service
	autosave *api.Autosave
}

func NewHandler(svc *plan.Service, autosave *api.Autosave) *Handler {
	return &Handler{svc: svc, autosave: autosave}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/csv", h.csv)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
	r.Patch("/{id}/installments/{number}", h.updateInstallment)
	r.Post("/{id}/installments/{number}/pay", h.pay)
	r.Post("/{id}/installments/{number}/unpay", h.unpay)
	r.Post("/{id}/installments/{number}/partial", h.partial)
}

type createPlanRequest struct {
	MerchantName     string          `json:"merchant_name"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PurchaseDate     string          `json:"purchase_date"`
	NumInstallments  int             `json:"num_installments"`
	DaysBetween      int             `json:"days_between"`
	FirstPaymentDate string          `json:"first_payment_date,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	purchased, err := api.ParseDate(req.PurchaseDate)
	if err != nil {
		api.Error(w, err)
		return
	}

	params := plan.BuildParams{
		MerchantName:    req.MerchantName,
		TotalAmount:     req.TotalAmount,
		PurchaseDate:    purchased,
		NumInstallments: req.NumInstallments,
		DaysBetween:     req.DaysBetween,
	}

	if req.FirstPaymentDate != "" {
		if params.FirstPaymentDate, err = api.ParseDate(req.FirstPaymentDate); err != nil {
			api.Error(w, err)
			return
		}
	}

	entry, err := h.svc.Create(params)
	if err != nil {
		api.Error(w, err)
		return
	}

	h.autosave.Persist(r.Context())

	api.JSON(w, http.StatusCreated, api.ToPlanResponse(entry.ID, entry.Plan))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := api.ParseFilter(r.URL.Query())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.JSON(w, http.StatusOK, api.ToPlanResponseList(filter.Apply(h.svc.List())))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.svc.Get(id)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.JSON(w, http.StatusOK, api.ToPlanResponse(id, p))
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.svc.Get(id)
	if err != nil {
		api.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))

	if err := p.WriteCSV(w); err != nil {
		api.Error(w, err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.svc.Remove(id) {
		api.Error(w, fmt.Errorf("%w: plan %q not found", plan.ErrNotFound, id))
		return
	}

	h.autosave.Persist(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

type updatePlanRequest struct {
	MerchantName *string `json:"merchant_name,omitempty"`
}

// update renames the plan. The response carries the id it is stored under afterwards.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.MerchantName != nil {
		newID, err := h.svc.Rename(id, *req.MerchantName)
		if err != nil {
			api.Error(w, err)
			return
		}

		id = newID

		h.autosave.Persist(r.Context())
	}

	p, err := h.svc.Get(id)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.JSON(w, http.StatusOK, api.ToPlanResponse(id, p))
}

type updateInstallmentRequest struct {
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	DueDate    *string          `json:"due_date,omitempty"`
	PaidDate   *string          `json:"paid_date,omitempty"`
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`
}

func (h *Handler) updateInstallment(w http.ResponseWriter, r *http.Request) {
	var req updateInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mutate(w, r, func(p *plan.Plan, n int) error {
		if req.Amount != nil {
			if err := p.SetInstallmentAmount(n, *req.Amount); err != nil {
				return err
			}
		}

		if req.DueDate != nil {
			due, err := api.ParseDate(*req.DueDate)
			if err != nil {
				return err
			}

			if err := p.SetInstallmentDueDate(n, due); err != nil {
				return err
			}
		}

		if req.AmountPaid != nil {
			if err := p.SetInstallmentAmountPaid(n, *req.AmountPaid); err != nil {
				return err
			}
		}

		if req.PaidDate != nil {
			paid, err := api.ParseDate(*req.PaidDate)
			if err != nil {
				return err
			}

			if err := p.SetInstallmentPaidDate(n, paid); err != nil {
				return err
			}
		}

		return nil
	})
}

type paymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Date   string           `json:"date,omitempty"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePayment(w, r)
	if !ok {
		return
	}

	h.mutate(w, r, func(p *plan.Plan, n int) error {
		date, err := paymentDate(req.Date)
		if err != nil {
			return err
		}

		return p.MarkInstallmentPaid(n, date)
	})
}

func (h *Handler) unpay(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(p *plan.Plan, n int) error {
		return p.MarkInstallmentUnpaid(n)
	})
}

func (h *Handler) partial(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePayment(w, r)
	if !ok {
		return
	}

	if req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, func(p *plan.Plan, n int) error {
		date, err := paymentDate(req.Date)
		if err != nil {
			return err
		}

		return p.MarkInstallmentPartialPayment(n, *req.Amount, date)
	})
}

// mutate runs fn against installment {number} of plan {id} and answers with the updated plan.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(p *plan.Plan, n int) error) {
	id := chi.URLParam(r, "id")

	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		http.Error(w, "invalid installment number", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Update(id, func(p *plan.Plan) error {
		return fn(p, n)
	})
	if err != nil {
		api.Error(w, err)
		return
	}

	h.autosave.Persist(r.Context())

	api.JSON(w, http.StatusOK, api.ToPlanResponse(id, p))
}

func decodePayment(w http.ResponseWriter, r *http.Request) (paymentRequest, bool) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return req, false
	}

	return req, true
}

// paymentDate defaults to today.
func paymentDate(s string) (time.Time, error) {
	if s == "" {
		return plan.Today(), nil
	}

	return api.ParseDate(s)
}
