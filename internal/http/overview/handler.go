package overview

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/piggy/internal/analytics"
	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Handler struct {
	svc          *plan.Service
	upcomingDays int
	periods      []int
}

func NewHandler(svc *plan.Service, upcomingDays int, periods []int) *Handler {
	return &Handler{svc: svc, upcomingDays: upcomingDays, periods: periods}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.overview)
}

type periodTotalResponse struct {
	Days  int    `json:"days"`
	Total string `json:"total"`
}

type statisticsResponse struct {
	TotalPlans              int                   `json:"total_plans"`
	FullyPaidCount          int                   `json:"fully_paid_count"`
	TotalPaid               string                `json:"total_paid"`
	TotalRemaining          string                `json:"total_remaining"`
	TotalUnpaidInstallments int                   `json:"total_unpaid_installments"`
	OverdueTotal            string                `json:"overdue_total"`
	DueTodayTotal           string                `json:"due_today_total"`
	PeriodTotals            []periodTotalResponse `json:"period_totals"`
}

type dateGroupResponse struct {
	Date     string                `json:"date"`
	Payments []api.PaymentResponse `json:"payments"`
}

type overviewResponse struct {
	Today         string                `json:"today"`
	Overdue       []api.PaymentResponse `json:"overdue"`
	DueToday      []api.PaymentResponse `json:"due_today"`
	Upcoming      []api.PaymentResponse `json:"upcoming"`
	Future        []api.PaymentResponse `json:"future"`
	UpcomingDates []dateGroupResponse   `json:"upcoming_by_date"`
	Statistics    statisticsResponse    `json:"statistics"`
}

// overview accepts the plan filter parameters plus upcoming_days and as_of overrides.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := api.ParseFilter(q)
	if err != nil {
		api.Error(w, err)
		return
	}

	upcoming := h.upcomingDays

	if s := q.Get("upcoming_days"); s != "" {
		if upcoming, err = strconv.Atoi(s); err != nil || upcoming < 0 {
			http.Error(w, "upcoming_days must be a non-negative integer", http.StatusBadRequest)
			return
		}
	}

	today := plan.Today()

	if s := q.Get("as_of"); s != "" {
		if today, err = api.ParseDate(s); err != nil {
			api.Error(w, err)
			return
		}
	}

	ov := analytics.BuildOverview(filter.Apply(h.svc.List()), today, upcoming, h.periods)

	api.JSON(w, http.StatusOK, toResponse(ov))
}

func toResponse(ov analytics.Overview) overviewResponse {
	stats := ov.Stats

	resp := overviewResponse{
		Today:    ov.Today.Format(time.DateOnly),
		Overdue:  api.ToPaymentResponseList(ov.Payments.Overdue),
		DueToday: api.ToPaymentResponseList(ov.Payments.DueToday),
		Upcoming: api.ToPaymentResponseList(ov.Payments.Upcoming),
		Future:   api.ToPaymentResponseList(ov.Payments.Future),
		Statistics: statisticsResponse{
			TotalPlans:              stats.TotalPlans,
			FullyPaidCount:          stats.FullyPaidCount,
			TotalPaid:               plan.FormatAmount(stats.TotalPaid),
			TotalRemaining:          plan.FormatAmount(stats.TotalRemaining),
			TotalUnpaidInstallments: stats.TotalUnpaidInstallments,
			OverdueTotal:            plan.FormatAmount(stats.OverdueTotal),
			DueTodayTotal:           plan.FormatAmount(stats.DueTodayTotal),
			PeriodTotals:            make([]periodTotalResponse, 0, len(stats.PeriodTotals)),
		},
	}

	for _, pt := range stats.PeriodTotals {
		resp.Statistics.PeriodTotals = append(resp.Statistics.PeriodTotals, periodTotalResponse{
			Days:  pt.Days,
			Total: plan.FormatAmount(pt.Total),
		})
	}

	for _, g := range analytics.GroupPaymentsByDate(ov.Payments.Upcoming) {
		resp.UpcomingDates = append(resp.UpcomingDates, dateGroupResponse{
			Date:     g.Date.Format(time.DateOnly),
			Payments: api.ToPaymentResponseList(g.Payments),
		})
	}

	return resp
}
