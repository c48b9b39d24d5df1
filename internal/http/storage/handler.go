package storage

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Handler struct {
	svc *plan.Service
}

func NewHandler(svc *plan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.status)
	r.Post("/save", h.save)
	r.Post("/load", h.load)
}

type statusResponse struct {
	Plans             int  `json:"plans"`
	HasUnsavedChanges bool `json:"has_unsaved_changes"`
}

type resultResponse struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors"`
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	api.JSON(w, http.StatusOK, statusResponse{
		Plans:             h.svc.Len(),
		HasUnsavedChanges: h.svc.HasUnsavedChanges(),
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	saved, errs := h.svc.SaveAll(r.Context())
	respond(w, saved, errs)
}

// load reads stored plans and flags installments that fell overdue since they were saved.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	loaded, errs := h.svc.LoadAll(r.Context())
	h.svc.UpdateOverdueStatus(plan.Today())

	respond(w, loaded, errs)
}

// respond answers 207 when some plans failed and others did not, 500 when nothing succeeded.
func respond(w http.ResponseWriter, count int, errs []string) {
	status := http.StatusOK

	switch {
	case len(errs) > 0 && count > 0:
		status = http.StatusMultiStatus
	case len(errs) > 0:
		status = http.StatusInternalServerError
	}

	if errs == nil {
		errs = []string{}
	}

	api.JSON(w, status, resultResponse{Count: count, Errors: errs})
}
