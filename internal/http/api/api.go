// Package api holds the pieces shared by the JSON handlers: error mapping, plan responses,
// filter query parsing and autosave.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error maps domain errors onto status codes. Anything unrecognised is logged and hidden behind a 500.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrValidation), errors.Is(err, plan.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, plan.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, plan.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Autosave persists the plan collection after a mutation when enabled.
type Autosave struct {
	plans   *plan.Service
	enabled bool
}

func NewAutosave(plans *plan.Service, enabled bool) *Autosave {
	return &Autosave{plans: plans, enabled: enabled}
}

// Persist saves every plan. Failures are logged, not returned.
func (a *Autosave) Persist(ctx context.Context) {
	if a == nil || !a.enabled {
		return
	}

	saved, errs := a.plans.SaveAll(ctx)
	for _, msg := range errs {
		slog.Error("autosave failed", "error", msg)
	}

	slog.Debug("autosave", "saved", saved, "errors", len(errs))
}
