package matching

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	MerchantName  string `json:"merchant_name"`
	PreferredName string `json:"preferred_name"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	merchant := r.URL.Query().Get("merchant_name")
	if merchant == "" {
		http.Error(w, "merchant_name query parameter is required", http.StatusBadRequest)
		return
	}

	preferred, err := h.svc.Suggest(r.Context(), merchant)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.JSON(w, http.StatusOK, suggestResponse{
		MerchantName:  merchant,
		PreferredName: preferred,
	})
}

type learnRequest struct {
	RawPattern    string `json:"raw_pattern"`
	PreferredName string `json:"preferred_name"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Learn(r.Context(), req.RawPattern, req.PreferredName); err != nil {
		api.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
