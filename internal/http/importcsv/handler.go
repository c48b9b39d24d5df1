package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/importer"
	"github.com/MrJamesThe3rd/piggy/internal/matching"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

type Handler struct {
	importSvc *importer.Service
	planSvc   *plan.Service
	matchSvc  *matching.Service
	autosave  *api.Autosave
}

func NewHandler(
	importSvc *importer.Service,
	planSvc *plan.Service,
	matchSvc *matching.Service,
	autosave *api.Autosave,
) *Handler {
	return &Handler{
		importSvc: importSvc,
		planSvc:   planSvc,
		matchSvc:  matchSvc,
		autosave:  autosave,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported int                `json:"imported"`
	Plans    []api.PlanResponse `json:"plans"`
}

type conflictDTO struct {
	Incoming *plan.Plan       `json:"incoming"`
	Existing api.PlanResponse `json:"existing"`
}

// importConflictResponse carries the parsed plans in their stored document form so the client
// can send the ones it wants back to /confirm.
type importConflictResponse struct {
	New       []*plan.Plan  `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type confirmRequest struct {
	Plans []*plan.Plan `json:"plans"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	format := importer.Format(r.FormValue("format"))

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	plans, err := h.importSvc.Import(format, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.matchSvc != nil {
		if _, err := h.matchSvc.Apply(r.Context(), plans); err != nil {
			slog.Warn("failed to apply merchant aliases", "error", err)
		}
	}

	result := h.planSvc.ImportBatch(plans)

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]*plan.Plan, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		resp.New = append(resp.New, result.New...)

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: c.Incoming,
				Existing: api.ToPlanResponse(c.Existing.ID, c.Existing.Plan),
			})
		}

		api.JSON(w, http.StatusConflict, resp)

		return
	}

	h.autosave.Persist(r.Context())

	api.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	plans := slices.DeleteFunc(req.Plans, func(p *plan.Plan) bool { return p == nil })
	if len(plans) == 0 {
		http.Error(w, "plans field is required", http.StatusBadRequest)
		return
	}

	entries := h.planSvc.AddBatch(plans)

	h.autosave.Persist(r.Context())

	api.JSON(w, http.StatusCreated, toSuccessResponse(entries))
}

func toSuccessResponse(entries []plan.Entry) importSuccessResponse {
	return importSuccessResponse{
		Imported: len(entries),
		Plans:    api.ToPlanResponseList(entries),
	}
}
