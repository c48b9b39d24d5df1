package export

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/piggy/internal/export"
	"github.com/MrJamesThe3rd/piggy/internal/http/api"
	"github.com/MrJamesThe3rd/piggy/internal/plan"
)

const summaryFile = "summary.txt"

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.metadata)
	r.Get("/download", h.download)
}

type exportMetadataResponse struct {
	Plans   []api.PlanResponse `json:"plans"`
	Summary string             `json:"summary"`
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	tmpDir, err := os.MkdirTemp("", "piggy-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	items, ok := h.export(w, r, tmpDir)
	if !ok {
		return
	}

	plans := make([]api.PlanResponse, 0, len(items))
	for _, item := range items {
		plans = append(plans, api.ToPlanResponse(item.ID, item.Plan))
	}

	api.JSON(w, http.StatusOK, exportMetadataResponse{
		Plans:   plans,
		Summary: h.svc.GenerateSummary(items, plan.Today()),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	tmpDir, err := os.MkdirTemp("", "piggy-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	items, ok := h.export(w, r, tmpDir)
	if !ok {
		return
	}

	summary := h.svc.GenerateSummary(items, plan.Today())
	if err := os.WriteFile(filepath.Join(tmpDir, summaryFile), []byte(summary), 0o644); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"plans_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, dir string) ([]export.Item, bool) {
	filter, err := api.ParseFilter(r.URL.Query())
	if err != nil {
		api.Error(w, err)
		return nil, false
	}

	items, err := h.svc.Export(r.Context(), filter, dir)
	if err != nil {
		api.Error(w, err)
		return nil, false
	}

	return items, true
}
