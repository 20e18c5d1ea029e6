// internal/assessment/handler.go
package assessment

import (
	"errors"
	"net/http"
	"time"

	"rextra/internal/paging"
	"rextra/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/assessments", h.handleList)
	r.Delete("/assessments", h.handleDelete)
	r.Get("/assessments/export", h.handleExport)
	r.Get("/dashboard/stats", h.handleStats)
}

func queryFrom(r *http.Request) Query {
	v := r.URL.Query()
	return Query{
		Search:  v.Get("search"),
		Status:  Status(v.Get("status")),
		Test:    v.Get("test"),
		Request: paging.FromQuery(r),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), queryFrom(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := render.Decode(r, &req); err != nil || len(req.IDs) == 0 {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if err := h.service.Delete(r.Context(), req.IDs...); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="assessments.csv"`)
	if err := h.service.Export(r.Context(), w, queryFrom(r)); err != nil {
		// Headers are gone by now; all we can do is log.
		h.logger.Error("assessment export failed", zap.Error(err))
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context(), h.now())
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, st)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrRecordNotFound) {
		render.Error(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("assessment request failed", zap.Error(err))
	render.Error(w, http.StatusInternalServerError, "internal_error")
}
