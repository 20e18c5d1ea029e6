// internal/entitlement/handler.go
package entitlement

import (
	"errors"
	"net/http"
	"strconv"

	"rextra/internal/paging"
	"rextra/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/tiers/{tierID}/entitlements", h.handleList)
	r.Patch("/tiers/{tierID}/entitlements/{key}", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tierID, err := uuid.Parse(chi.URLParam(r, "tierID"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "invalid tierID")
		return
	}

	v := r.URL.Query()
	q := Query{
		Search:   v.Get("search"),
		Mode:     Mode(v.Get("mode")),
		Category: v.Get("category"),
		Sort:     v.Get("sort"),
		Request:  paging.FromQuery(r),
	}
	q.Desc, _ = strconv.ParseBool(v.Get("desc"))
	if raw := v.Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			render.Error(w, http.StatusBadRequest, "invalid enabled filter")
			return
		}
		q.Enabled = &enabled
	}

	page, err := h.service.List(r.Context(), tierID, q)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tierID, err := uuid.Parse(chi.URLParam(r, "tierID"))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "invalid tierID")
		return
	}

	var change Change
	if err := render.Decode(r, &change); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}

	te, err := h.service.Update(r.Context(), tierID, chi.URLParam(r, "key"), change)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, te)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTierNotFound), errors.Is(err, ErrEntitlementNotFound):
		render.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidEntitlement):
		render.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("entitlement request failed", zap.Error(err))
		render.Error(w, http.StatusInternalServerError, "internal_error")
	}
}
