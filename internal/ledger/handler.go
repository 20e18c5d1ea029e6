// internal/ledger/handler.go
package ledger

import (
	"errors"
	"net/http"
	"time"

	"rextra/internal/paging"
	"rextra/internal/render"

	"github.com/go-chi/chi/v5"
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
	r.Get("/ledger", h.handleList)
	r.Post("/ledger", h.handleRecord)
	r.Get("/ledger/summary", h.handleSummary)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		render.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.service.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		render.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := h.service.Summary(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		UserName string `json:"user_name"`
		Kind     Kind   `json:"kind"`
		Amount   int64  `json:"amount"`
		Reason   string `json:"reason"`
		Feature  string `json:"feature"`
	}
	if err := render.Decode(r, &req); err != nil || req.UserID == "" {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}

	e, err := h.service.Record(r.Context(), req.UserID, req.UserName, req.Kind, req.Amount, req.Reason, req.Feature)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusCreated, e)
}

// parseQuery accepts from/to as RFC 3339 timestamps or plain dates.
func parseQuery(r *http.Request) (Query, error) {
	v := r.URL.Query()
	q := Query{UserID: v.Get("user_id"), Kind: Kind(v.Get("kind")), Request: paging.FromQuery(r)}

	var err error
	if q.From, err = parseTime(v.Get("from")); err != nil {
		return q, errors.New("invalid from")
	}
	if q.To, err = parseTime(v.Get("to")); err != nil {
		return q, errors.New("invalid to")
	}
	return q, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidKind):
		render.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		render.Error(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("ledger request failed", zap.Error(err))
		render.Error(w, http.StatusInternalServerError, "internal_error")
	}
}
