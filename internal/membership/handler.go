// internal/membership/handler.go
package membership

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"rextra/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service  Service
	sessions *SessionManager
	logger   *zap.Logger
}

func NewHandler(service Service, sessions *SessionManager, logger *zap.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, logger: logger}
}

// Routes mounts the membership endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tiers", h.handleListTiers)
	r.Get("/tiers/{tierID}/config", h.handleGetConfig)
	r.Put("/tiers/{tierID}/config", h.handleSaveConfig)
	r.Get("/tiers/{tierID}/config/history", h.handleHistory)
	r.Post("/tiers/{tierID}/sessions", h.handleOpenSession)
	r.Post("/membership/preview", h.handlePreview)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Patch("/", h.handleApply)
		r.Post("/mode", h.handleSwitchMode)
		r.Post("/save", h.handleSave)
		r.Post("/discard", h.handleDiscard)
		r.Delete("/", h.handleClose)
	})
}

func (h *Handler) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, tiers)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	tierID, ok := urlUUID(w, r, "tierID")
	if !ok {
		return
	}
	tc, err := h.service.GetConfig(r.Context(), tierID)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, tc)
}

func (h *Handler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	tierID, ok := urlUUID(w, r, "tierID")
	if !ok {
		return
	}

	var req struct {
		Config          Config `json:"config"`
		ExpectedVersion int    `json:"expected_version"`
	}
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}

	tc, err := h.service.SaveConfig(r.Context(), tierID, req.Config, req.ExpectedVersion)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, tc)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	tierID, ok := urlUUID(w, r, "tierID")
	if !ok {
		return
	}
	revs, err := h.service.History(r.Context(), tierID)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, revs)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := render.Decode(r, &cfg); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	res, err := h.service.Preview(r.Context(), cfg)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	tierID, ok := urlUUID(w, r, "tierID")
	if !ok {
		return
	}
	s, err := h.sessions.Open(r.Context(), tierID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeSnapshot(w, r.Context(), s, http.StatusCreated)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var p Patch
	if err := render.Decode(r, &p); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if err := s.Apply(p); err != nil {
		h.fail(w, err)
		return
	}
	h.writeSnapshot(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Mode    Mode `json:"mode"`
		Confirm bool `json:"confirm"`
	}
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if req.Mode != ModeAuto && req.Mode != ModeManual {
		render.Error(w, http.StatusBadRequest, "unknown_mode")
		return
	}
	if err := s.SwitchMode(req.Mode, req.Confirm); err != nil {
		h.fail(w, err)
		return
	}
	h.writeSnapshot(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.Save(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	h.writeSnapshot(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Discard()
	h.writeSnapshot(w, r.Context(), s, http.StatusOK)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "sessionID")
	if !ok {
		return
	}
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.sessions.Close(id, confirm); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := urlUUID(w, r, "sessionID")
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, ctx context.Context, s *Session, code int) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	render.JSON(w, code, snap)
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		render.JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": verrs,
		})
	case errors.Is(err, ErrTierNotFound), errors.Is(err, ErrSessionNotFound):
		render.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrDiscardRequired):
		render.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSessionClosed):
		render.Error(w, http.StatusGone, err.Error())
	case errors.Is(err, ErrRateLimited):
		render.Error(w, http.StatusTooManyRequests, err.Error())
	default:
		h.logger.Error("membership request failed", zap.Error(err))
		render.Error(w, http.StatusInternalServerError, "internal_error")
	}
}

func urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		render.Error(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
