// internal/server/router.go
package server

import (
	"net/http"

	"rextra/internal/assessment"
	"rextra/internal/entitlement"
	"rextra/internal/ledger"
	"rextra/internal/membership"
	"rextra/internal/navigation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers are the domain handlers mounted under /api/v1.
type Handlers struct {
	Membership   *membership.Handler
	Entitlements *entitlement.Handler
	Ledger       *ledger.Handler
	Assessments  *assessment.Handler
}

// NewRouter builds the HTTP router for the admin service.
func NewRouter(logger *zap.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(Tracing)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		navigation.Routes(r)
		h.Membership.Routes(r)
		h.Entitlements.Routes(r)
		h.Ledger.Routes(r)
		h.Assessments.Routes(r)
	})

	return r
}
