// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services, and encode; business rules stay out of this package.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unicred/pkg/platform/httputil"
	authmw "unicred/pkg/platform/middleware/auth"
	"unicred/pkg/platform/middleware/metadata"
	"unicred/pkg/platform/middleware/ratelimit"
	requestmw "unicred/pkg/platform/middleware/request"
)

// RouterOption adds optional surface to the router.
type RouterOption func(*routerConfig)

type routerConfig struct {
	auth  *AuthHandler
	onest *OnestHandler
}

// WithTokenEndpoint exposes POST /auth/token backed by the given handler.
func WithTokenEndpoint(h *AuthHandler) RouterOption {
	return func(rc *routerConfig) {
		rc.auth = h
	}
}

// WithOnestEndpoints exposes the ONEST network surface under /onest.
func WithOnestEndpoints(h *OnestHandler) RouterOption {
	return func(rc *routerConfig) {
		rc.onest = h
	}
}

// NewRouter wires all endpoints. Verification and health are public; the
// issuance and batch surface sits behind bearer-token auth.
func NewRouter(vc VCService, batches BatchService, validator authmw.JWTValidator, logger *slog.Logger, opts ...RouterOption) http.Handler {
	var rc routerConfig
	for _, opt := range opts {
		opt(&rc)
	}

	vcHandler := NewVCHandler(vc, logger)
	batchHandler := NewBatchHandler(batches, logger)

	r := chi.NewRouter()
	r.Use(requestmw.ID)
	r.Use(requestmw.Time)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Verification is public, so it carries a per-IP limit.
	verifyLimiter := ratelimit.New(120, time.Minute, logger)
	r.With(verifyLimiter.Middleware).Post("/vc/verify", vcHandler.handleVerify)

	if rc.auth != nil {
		tokenLimiter := ratelimit.New(10, time.Minute, logger)
		r.With(tokenLimiter.Middleware).Post("/auth/token", rc.auth.handleToken)
	}

	// The ONEST surface is public like verify and carries the same limit.
	if rc.onest != nil {
		onestLimiter := ratelimit.New(120, time.Minute, logger)
		r.Route("/onest", func(or chi.Router) {
			or.Use(onestLimiter.Middleware)
			or.Post("/discover", rc.onest.handleDiscover)
			or.Post("/verify", rc.onest.handleVerify)
			or.Post("/search", rc.onest.handleSearch)
		})
	}

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.RequireAuth(validator, logger))

		pr.Post("/vc/issue", vcHandler.handleIssue)
		pr.Get("/vc/{credentialID}", vcHandler.handleGet)
		pr.Post("/vc/{credentialID}/revoke", vcHandler.handleRevoke)
		pr.Get("/students/{studentID}/credentials", vcHandler.handleListByStudent)
		pr.Get("/issuer/did", vcHandler.handleDID)

		pr.Post("/batches", batchHandler.handleCreate)
		pr.Post("/batches/{batchID}/process", batchHandler.handleProcess)
		pr.Get("/batches", batchHandler.handleList)
		pr.Get("/batches/{batchID}", batchHandler.handleGet)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
