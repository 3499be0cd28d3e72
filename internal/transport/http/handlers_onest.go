package httptransport

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"unicred/internal/credential"
	"unicred/internal/onest"
	"unicred/internal/vc/models"
	"unicred/pkg/platform/httputil"
)

const onestCatalogName = "Academic Credentials Catalog"

// OnestHandler serves the ONEST network surface: synchronous discovery and
// verification plus the asynchronous Beckn search flow, where the catalog is
// delivered as a signed on_search callback to the requesting BAP.
type OnestHandler struct {
	store      credential.Store
	client     *onest.Client
	queue      *onest.Queue
	providerID string
	logger     *slog.Logger
	clock      func() time.Time
}

func NewOnestHandler(store credential.Store, client *onest.Client, queue *onest.Queue, providerID string, logger *slog.Logger) *OnestHandler {
	return &OnestHandler{
		store:      store,
		client:     client,
		queue:      queue,
		providerID: providerID,
		logger:     logger,
		clock:      time.Now,
	}
}

// onestContext is the static network context echoed on synchronous replies.
func (h *OnestHandler) onestContext() map[string]any {
	return map[string]any{
		"domain":      "education.credentials",
		"country":     "IN",
		"city":        "Hubli",
		"provider_id": h.providerID,
	}
}

// writeOnestError writes the ONEST error envelope, which differs from the
// service's own error body.
func writeOnestError(w http.ResponseWriter, status int, errType, code, message string) {
	httputil.WriteJSON(w, status, map[string]any{
		"success": false,
		"error": map[string]string{
			"type":    errType,
			"code":    code,
			"message": message,
		},
	})
}

func catalogItem(rec credential.Record) map[string]any {
	return map[string]any{
		"credential_id":   rec.CredentialID,
		"credential_type": string(rec.Type),
		"issuer": map[string]string{
			"id":   rec.IssuerDID,
			"name": rec.IssuerName,
		},
		"issued_date":      rec.IssuedAt.UTC().Format(time.RFC3339),
		"verification_url": fmt.Sprintf("/vc/%s", rec.CredentialID),
	}
}

type discoverRequest struct {
	StudentID      string `json:"student_id"`
	CredentialType string `json:"credential_type"`
	IssuerID       string `json:"issuer_id"`
}

func (h *OnestHandler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[discoverRequest](w, r, h.logger)
	if !ok {
		return
	}

	records, err := h.store.Search(r.Context(), credential.SearchFilter{
		StudentID: req.StudentID,
		Type:      models.CredentialType(req.CredentialType),
		IssuerDID: req.IssuerID,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "onest discovery search", "error", err)
		writeOnestError(w, http.StatusInternalServerError, "PROCESSING_ERROR", "SEARCH_FAILED", "credential search failed")
		return
	}

	items := make([]any, 0, len(records))
	for _, rec := range records {
		items = append(items, catalogItem(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"context": h.onestContext(),
		"message": map[string]any{
			"credentials": items,
			"count":       len(items),
		},
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}

type onestVerifyRequest struct {
	CredentialID string `json:"credential_id"`
}

func (h *OnestHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[onestVerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.CredentialID == "" {
		writeOnestError(w, http.StatusBadRequest, "REQUEST_ERROR", "MANDATORY_PARAMETER_MISSING", "credential_id is required")
		return
	}

	rec, err := h.store.Get(r.Context(), req.CredentialID)
	if err != nil {
		writeOnestError(w, http.StatusNotFound, "RESOURCE_ERROR", "CREDENTIAL_NOT_FOUND", "Credential not found")
		return
	}

	hasProof := rec.ProofValue != ""
	status := "verified"
	if !hasProof {
		status = "invalid"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"context": h.onestContext(),
		"message": map[string]any{
			"verification": map[string]any{
				"valid":           hasProof && !rec.Revoked,
				"status":          status,
				"credential_id":   rec.CredentialID,
				"credential_type": string(rec.Type),
				"issuer": map[string]string{
					"id":   rec.IssuerDID,
					"name": rec.IssuerName,
				},
				"issued_date":            rec.IssuedAt.UTC().Format(time.RFC3339),
				"is_revoked":             rec.Revoked,
				"verification_timestamp": h.clock().UTC().Format(time.RFC3339),
			},
		},
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}

type searchRequest struct {
	Context map[string]any `json:"context"`
	Message struct {
		Intent struct {
			StudentID      string `json:"student_id"`
			CredentialType string `json:"credential_type"`
		} `json:"intent"`
	} `json:"message"`
}

// handleSearch acknowledges a Beckn search and hands the catalog callback to
// the queue; the BAP receives the signed on_search at its bap_uri.
func (h *OnestHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[searchRequest](w, r, h.logger)
	if !ok {
		return
	}
	bapURI, _ := req.Context["bap_uri"].(string)
	if bapURI == "" {
		writeOnestError(w, http.StatusBadRequest, "CONTEXT_ERROR", "INVALID_CONTEXT", "context.bap_uri is required")
		return
	}

	records, err := h.store.Search(r.Context(), credential.SearchFilter{
		StudentID: req.Message.Intent.StudentID,
		Type:      models.CredentialType(req.Message.Intent.CredentialType),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "onest search", "error", err)
		writeOnestError(w, http.StatusInternalServerError, "PROCESSING_ERROR", "SEARCH_FAILED", "credential search failed")
		return
	}
	items := make([]any, 0, len(records))
	for _, rec := range records {
		items = append(items, catalogItem(rec))
	}

	body, err := h.client.OnSearchBody(req.Context, onestCatalogName, items)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "building on_search body", "error", err)
		writeOnestError(w, http.StatusInternalServerError, "PROCESSING_ERROR", "CALLBACK_BUILD_FAILED", "could not build on_search")
		return
	}
	if err := h.queue.Enqueue(onest.Task{
		TargetURL: bapURI + "/on_search",
		Action:    "on_search",
		Body:      body,
	}); err != nil {
		h.logger.WarnContext(r.Context(), "enqueueing on_search", "bap_uri", bapURI, "error", err)
		writeOnestError(w, http.StatusServiceUnavailable, "PROCESSING_ERROR", "CALLBACK_QUEUE_FULL", "callback queue is full")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": map[string]any{
			"ack": map[string]string{"status": "ACK"},
		},
	})
}
