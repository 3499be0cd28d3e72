package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"unicred/internal/credential"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/models"
	vcservice "unicred/internal/vc/service"
	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/platform/httputil"
)

// VCService is the slice of the credential engine the HTTP layer needs.
type VCService interface {
	Issue(ctx context.Context, req vcservice.IssueRequest) (*credential.Record, error)
	Verify(ctx context.Context, document map[string]any) (*vcservice.VerifyResult, error)
	Get(ctx context.Context, credentialID string) (*credential.Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]credential.Record, error)
	Revoke(ctx context.Context, credentialID, reason string) error
	DID(ctx context.Context) (string, error)
}

// VCHandler serves single-credential issuance, lookup, and verification.
type VCHandler struct {
	vc     VCService
	logger *slog.Logger
}

func NewVCHandler(vc VCService, logger *slog.Logger) *VCHandler {
	return &VCHandler{vc: vc, logger: logger}
}

type issueRequest struct {
	StudentID string           `json:"studentId"`
	Type      string           `json:"type"`
	Semester  int              `json:"semester,omitempty"`
	Metadata  builder.Metadata `json:"metadata,omitempty"`
}

func (h *VCHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[issueRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.StudentID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "studentId is required"))
		return
	}
	credType := models.CredentialType(req.Type)
	if !credType.IsValid() {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unsupported credential type %q", req.Type))
		return
	}

	record, err := h.vc.Issue(r.Context(), vcservice.IssueRequest{
		StudentID: req.StudentID,
		Type:      credType,
		Semester:  req.Semester,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.logIssueFailure(r, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *VCHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	document, ok := httputil.Decode[map[string]any](w, r, h.logger)
	if !ok {
		return
	}
	if len(document) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "credential document is required"))
		return
	}

	result, err := h.vc.Verify(r.Context(), document)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *VCHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.vc.Get(r.Context(), chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *VCHandler) handleListByStudent(w http.ResponseWriter, r *http.Request) {
	records, err := h.vc.ListByStudent(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"credentials": records,
		"count":       len(records),
	})
}

type revokeRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *VCHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	// Reason is optional, so an empty body passes.
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return
	}
	credentialID := chi.URLParam(r, "credentialID")
	if err := h.vc.Revoke(r.Context(), credentialID, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"credentialId": credentialID,
		"status":       "revoked",
	})
}

func (h *VCHandler) handleDID(w http.ResponseWriter, r *http.Request) {
	did, err := h.vc.DID(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"did": did})
}

func (h *VCHandler) logIssueFailure(r *http.Request, err error) {
	if httputil.IsClientError(err) {
		h.logger.WarnContext(r.Context(), "issuance rejected", "error", err)
		return
	}
	h.logger.ErrorContext(r.Context(), "issuance failed", "error", err)
}
