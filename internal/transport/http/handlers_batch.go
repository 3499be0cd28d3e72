package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"unicred/internal/batch"
	"unicred/internal/directory"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/models"
	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/platform/httputil"
)

// BatchService is the slice of the batch processor the HTTP layer needs.
type BatchService interface {
	CreateBatch(ctx context.Context, credType models.CredentialType, filter directory.Filter, metadata builder.Metadata, notes string) (*batch.Job, error)
	ProcessChunk(ctx context.Context, batchID string, chunkSize int) (*batch.ProgressReport, error)
	GetBatch(ctx context.Context, batchID string) (*batch.Job, []batch.LogEntry, error)
	ListBatches(ctx context.Context) ([]batch.Job, error)
}

// BatchHandler serves bulk issuance.
type BatchHandler struct {
	batches BatchService
	logger  *slog.Logger
}

func NewBatchHandler(batches BatchService, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{batches: batches, logger: logger}
}

type createBatchRequest struct {
	Type     string           `json:"type"`
	Filter   directory.Filter `json:"filter"`
	Metadata builder.Metadata `json:"metadata,omitempty"`
	Notes    string           `json:"notes,omitempty"`
}

func (h *BatchHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createBatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Type == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "type is required"))
		return
	}

	job, err := h.batches.CreateBatch(r.Context(), models.CredentialType(req.Type), req.Filter, req.Metadata, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, job)
}

type processRequest struct {
	ChunkSize int `json:"chunkSize,omitempty"`
}

func (h *BatchHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	// The body is optional; absent or empty means the configured chunk size.
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return
	}

	report, err := h.batches.ProcessChunk(r.Context(), chi.URLParam(r, "batchID"), req.ChunkSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *BatchHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	job, entries, err := h.batches.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"batch":   job,
		"entries": entries,
	})
}

func (h *BatchHandler) handleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.batches.ListBatches(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"batches": jobs,
		"count":   len(jobs),
	})
}
