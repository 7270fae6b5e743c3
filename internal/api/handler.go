// Package api provides the HTTP surface of the health analysis service.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/reviewrise/healthscan/internal/analysis"
	"github.com/reviewrise/healthscan/internal/fetcher"
	"github.com/reviewrise/healthscan/internal/snapshot"
	"github.com/reviewrise/healthscan/internal/types"
)

// Analyzer runs one health analysis per call. Satisfied by
// *analysis.Orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*analysis.Result, error)
}

// SnapshotReader serves persisted snapshot queries. Satisfied by
// *snapshot.Store.
type SnapshotReader interface {
	FindLatest(ctx context.Context, url string) (*types.HealthSnapshot, error)
	Count(ctx context.Context, url string) (int64, error)
	History(ctx context.Context, url string, limit int) ([]types.HealthSnapshot, error)
}

// Handler manages the API endpoints.
type Handler struct {
	analyzer       Analyzer
	snapshots      SnapshotReader
	maxBodySize    int64
	analyzeTimeout time.Duration
}

// AnalyzeRequest is the inbound analyze payload.
type AnalyzeRequest struct {
	// URL is the absolute page URL to analyze
	URL string `json:"url"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// handleHealth returns the service health status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "healthscan",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAnalyze runs a full health analysis for the requested URL.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req AnalyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, requestID, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())
		return
	}

	if req.URL == "" {
		respondError(w, requestID, http.StatusBadRequest, errCodeValidation, ErrURLRequired.Error())
		return
	}

	ctx := r.Context()
	if h.analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.analyzeTimeout)
		defer cancel()
	}

	result, err := h.analyzer.Analyze(ctx, req.URL)
	if err != nil {
		status, code := analyzeErrorStatus(err)
		respondError(w, requestID, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success:         true,
		RequestID:       requestID,
		Persisted:       result.Persisted,
		PersistError:    result.PersistError,
		AdvisorDegraded: result.AdvisorDegraded,
		Data:            result.Snapshot,
	})
}

// analyzeErrorStatus maps an analysis failure to an HTTP status and
// normalized error code, keeping "could not compute" distinguishable
// from "computed but could not save".
func analyzeErrorStatus(err error) (int, string) {
	var analysisErr *analysis.AnalysisError
	if !errors.As(err, &analysisErr) {
		return http.StatusInternalServerError, errCodeInternal
	}

	switch analysisErr.Kind {
	case analysis.KindInvalidURL:
		return http.StatusBadRequest, errCodeValidation
	case analysis.KindPersistence:
		return http.StatusInternalServerError, errCodePersistence
	case analysis.KindCanceled:
		// the per-request analyze deadline is the only cancellation source
		// whose response anyone still reads
		return http.StatusGatewayTimeout, errCodeTimeout
	default:
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Timeout() {
			return http.StatusGatewayTimeout, errCodeTimeout
		}
		return http.StatusBadGateway, errCodeFetchFailed
	}
}

// handleLatestSnapshot returns the most recent snapshot for a URL.
func (h *Handler) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	if h.snapshots == nil {
		respondError(w, requestID, http.StatusServiceUnavailable, errCodeUnavailable, ErrStoreNotConfigured.Error())
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, requestID, http.StatusBadRequest, errCodeValidation, ErrURLRequired.Error())
		return
	}

	snap, err := h.snapshots.FindLatest(r.Context(), url)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			respondError(w, requestID, http.StatusNotFound, errCodeNotFound, err.Error())
			return
		}
		respondError(w, requestID, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success:   true,
		RequestID: requestID,
		Persisted: true,
		Data:      snap,
	})
}

// CountResponse reports how many snapshots exist for a URL (or overall).
type CountResponse struct {
	URL   string `json:"url,omitempty"`
	Count int64  `json:"count"`
}

// handleSnapshotCount returns the snapshot count, optionally scoped to a URL.
func (h *Handler) handleSnapshotCount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	if h.snapshots == nil {
		respondError(w, requestID, http.StatusServiceUnavailable, errCodeUnavailable, ErrStoreNotConfigured.Error())
		return
	}

	url := r.URL.Query().Get("url")

	count, err := h.snapshots.Count(r.Context(), url)
	if err != nil {
		respondError(w, requestID, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success:   true,
		RequestID: requestID,
		Data:      CountResponse{URL: url, Count: count},
	})
}

// handleHistory returns snapshots for a URL, newest first.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	if h.snapshots == nil {
		respondError(w, requestID, http.StatusServiceUnavailable, errCodeUnavailable, ErrStoreNotConfigured.Error())
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, requestID, http.StatusBadRequest, errCodeValidation, ErrURLRequired.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, requestID, http.StatusBadRequest, errCodeValidation, ErrInvalidLimit.Error())
			return
		}
		limit = parsed
	}

	history, err := h.snapshots.History(r.Context(), url, limit)
	if err != nil {
		respondError(w, requestID, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success:   true,
		RequestID: requestID,
		Data:      history,
	})
}
