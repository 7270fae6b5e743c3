package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reviewrise/healthscan/internal/analysis"
	"github.com/reviewrise/healthscan/internal/fetcher"
	"github.com/reviewrise/healthscan/internal/snapshot"
	"github.com/reviewrise/healthscan/internal/types"
)

type mockAnalyzer struct {
	result  *analysis.Result
	err     error
	lastURL string
}

func (m *mockAnalyzer) Analyze(_ context.Context, url string) (*analysis.Result, error) {
	m.lastURL = url

	if m.err != nil {
		return nil, m.err
	}

	return m.result, nil
}

type mockSnapshots struct {
	latest    *types.HealthSnapshot
	latestErr error
	count     int64
	countErr  error
	history   []types.HealthSnapshot
	lastLimit int
}

func (m *mockSnapshots) FindLatest(_ context.Context, _ string) (*types.HealthSnapshot, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockSnapshots) Count(_ context.Context, _ string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockSnapshots) History(_ context.Context, _ string, limit int) ([]types.HealthSnapshot, error) {
	m.lastLimit = limit
	return m.history, nil
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Snapshot: &types.HealthSnapshot{
			ID:             "snap-1",
			URL:            "https://acme.test/",
			HealthScore:    72.5,
			WeightsVersion: "2024-09",
			CategoryScores: []types.CategoryScore{
				{Category: types.CategoryTechnical, Score: 80},
			},
			Recommendations: []types.Recommendation{
				{Category: types.CategoryTechnical, Priority: types.PriorityHigh, Title: "Add a meta description"},
			},
			CreatedAt: time.Now().UTC(),
		},
		Persisted: true,
	}
}

func serveRequest(t *testing.T, cfg RouterConfig, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rec, req)

	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response envelope: %v (body: %s)", err, rec.Body.String())
	}

	return env
}

func TestHandleHealth(t *testing.T) {
	rec := serveRequest(t, RouterConfig{}, http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}

	if resp.Status != "healthy" || resp.Service != "healthscan" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHandleAnalyze(t *testing.T) {
	analyzer := &mockAnalyzer{result: sampleResult()}
	cfg := RouterConfig{Analyzer: analyzer}

	rec := serveRequest(t, cfg, http.MethodPost, "/api/analyze", `{"url": "https://acme.test/"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)

	if !env.Success || !env.Persisted {
		t.Errorf("unexpected envelope: %+v", env)
	}

	if env.RequestID == "" {
		t.Error("request id not echoed")
	}

	if analyzer.lastURL != "https://acme.test/" {
		t.Errorf("analyzer called with %q", analyzer.lastURL)
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "invalid json", body: `{"url":`, wantCode: errCodeInvalidRequest},
		{name: "unknown field", body: `{"url": "https://acme.test/", "depth": 3}`, wantCode: errCodeInvalidRequest},
		{name: "trailing object", body: `{"url": "https://acme.test/"}{"url": "x"}`, wantCode: errCodeInvalidRequest},
		{name: "missing url", body: `{}`, wantCode: errCodeValidation},
		{name: "empty url", body: `{"url": ""}`, wantCode: errCodeValidation},
	}

	cfg := RouterConfig{Analyzer: &mockAnalyzer{result: sampleResult()}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveRequest(t, cfg, http.MethodPost, "/api/analyze", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tc.wantCode {
				t.Errorf("error = %+v, want code %q", env.Error, tc.wantCode)
			}
		})
	}
}

func TestHandleAnalyze_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid url",
			err:        &analysis.AnalysisError{Kind: analysis.KindInvalidURL, Err: fetcher.ErrInvalidURL},
			wantStatus: http.StatusBadRequest,
			wantCode:   errCodeValidation,
		},
		{
			name:       "fetch timeout",
			err:        &analysis.AnalysisError{Kind: analysis.KindFetch, Err: &fetcher.FetchError{URL: "https://slow.test/", Reason: fetcher.ReasonTimeout}},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   errCodeTimeout,
		},
		{
			name:       "fetch failure",
			err:        &analysis.AnalysisError{Kind: analysis.KindFetch, Err: &fetcher.FetchError{URL: "https://down.test/", Reason: fetcher.ReasonDNS}},
			wantStatus: http.StatusBadGateway,
			wantCode:   errCodeFetchFailed,
		},
		{
			name:       "deadline exceeded mid-run",
			err:        &analysis.AnalysisError{Kind: analysis.KindCanceled, Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   errCodeTimeout,
		},
		{
			name:       "persistence failure",
			err:        &analysis.AnalysisError{Kind: analysis.KindPersistence, Err: errors.New("disk full")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   errCodePersistence,
		},
		{
			name:       "unclassified failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errCodeInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := RouterConfig{Analyzer: &mockAnalyzer{err: tc.err}}
			rec := serveRequest(t, cfg, http.MethodPost, "/api/analyze", `{"url": "https://acme.test/"}`)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tc.wantCode {
				t.Errorf("error = %+v, want code %q", env.Error, tc.wantCode)
			}
		})
	}
}

func TestHandleAnalyze_UnpersistedResult(t *testing.T) {
	result := sampleResult()
	result.Persisted = false
	result.PersistError = "disk full"
	result.AdvisorDegraded = true

	cfg := RouterConfig{Analyzer: &mockAnalyzer{result: result}}
	rec := serveRequest(t, cfg, http.MethodPost, "/api/analyze", `{"url": "https://acme.test/"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	env := decodeEnvelope(t, rec)

	if env.Persisted {
		t.Error("persisted should be false")
	}
	if env.PersistError != "disk full" {
		t.Errorf("persist_error = %q", env.PersistError)
	}
	if !env.AdvisorDegraded {
		t.Error("advisor_degraded should be true")
	}

	// persisted:false must be present in the payload, not omitted
	if !strings.Contains(rec.Body.String(), `"persisted":false`) {
		t.Errorf("response must carry an explicit persisted field: %s", rec.Body.String())
	}
}

func TestHandleAnalyze_BodySizeCap(t *testing.T) {
	cfg := RouterConfig{
		Analyzer:    &mockAnalyzer{result: sampleResult()},
		MaxBodySize: 32,
	}

	oversized := `{"url": "https://acme.test/` + strings.Repeat("a", 100) + `"}`
	rec := serveRequest(t, cfg, http.MethodPost, "/api/analyze", oversized)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized body", rec.Code)
	}
}

func TestHandleLatestSnapshot(t *testing.T) {
	snapshots := &mockSnapshots{latest: sampleResult().Snapshot}
	cfg := RouterConfig{Snapshots: snapshots}

	rec := serveRequest(t, cfg, http.MethodGet, "/api/snapshots/latest?url=https://acme.test/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.Data == nil {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestHandleLatestSnapshot_Errors(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		cfg := RouterConfig{Snapshots: &mockSnapshots{}}
		rec := serveRequest(t, cfg, http.MethodGet, "/api/snapshots/latest", "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		cfg := RouterConfig{Snapshots: &mockSnapshots{latestErr: snapshot.ErrNotFound}}
		rec := serveRequest(t, cfg, http.MethodGet, "/api/snapshots/latest?url=https://acme.test/", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}

		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != errCodeNotFound {
			t.Errorf("error = %+v, want code %q", env.Error, errCodeNotFound)
		}
	})

	t.Run("store not configured", func(t *testing.T) {
		rec := serveRequest(t, RouterConfig{}, http.MethodGet, "/api/snapshots/latest?url=https://acme.test/", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestHandleSnapshotCount(t *testing.T) {
	cfg := RouterConfig{Snapshots: &mockSnapshots{count: 7}}

	rec := serveRequest(t, cfg, http.MethodGet, "/api/snapshots/count?url=https://acme.test/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data CountResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding count response: %v", err)
	}

	if resp.Data.Count != 7 {
		t.Errorf("count = %d, want 7", resp.Data.Count)
	}
}

func TestHandleHistory(t *testing.T) {
	snapshots := &mockSnapshots{history: []types.HealthSnapshot{*sampleResult().Snapshot}}
	cfg := RouterConfig{Snapshots: snapshots}

	rec := serveRequest(t, cfg, http.MethodGet, "/api/history?url=https://acme.test/&limit=5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if snapshots.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", snapshots.lastLimit)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestHandleHistory_InvalidLimit(t *testing.T) {
	cfg := RouterConfig{Snapshots: &mockSnapshots{}}

	for _, limit := range []string{"abc", "0", "-3"} {
		rec := serveRequest(t, cfg, http.MethodGet, "/api/history?url=https://acme.test/&limit="+limit, "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestHeartbeat(t *testing.T) {
	rec := serveRequest(t, RouterConfig{}, http.MethodGet, "/ping", "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
