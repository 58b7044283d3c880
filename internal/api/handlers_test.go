// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/batch"
	"github.com/cadencia/cadencia/internal/recommend"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

type mockRecommender struct {
	scores []recommend.RecommendationScore
	err    error

	lastTopK int
	lastReq  *recommend.Request
}

func (m *mockRecommender) RecommendMoves(_ context.Context, req *recommend.Request, topK int) ([]recommend.RecommendationScore, error) {
	m.lastReq, m.lastTopK = req, topK
	return m.scores, m.err
}

type mockCatalog struct {
	docs        []vectorstore.MoveDocument
	indexExists bool
	err         error

	lastFilters *vectorstore.Filters
}

func (m *mockCatalog) GetEmbeddingByID(_ context.Context, clipID string) (*vectorstore.MoveDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ClipID == clipID {
			return &m.docs[i], nil
		}
	}
	return nil, fmt.Errorf("clip %q: %w", clipID, vectorstore.ErrNotFound)
}

func (m *mockCatalog) GetAllEmbeddings(_ context.Context, filters *vectorstore.Filters) ([]vectorstore.MoveDocument, error) {
	m.lastFilters = filters
	return m.docs, m.err
}

func (m *mockCatalog) CountDocuments(context.Context) (int, error) {
	return len(m.docs), m.err
}

func (m *mockCatalog) IndexExists(context.Context) (bool, error) {
	return m.indexExists, m.err
}

type mockProcessor struct {
	results []batch.ClipResult
	err     error
}

func (m *mockProcessor) ProcessClips(_ context.Context, clips []batch.ClipSpec) ([]batch.ClipResult, error) {
	if m.results == nil {
		for _, c := range clips {
			m.results = append(m.results, batch.ClipResult{ClipID: c.ClipID, Indexed: true})
		}
	}
	return m.results, m.err
}

type mockArchiver struct {
	archive string
	restore *vectorstore.BulkResult
	err     error

	restoredBody []byte
}

func (m *mockArchiver) Export(_ context.Context, w io.Writer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n, _ := io.WriteString(w, m.archive)
	return n, nil
}

func (m *mockArchiver) Restore(_ context.Context, r io.Reader) (*vectorstore.BulkResult, error) {
	m.restoredBody, _ = io.ReadAll(r)
	if m.err != nil {
		return nil, m.err
	}
	return m.restore, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate() { m.calls++ }

type testServer struct {
	recommender *mockRecommender
	catalog     *mockCatalog
	processor   *mockProcessor
	archiver    *mockArchiver
	invalidator *mockInvalidator
	handler     http.Handler
}

func newTestServer() *testServer {
	s := &testServer{
		recommender: &mockRecommender{},
		catalog:     &mockCatalog{indexExists: true},
		processor:   &mockProcessor{},
		archiver:    &mockArchiver{archive: "{}", restore: &vectorstore.BulkResult{Indexed: 1}},
		invalidator: &mockInvalidator{},
	}
	logger := zerolog.New(io.Discard)
	h := NewHandler(s.recommender, s.catalog, s.processor, s.archiver, s.invalidator, logger)
	s.handler = NewRouter(h, MiddlewareConfig{CORSOrigins: []string{"*"}, RateLimitDisabled: true}, logger)
	return s
}

func (s *testServer) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestRecommendEndpoint(t *testing.T) {
	s := newTestServer()
	s.recommender.scores = []recommend.RecommendationScore{
		{ClipID: "clip-1", OverallScore: 0.9},
		{ClipID: "clip-2", OverallScore: 0.4},
	}

	rec := s.request(t, http.MethodPost, "/api/v1/recommend", map[string]any{
		"query_audio_embedding": []float64{0.1, 0.2},
		"top_k":                 5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Errorf("response = %+v, want success", resp)
	}
	if s.recommender.lastTopK != 5 {
		t.Errorf("topK = %d, want 5", s.recommender.lastTopK)
	}
	if len(s.recommender.lastReq.QueryAudioEmbedding) != 2 {
		t.Errorf("query embedding not forwarded: %+v", s.recommender.lastReq)
	}
}

func TestRecommendRejectsInvalidJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want bad request code", resp.Error)
	}
}

func TestRecommendRequiresQueryVector(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/recommend", map[string]any{"top_k": 3})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendRejectsOversizedTopK(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/recommend", map[string]any{
		"query_audio_embedding": []float64{0.1},
		"top_k":                 500,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want validation code", resp.Error)
	}
}

func TestGetMove(t *testing.T) {
	s := newTestServer()
	s.catalog.docs = []vectorstore.MoveDocument{{ClipID: "clip-1", MoveLabel: "basic"}}

	rec := s.request(t, http.MethodGet, "/api/v1/moves/clip-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"basic"`) {
		t.Errorf("body missing move label: %s", rec.Body.String())
	}
}

func TestGetMoveNotFound(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodGet, "/api/v1/moves/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want not found code", resp.Error)
	}
}

func TestListMovesForwardsFilters(t *testing.T) {
	s := newTestServer()
	s.catalog.docs = []vectorstore.MoveDocument{{ClipID: "a"}, {ClipID: "b"}}

	rec := s.request(t, http.MethodGet, "/api/v1/moves?difficulty=beginner&role=lead_focus", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	f := s.catalog.lastFilters
	if f == nil || f.Difficulty != "beginner" || f.LeadFollowRoles != "lead_focus" {
		t.Errorf("filters = %+v", f)
	}
}

func TestListMovesUnfilteredPassesNil(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodGet, "/api/v1/moves", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if s.catalog.lastFilters != nil {
		t.Errorf("filters = %+v, want nil", s.catalog.lastFilters)
	}
}

func TestProcessClipsEndpoint(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"clips": []map[string]any{
			{"clip_id": "a", "video_path": "a.mp4"},
			{"clip_id": "b", "video_path": "b.mp4"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"indexed":2`) {
		t.Errorf("body = %s, want 2 indexed", rec.Body.String())
	}
}

func TestProcessClipsInvalidatesCatalogCache(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"clips": []map[string]any{{"clip_id": "a", "video_path": "a.mp4"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if s.invalidator.calls != 1 {
		t.Errorf("invalidations = %d, want 1 after indexing", s.invalidator.calls)
	}
}

func TestProcessClipsSkipsInvalidationWhenNothingIndexed(t *testing.T) {
	s := newTestServer()
	s.processor.results = []batch.ClipResult{{ClipID: "a", Cause: "detection"}}

	rec := s.request(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"clips": []map[string]any{{"clip_id": "a", "video_path": "a.mp4"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if s.invalidator.calls != 0 {
		t.Errorf("invalidations = %d, want 0 when no document was written", s.invalidator.calls)
	}
}

func TestProcessClipsRejectsEmptyBatch(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/clips", map[string]any{"clips": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessClipsRejectsMissingVideoPath(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodPost, "/api/v1/clips", map[string]any{
		"clips": []map[string]any{{"clip_id": "a"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExportBackup(t *testing.T) {
	s := newTestServer()
	s.archiver.archive = `{"index_name":"bachata_moves"}`

	rec := s.request(t, http.MethodGet, "/api/v1/backup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("content disposition = %q", got)
	}
	if rec.Body.String() != s.archiver.archive {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRestoreBackup(t *testing.T) {
	s := newTestServer()
	s.archiver.restore = &vectorstore.BulkResult{Indexed: 3}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/restore", strings.NewReader(`{"count":3}`))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if string(s.archiver.restoredBody) != `{"count":3}` {
		t.Errorf("restore body = %s", s.archiver.restoredBody)
	}
	if !strings.Contains(rec.Body.String(), `"indexed":3`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if s.invalidator.calls != 1 {
		t.Errorf("invalidations = %d, want 1 after restore", s.invalidator.calls)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()
	if rec := s.request(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := s.request(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	s.catalog.indexExists = false
	if rec := s.request(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz without index = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected default process metrics in exposition")
	}
}

func TestRequestIDInResponseMeta(t *testing.T) {
	s := newTestServer()
	rec := s.request(t, http.MethodGet, "/healthz", nil)
	resp := decodeResponse(t, rec)
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Errorf("meta = %+v, want request id", resp.Meta)
	}
}
