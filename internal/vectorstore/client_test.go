// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// recordedRequest captures one store call for assertions.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport serves canned responses keyed by invocation order and
// records every request.
type fakeTransport struct {
	responses []*http.Response
	errs      []error
	calls     []recordedRequest
}

func (ft *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	ft.calls = append(ft.calls, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})

	i := len(ft.calls) - 1
	if i < len(ft.errs) && ft.errs[i] != nil {
		return nil, ft.errs[i]
	}
	if i < len(ft.responses) {
		return ft.responses[i], nil
	}
	return esResponse(http.StatusOK, "{}"), nil
}

// esResponse builds a response carrying the product header the client
// library verifies on first contact.
func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Addresses: []string{"http://store.test:9200"},
		Index:     "bachata_moves",
		Transport: ft,
	}, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.retry.baseDelay = time.Millisecond
	return c
}

func TestIndexExists(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{
		esResponse(http.StatusOK, ""),
		esResponse(http.StatusNotFound, ""),
	}}
	c := testClient(t, ft)

	exists, err := c.IndexExists(context.Background())
	if err != nil || !exists {
		t.Errorf("first check: exists=%v err=%v, want true", exists, err)
	}
	exists, err = c.IndexExists(context.Background())
	if err != nil || exists {
		t.Errorf("second check: exists=%v err=%v, want false without error", exists, err)
	}
}

func TestCreateIndexIdempotent(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{
		esResponse(http.StatusOK, ""),
	}}
	c := testClient(t, ft)

	if err := c.CreateIndex(context.Background()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if len(ft.calls) != 1 {
		t.Errorf("calls = %d, want only the existence check for an existing index", len(ft.calls))
	}
}

func TestCreateIndexMapping(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{
		esResponse(http.StatusNotFound, ""),
		esResponse(http.StatusOK, `{"acknowledged":true}`),
	}}
	c := testClient(t, ft)

	if err := c.CreateIndex(context.Background()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if len(ft.calls) != 2 {
		t.Fatalf("calls = %d, want existence check then create", len(ft.calls))
	}

	create := ft.calls[1]
	if create.Method != http.MethodPut || create.Path != "/bachata_moves" {
		t.Errorf("create call = %s %s", create.Method, create.Path)
	}

	var mapping map[string]any
	if err := json.Unmarshal([]byte(create.Body), &mapping); err != nil {
		t.Fatalf("mapping body: %v", err)
	}
	props := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	lead := props[FieldLeadEmbedding].(map[string]any)
	if lead["similarity"] != "cosine" || lead["dims"] != float64(512) {
		t.Errorf("lead_embedding mapping = %v", lead)
	}
	if _, hasSettings := mapping["settings"]; hasSettings {
		t.Error("non-self-managed mapping must omit shard settings")
	}
}

func TestBulkIndexSingleCallAndRefresh(t *testing.T) {
	bulkBody := `{"errors":true,"items":[
		{"index":{"_id":"clip-1","status":201}},
		{"index":{"_id":"clip-2","status":400}}
	]}`
	ft := &fakeTransport{responses: []*http.Response{
		esResponse(http.StatusOK, bulkBody),
		esResponse(http.StatusOK, "{}"),
	}}
	c := testClient(t, ft)

	docs := []MoveDocument{
		{ClipID: "clip-1", MoveLabel: "basic"},
		{ClipID: "clip-2", MoveLabel: "turn"},
	}
	result, err := c.BulkIndex(context.Background(), docs)
	if err != nil {
		t.Fatalf("BulkIndex: %v", err)
	}

	if result.Indexed != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 indexed, 1 failed", result)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != "clip-2" {
		t.Errorf("failed IDs = %v, want [clip-2]", result.FailedIDs)
	}

	if len(ft.calls) != 2 {
		t.Fatalf("calls = %d, want one bulk and one refresh", len(ft.calls))
	}
	if ft.calls[0].Path != "/_bulk" {
		t.Errorf("first call path = %s, want /_bulk", ft.calls[0].Path)
	}
	if ft.calls[1].Path != "/bachata_moves/_refresh" {
		t.Errorf("second call path = %s, want refresh", ft.calls[1].Path)
	}

	lines := strings.Split(strings.TrimSpace(ft.calls[0].Body), "\n")
	if len(lines) != 4 {
		t.Fatalf("bulk payload lines = %d, want 4", len(lines))
	}
	var action struct {
		Index struct {
			ID string `json:"_id"`
		} `json:"index"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &action); err != nil || action.Index.ID != "clip-1" {
		t.Errorf("first action line = %q (err %v)", lines[0], err)
	}
}

func TestBulkIndexEmptyBatch(t *testing.T) {
	ft := &fakeTransport{}
	c := testClient(t, ft)

	result, err := c.BulkIndex(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkIndex: %v", err)
	}
	if result.Indexed != 0 || len(ft.calls) != 0 {
		t.Errorf("empty batch must not hit the store (calls=%d)", len(ft.calls))
	}
}

func TestBulkIndexTransportErrorRetries(t *testing.T) {
	bulkBody := `{"errors":false,"items":[{"index":{"_id":"clip-1","status":201}}]}`
	ft := &fakeTransport{
		errs: []error{errors.New("connection reset")},
		responses: []*http.Response{
			nil,
			esResponse(http.StatusOK, bulkBody),
			esResponse(http.StatusOK, "{}"),
		},
	}
	c := testClient(t, ft)

	result, err := c.BulkIndex(context.Background(), []MoveDocument{{ClipID: "clip-1"}})
	if err != nil {
		t.Fatalf("BulkIndex after transient failure: %v", err)
	}
	if result.Indexed != 1 {
		t.Errorf("indexed = %d, want 1", result.Indexed)
	}
	if len(ft.calls) != 3 {
		t.Errorf("calls = %d, want failed bulk, retried bulk, refresh", len(ft.calls))
	}
}

func TestGetEmbeddingByID(t *testing.T) {
	doc := MoveDocument{ClipID: "clip-7", MoveLabel: "body roll", LeadEmbedding: []float64{0.1, 0.2}}
	src, _ := json.Marshal(map[string]any{"_source": doc})
	ft := &fakeTransport{responses: []*http.Response{esResponse(http.StatusOK, string(src))}}
	c := testClient(t, ft)

	got, err := c.GetEmbeddingByID(context.Background(), "clip-7")
	if err != nil {
		t.Fatalf("GetEmbeddingByID: %v", err)
	}
	if got.ClipID != "clip-7" || got.MoveLabel != "body roll" {
		t.Errorf("document = %+v", got)
	}
	if len(got.LeadEmbedding) != 2 {
		t.Errorf("lead embedding not reconstructed: %v", got.LeadEmbedding)
	}

	// The source include list must request the vector fields explicitly.
	if q := ft.calls[0]; !strings.Contains(q.Path, "clip-7") {
		t.Errorf("get path = %s", q.Path)
	}
}

func TestGetEmbeddingByIDNotFound(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{esResponse(http.StatusNotFound, "{}")}}
	c := testClient(t, ft)

	_, err := c.GetEmbeddingByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(ft.calls) != 1 {
		t.Errorf("calls = %d, want no retries on a missing document", len(ft.calls))
	}
}

func TestGetAllEmbeddings(t *testing.T) {
	body := `{"hits":{"hits":[
		{"_score":1,"_source":{"clip_id":"a"}},
		{"_score":1,"_source":{"clip_id":"b"}}
	]}}`
	ft := &fakeTransport{responses: []*http.Response{esResponse(http.StatusOK, body)}}
	c := testClient(t, ft)

	docs, err := c.GetAllEmbeddings(context.Background(), &Filters{Difficulty: "beginner"})
	if err != nil {
		t.Fatalf("GetAllEmbeddings: %v", err)
	}
	if len(docs) != 2 || docs[0].ClipID != "a" {
		t.Errorf("docs = %+v", docs)
	}

	if !strings.Contains(ft.calls[0].Body, FieldInteractionEmbedding) {
		t.Error("retrieval body must request vector fields explicitly")
	}
	if !strings.Contains(ft.calls[0].Body, "difficulty.keyword") {
		t.Error("retrieval body missing term filter")
	}
}

func TestCountDocuments(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{esResponse(http.StatusOK, `{"count":42}`)}}
	c := testClient(t, ft)

	n, err := c.CountDocuments(context.Background())
	if err != nil || n != 42 {
		t.Errorf("count = %d err = %v, want 42", n, err)
	}
}

func TestHybridSearchRejectsEmptyRequest(t *testing.T) {
	c := testClient(t, &fakeTransport{})
	_, err := c.HybridSearch(context.Background(), &SearchRequest{TopK: 5})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestDeleteIndexMissingIsNoError(t *testing.T) {
	ft := &fakeTransport{responses: []*http.Response{esResponse(http.StatusNotFound, "{}")}}
	c := testClient(t, ft)
	if err := c.DeleteIndex(context.Background()); err != nil {
		t.Errorf("DeleteIndex on missing index: %v", err)
	}
}
