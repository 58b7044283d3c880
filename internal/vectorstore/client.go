// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cadencia/cadencia/internal/metrics"
)

// Config holds the store connection settings.
type Config struct {
	// Addresses lists the Elasticsearch node URLs.
	Addresses []string `json:"addresses"`

	Username string `json:"username"`
	Password string `json:"password"`

	// Index is the catalog index name.
	Index string `json:"index"`

	// MaxRetries bounds retries for transient failures. Default: 3.
	MaxRetries int `json:"max_retries"`

	// SelfManaged enables shard settings rejected by serverless
	// deployments.
	SelfManaged bool `json:"self_managed"`

	// BulkRatePerSecond throttles bulk indexing calls. Default: 2.
	BulkRatePerSecond float64 `json:"bulk_rate_per_second"`

	// Transport overrides the HTTP transport. Used by tests.
	Transport http.RoundTripper `json:"-"`
}

// Client is the Elasticsearch-backed catalog client. Safe for concurrent
// use.
type Client struct {
	es          *elasticsearch.Client
	index       string
	selfManaged bool
	retry       *RetryPolicy
	breaker     *gobreaker.CircuitBreaker[[]byte]
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// NewClient connects to the store. It does not verify connectivity;
// CreateIndex or IndexExists will surface an unreachable cluster.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Index == "" {
		return nil, errors.New("vectorstore: index name is required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BulkRatePerSecond == 0 {
		cfg.BulkRatePerSecond = 2
	}

	escfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.Transport != nil {
		escfg.Transport = cfg.Transport
	}
	es, err := elasticsearch.NewClient(escfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	clientLogger := logger.With().Str("component", "vectorstore").Logger()

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "vectorstore",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StoreBreakerState.Set(float64(to))
			clientLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		es:          es,
		index:       cfg.Index,
		selfManaged: cfg.SelfManaged,
		retry:       NewRetryPolicy(cfg.MaxRetries, logger),
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Limit(cfg.BulkRatePerSecond), 1),
		logger:      clientLogger,
	}, nil
}

// do executes one store request through the circuit breaker and returns
// the response body. Non-2xx responses become StatusError.
func (c *Client) do(ctx context.Context, req esapi.Request) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if res.IsError() {
			return nil, &StatusError{StatusCode: res.StatusCode, Message: truncateBody(body)}
		}
		return body, nil
	})
}

// truncateBody keeps error messages loggable.
func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}

// notFound reports whether err is a 404 from the store.
func notFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IndexExists reports whether the catalog index exists.
func (c *Client) IndexExists(ctx context.Context) (bool, error) {
	var exists bool
	err := c.retry.Do(ctx, "index exists", func() error {
		_, err := c.do(ctx, esapi.IndicesExistsRequest{Index: []string{c.index}})
		if notFound(err) {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// CreateIndex creates the catalog index with the vector mapping. Calling
// it against an existing index is a no-op.
func (c *Client) CreateIndex(ctx context.Context) error {
	exists, err := c.IndexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Debug().Str("index", c.index).Msg("index already exists")
		return nil
	}

	body, err := json.Marshal(indexMapping(c.selfManaged))
	if err != nil {
		return fmt.Errorf("marshal index mapping: %w", err)
	}

	err = c.retry.Do(ctx, "create index", func() error {
		_, derr := c.do(ctx, esapi.IndicesCreateRequest{
			Index: c.index,
			Body:  bytes.NewReader(body),
		})
		return derr
	})
	if err != nil {
		return err
	}

	c.logger.Info().Str("index", c.index).Bool("self_managed", c.selfManaged).Msg("created index")
	return nil
}

// DeleteIndex removes the catalog index. Missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	return c.retry.Do(ctx, "delete index", func() error {
		_, err := c.do(ctx, esapi.IndicesDeleteRequest{Index: []string{c.index}})
		if notFound(err) {
			return nil
		}
		return err
	})
}

// CountDocuments returns the number of indexed clips.
func (c *Client) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := c.retry.Do(ctx, "count documents", func() error {
		body, derr := c.do(ctx, esapi.CountRequest{Index: []string{c.index}})
		if derr != nil {
			return derr
		}
		var res struct {
			Count int `json:"count"`
		}
		if uerr := json.Unmarshal(body, &res); uerr != nil {
			return fmt.Errorf("decode count response: %w", uerr)
		}
		count = res.Count
		return nil
	})
	return count, err
}

// BulkIndex writes all documents in a single bulk call followed by exactly
// one index refresh. Per-document rejections are reported in the result;
// transport failures surface as an error so the caller can retry the whole
// batch.
func (c *Client) BulkIndex(ctx context.Context, docs []MoveDocument) (*BulkResult, error) {
	if len(docs) == 0 {
		return &BulkResult{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("bulk rate limit: %w", err)
	}
	start := time.Now()

	payload, err := bulkPayload(c.index, docs)
	if err != nil {
		return nil, err
	}

	var result *BulkResult
	err = c.retry.Do(ctx, "bulk index", func() error {
		body, derr := c.do(ctx, esapi.BulkRequest{Body: bytes.NewReader(payload)})
		if derr != nil {
			return derr
		}
		result, derr = parseBulkResponse(body)
		return derr
	})
	metrics.RecordStoreOperation("bulk_index", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	metrics.DocumentsIndexed.Add(float64(result.Indexed))

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("indexed", result.Indexed).
		Int("failed", result.Failed).
		Str("index", c.index).
		Msg("bulk indexed documents")
	return result, nil
}

// bulkPayload builds the NDJSON bulk body, one action and one document
// line per clip, keyed by clip ID.
func bulkPayload(index string, docs []MoveDocument) ([]byte, error) {
	var buf bytes.Buffer
	for i := range docs {
		action := map[string]any{
			"index": map[string]any{"_index": index, "_id": docs[i].ClipID},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("marshal bulk action: %w", err)
		}
		docLine, err := json.Marshal(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("marshal document %q: %w", docs[i].ClipID, err)
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// parseBulkResponse tallies per-item outcomes.
func parseBulkResponse(body []byte) (*BulkResult, error) {
	var res struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	result := &BulkResult{}
	for _, item := range res.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				result.Indexed++
			} else {
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, op.ID)
			}
		}
	}
	return result, nil
}

// refresh makes just-indexed documents searchable.
func (c *Client) refresh(ctx context.Context) error {
	return c.retry.Do(ctx, "refresh index", func() error {
		_, err := c.do(ctx, esapi.IndicesRefreshRequest{Index: []string{c.index}})
		return err
	})
}

// GetEmbeddingByID fetches one catalog document with all vector fields
// explicitly requested. Returns ErrNotFound for an unknown clip.
func (c *Client) GetEmbeddingByID(ctx context.Context, clipID string) (*MoveDocument, error) {
	var doc *MoveDocument
	err := c.retry.Do(ctx, "get embedding", func() error {
		body, derr := c.do(ctx, esapi.GetRequest{
			Index:          c.index,
			DocumentID:     clipID,
			SourceIncludes: sourceFields,
		})
		if notFound(derr) {
			return fmt.Errorf("clip %q: %w", clipID, ErrNotFound)
		}
		if derr != nil {
			return derr
		}

		var res struct {
			Source MoveDocument `json:"_source"`
		}
		if uerr := json.Unmarshal(body, &res); uerr != nil {
			return fmt.Errorf("decode get response: %w", uerr)
		}
		doc = &res.Source
		return nil
	})
	return doc, err
}

// GetAllEmbeddings retrieves every catalog document matching the filters,
// vector fields included.
func (c *Client) GetAllEmbeddings(ctx context.Context, filters *Filters) ([]MoveDocument, error) {
	query, err := json.Marshal(matchAllQuery(filters))
	if err != nil {
		return nil, fmt.Errorf("marshal retrieval query: %w", err)
	}

	start := time.Now()
	var docs []MoveDocument
	err = c.retry.Do(ctx, "get all embeddings", func() error {
		body, derr := c.do(ctx, esapi.SearchRequest{
			Index: []string{c.index},
			Body:  bytes.NewReader(query),
		})
		if derr != nil {
			return derr
		}
		hits, perr := parseSearchResponse(body)
		if perr != nil {
			return perr
		}
		docs = make([]MoveDocument, len(hits))
		for i, h := range hits {
			docs[i] = h.Document
		}
		return nil
	})
	metrics.RecordStoreOperation("get_all_embeddings", time.Since(start), err)
	return docs, err
}

// HybridSearch runs the combined kNN/text/filter query and returns scored
// hits in store order.
func (c *Client) HybridSearch(ctx context.Context, req *SearchRequest) ([]SearchHit, error) {
	queryBody, err := buildHybridQuery(req)
	if err != nil {
		return nil, err
	}
	query, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("marshal hybrid query: %w", err)
	}

	start := time.Now()
	var hits []SearchHit
	err = c.retry.Do(ctx, "hybrid search", func() error {
		body, derr := c.do(ctx, esapi.SearchRequest{
			Index: []string{c.index},
			Body:  bytes.NewReader(query),
		})
		if derr != nil {
			return derr
		}
		hits, derr = parseSearchResponse(body)
		return derr
	})
	metrics.RecordStoreOperation("hybrid_search", time.Since(start), err)
	return hits, err
}
