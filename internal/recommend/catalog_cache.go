// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/cache"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

// CachedCatalog wraps a CatalogProvider with a TTL cache keyed by filter
// set. Scoring reads the whole catalog per query, so even a short TTL
// removes most store round-trips under interactive load.
type CachedCatalog struct {
	inner  CatalogProvider
	cache  *cache.Cache[[]vectorstore.MoveDocument]
	logger zerolog.Logger
}

// NewCachedCatalog wraps inner with a cache whose entries live for ttl.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCachedCatalog(inner CatalogProvider, ttl time.Duration, logger zerolog.Logger) *CachedCatalog {
	return &CachedCatalog{
		inner:  inner,
		cache:  cache.New[[]vectorstore.MoveDocument](ttl),
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// GetAllEmbeddings serves from cache when possible, falling through to
// the store on miss. Errors are never cached.
func (c *CachedCatalog) GetAllEmbeddings(ctx context.Context, filters *vectorstore.Filters) ([]vectorstore.MoveDocument, error) {
	key := cache.Key("catalog", filters)
	if docs, ok := c.cache.Get(key); ok {
		return docs, nil
	}

	docs, err := c.inner.GetAllEmbeddings(ctx, filters)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, docs)
	c.logger.Debug().Int("documents", len(docs)).Msg("catalog cached")
	return docs, nil
}

// Invalidate drops all cached catalog snapshots. Call after indexing or
// restoring so subsequent queries see the new documents.
func (c *CachedCatalog) Invalidate() {
	c.cache.Invalidate()
}
