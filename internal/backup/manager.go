// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package backup exports and restores the move catalog as a single JSON
// archive. Vector fields stay plain number arrays so archives remain
// human-diffable and tool-agnostic.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/vectorstore"
)

// Store is the slice of the catalog client the backup manager needs.
type Store interface {
	GetAllEmbeddings(ctx context.Context, filters *vectorstore.Filters) ([]vectorstore.MoveDocument, error)
	BulkIndex(ctx context.Context, docs []vectorstore.MoveDocument) (*vectorstore.BulkResult, error)
	CreateIndex(ctx context.Context) error
}

// Archive is the backup wire format.
type Archive struct {
	BackupDate time.Time                  `json:"backup_date"`
	IndexName  string                     `json:"index_name"`
	Count      int                        `json:"count"`
	Embeddings []vectorstore.MoveDocument `json:"embeddings"`
}

// Manager drives catalog export and restore.
type Manager struct {
	store  Store
	index  string
	logger zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager creates a Manager for the named index.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(store Store, index string, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		index:  index,
		logger: logger.With().Str("component", "backup").Logger(),
		now:    time.Now,
	}
}

// Export writes the full catalog as one JSON archive. Returns the number
// of exported documents.
func (m *Manager) Export(ctx context.Context, w io.Writer) (int, error) {
	docs, err := m.store.GetAllEmbeddings(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("export catalog: %w", err)
	}

	archive := Archive{
		BackupDate: m.now().UTC(),
		IndexName:  m.index,
		Count:      len(docs),
		Embeddings: docs,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&archive); err != nil {
		return 0, fmt.Errorf("encode archive: %w", err)
	}

	m.logger.Info().Int("documents", len(docs)).Str("index", m.index).Msg("exported catalog")
	return len(docs), nil
}

// ExportToFile writes the archive to path, creating or truncating it.
func (m *Manager) ExportToFile(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	if _, err := m.Export(ctx, f); err != nil {
		return err
	}
	return f.Sync()
}

// Restore reads an archive and bulk-indexes its documents, creating the
// index first when missing. The archive's count must match its document
// list.
func (m *Manager) Restore(ctx context.Context, r io.Reader) (*vectorstore.BulkResult, error) {
	var archive Archive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	if archive.Count != len(archive.Embeddings) {
		return nil, fmt.Errorf("archive count %d does not match %d documents", archive.Count, len(archive.Embeddings))
	}
	if len(archive.Embeddings) == 0 {
		return &vectorstore.BulkResult{}, nil
	}

	if err := m.store.CreateIndex(ctx); err != nil {
		return nil, fmt.Errorf("prepare index: %w", err)
	}
	result, err := m.store.BulkIndex(ctx, archive.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("restore documents: %w", err)
	}

	m.logger.Info().
		Int("indexed", result.Indexed).
		Int("failed", result.Failed).
		Str("source_index", archive.IndexName).
		Time("backup_date", archive.BackupDate).
		Msg("restored catalog")
	return result, nil
}

// RestoreFromFile restores the archive at path.
func (m *Manager) RestoreFromFile(ctx context.Context, path string) (*vectorstore.BulkResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return m.Restore(ctx, f)
}
