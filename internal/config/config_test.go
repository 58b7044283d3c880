// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Index != "bachata_moves" {
		t.Errorf("index = %s", cfg.Store.Index)
	}
	if cfg.Analysis.HandDistanceThreshold != 0.15 {
		t.Errorf("hand threshold = %v, want 0.15", cfg.Analysis.HandDistanceThreshold)
	}
	if cfg.Pipeline.TargetFPS != 15 {
		t.Errorf("target fps = %v, want 15", cfg.Pipeline.TargetFPS)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  index: moves_staging
  max_retries: 5
analysis:
  sync_window_size: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Index != "moves_staging" || cfg.Store.MaxRetries != 5 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Analysis.SyncWindowSize != 7 {
		t.Errorf("sync window = %d, want 7", cfg.Analysis.SyncWindowSize)
	}
	// Untouched fields keep their defaults.
	if cfg.Analysis.AlignmentThreshold != 0.7 {
		t.Errorf("alignment threshold = %v, want default", cfg.Analysis.AlignmentThreshold)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  index: from_file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CADENCIA_STORE_INDEX", "from_env")
	t.Setenv("CADENCIA_STORE_ADDRESSES", "http://es1:9200, http://es2:9200")
	t.Setenv("CADENCIA_PIPELINE_CONCURRENCY", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Index != "from_env" {
		t.Errorf("index = %s, want env to win", cfg.Store.Index)
	}
	if len(cfg.Store.Addresses) != 2 || cfg.Store.Addresses[1] != "http://es2:9200" {
		t.Errorf("addresses = %v, want comma-split pair", cfg.Store.Addresses)
	}
	if cfg.Pipeline.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Pipeline.Concurrency)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CADENCIA_ANALYSIS_CONFIDENCE_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Error("expected validation failure for confidence threshold 1.5")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CADENCIA_STORE_MAX_RETRIES", "store.max_retries"},
		{"CADENCIA_SERVER_RATE_LIMIT_REQS", "server.rate_limit_reqs"},
		{"CADENCIA_LOGGING_LEVEL", "logging.level"},
		{"CADENCIA_UNRELATED", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSectionValidation(t *testing.T) {
	cfg := defaultConfig()
	cfg.Recommend.TextWeight = 0.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for weights summing above 1")
	}

	cfg = defaultConfig()
	cfg.Store.Addresses = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty store addresses")
	}

	cfg = defaultConfig()
	cfg.Analysis.HandDistanceThreshold = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero hand distance threshold")
	}

	cfg = defaultConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg = defaultConfig()
	cfg.Recommend.HybridThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative hybrid threshold")
	}
}
