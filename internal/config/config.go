// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package config loads layered service configuration: built-in defaults,
// then an optional YAML file, then environment variables. Validation is
// fail-fast; the service refuses to start on an invalid configuration.
package config

import (
	"fmt"
	"math"
	"time"
)

// Config is the full service configuration tree.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server"`
	Store     StoreConfig     `koanf:"store" json:"store"`
	Pipeline  PipelineConfig  `koanf:"pipeline" json:"pipeline"`
	Analysis  AnalysisConfig  `koanf:"analysis" json:"analysis"`
	Recommend RecommendConfig `koanf:"recommend" json:"recommend"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port"`
	Timeout         time.Duration `koanf:"timeout" json:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins" json:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" json:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`
}

// StoreConfig configures the vector store connection.
type StoreConfig struct {
	Addresses         []string `koanf:"addresses" json:"addresses"`
	Username          string   `koanf:"username" json:"username"`
	Password          string   `koanf:"password" json:"-"`
	Index             string   `koanf:"index" json:"index"`
	MaxRetries        int      `koanf:"max_retries" json:"max_retries"`
	SelfManaged       bool     `koanf:"self_managed" json:"self_managed"`
	BulkRatePerSecond float64  `koanf:"bulk_rate_per_second" json:"bulk_rate_per_second"`
}

// PipelineConfig configures batch clip processing.
type PipelineConfig struct {
	Concurrency int     `koanf:"concurrency" json:"concurrency"`
	TargetFPS   float64 `koanf:"target_fps" json:"target_fps"`
	Version     string  `koanf:"version" json:"version"`
}

// AnalysisConfig carries the pose and interaction thresholds. The
// defaults reproduce the calibration the catalog was built with.
type AnalysisConfig struct {
	ConfidenceThreshold   float64 `koanf:"confidence_threshold" json:"confidence_threshold"`
	HandDistanceThreshold float64 `koanf:"hand_distance_threshold" json:"hand_distance_threshold"`
	AlignmentThreshold    float64 `koanf:"alignment_threshold" json:"alignment_threshold"`
	SyncWindowSize        int     `koanf:"sync_window_size" json:"sync_window_size"`
}

// RecommendConfig carries the default modality weights and the catalog
// cache lifetime.
type RecommendConfig struct {
	TextWeight        float64 `koanf:"text_weight" json:"text_weight"`
	AudioWeight       float64 `koanf:"audio_weight" json:"audio_weight"`
	LeadWeight        float64 `koanf:"lead_weight" json:"lead_weight"`
	FollowWeight      float64 `koanf:"follow_weight" json:"follow_weight"`
	InteractionWeight float64 `koanf:"interaction_weight" json:"interaction_weight"`

	// CacheTTL bounds catalog snapshot staleness. Zero disables caching.
	CacheTTL time.Duration `koanf:"cache_ttl" json:"cache_ttl"`

	// HybridThreshold is the catalog size at which candidate retrieval
	// switches from exhaustive scoring to store-side kNN. Zero keeps
	// retrieval exhaustive at any size.
	HybridThreshold int `koanf:"hybrid_threshold" json:"hybrid_threshold"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	Caller bool   `koanf:"caller" json:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8462,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Store: StoreConfig{
			Addresses:         []string{"http://localhost:9200"},
			Index:             "bachata_moves",
			MaxRetries:        3,
			SelfManaged:       true,
			BulkRatePerSecond: 2,
		},
		Pipeline: PipelineConfig{
			Concurrency: 4,
			TargetFPS:   15,
			Version:     "1.0.0",
		},
		Analysis: AnalysisConfig{
			ConfidenceThreshold:   0.3,
			HandDistanceThreshold: 0.15,
			AlignmentThreshold:    0.7,
			SyncWindowSize:        5,
		},
		Recommend: RecommendConfig{
			TextWeight:        0.35,
			AudioWeight:       0.35,
			LeadWeight:        0.10,
			FollowWeight:      0.10,
			InteractionWeight: 0.10,
			CacheTTL:          30 * time.Second,
			HybridThreshold:   500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the whole tree, failing on the first invalid section.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Pipeline.validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Analysis.validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Recommend.validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

func (c *StoreConfig) validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}
	if c.Index == "" {
		return fmt.Errorf("index name is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	return nil
}

func (c *PipelineConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.TargetFPS <= 0 {
		return fmt.Errorf("target_fps must be positive, got %v", c.TargetFPS)
	}
	return nil
}

func (c *AnalysisConfig) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold %v outside [0,1]", c.ConfidenceThreshold)
	}
	if c.HandDistanceThreshold <= 0 || c.HandDistanceThreshold > 1 {
		return fmt.Errorf("hand_distance_threshold %v outside (0,1]", c.HandDistanceThreshold)
	}
	if c.AlignmentThreshold <= 0 || c.AlignmentThreshold >= 1 {
		return fmt.Errorf("alignment_threshold %v outside (0,1)", c.AlignmentThreshold)
	}
	if c.SyncWindowSize < 1 {
		return fmt.Errorf("sync_window_size must be at least 1, got %d", c.SyncWindowSize)
	}
	return nil
}

func (c *RecommendConfig) validate() error {
	weights := []float64{c.TextWeight, c.AudioWeight, c.LeadWeight, c.FollowWeight, c.InteractionWeight}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("weights must be non-negative")
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %v, want 1.0", sum)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative, got %v", c.CacheTTL)
	}
	if c.HybridThreshold < 0 {
		return fmt.Errorf("hybrid_threshold must be non-negative, got %d", c.HybridThreshold)
	}
	return nil
}
