// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/marketrec/internal/recommend"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestRecommendConfig_EngineConfig(t *testing.T) {
	t.Parallel()

	got := DefaultConfig().Recommend.EngineConfig()
	want := recommend.DefaultConfig()

	if !reflect.DeepEqual(got.Weights, want.Weights) {
		t.Errorf("Weights = %v, want %v", got.Weights, want.Weights)
	}
	if !reflect.DeepEqual(got.Divisors, want.Divisors) {
		t.Errorf("Divisors = %v, want %v", got.Divisors, want.Divisors)
	}
	if got.TopK != 12 || got.ColdStartLimit != 5 || got.MaxFeatures != 1000 {
		t.Errorf("TopK=%d ColdStartLimit=%d MaxFeatures=%d", got.TopK, got.ColdStartLimit, got.MaxFeatures)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("engine config invalid: %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"RECOMMEND_TOP_K", "recommend.top_k"},
		{"RECOMMEND_COLD_START_LIMIT", "recommend.cold_start_limit"},
		{"SERVER_PORT", "server.port"},
		{"BREAKER_FAILURE_THRESHOLD", "breaker.failure_threshold"},
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_", ""},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("RECOMMEND_TOP_K", "20")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("DUCKDB_PATH", "/tmp/shop.duckdb")
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://admin.example")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Recommend.TopK != 20 {
		t.Errorf("TopK = %d, want 20", cfg.Recommend.TopK)
	}
	if cfg.Refresh.Interval != 15*time.Minute {
		t.Errorf("Refresh.Interval = %v", cfg.Refresh.Interval)
	}
	if cfg.Database.Path != "/tmp/shop.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	want := []string{"https://shop.example", "https://admin.example"}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
recommend:
  content_weight: 0.5
  user_cf_weight: 0.25
  item_cf_weight: 0.25
  top_k: 8
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECOMMEND_TOP_K", "9")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Recommend.ContentWeight != 0.5 {
		t.Errorf("ContentWeight = %v", cfg.Recommend.ContentWeight)
	}
	if cfg.Recommend.TopK != 9 {
		t.Errorf("TopK = %d, env should win over the file", cfg.Recommend.TopK)
	}
	if cfg.Recommend.ColdStartLimit != 5 {
		t.Errorf("ColdStartLimit = %d, default should survive", cfg.Recommend.ColdStartLimit)
	}
	if cfg.Logging.LoggerConfig().Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadFile() with a missing file should fail")
	}
}

func TestFindConfigFile_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketrec.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8100 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"zero top k", func(c *Config) { c.Recommend.TopK = 0 }, "TopK"},
		{"negative weight", func(c *Config) { c.Recommend.UserCFWeight = -1 }, "UserCFWeight"},
		{"all weights zero", func(c *Config) {
			c.Recommend.ContentWeight, c.Recommend.UserCFWeight, c.Recommend.ItemCFWeight = 0, 0, 0
		}, "weight"},
		{"zero divisor", func(c *Config) { c.Recommend.ItemCFDivisor = 0 }, "ItemCFDivisor"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
		{"rate limit without window", func(c *Config) { c.Server.RateLimitWindow = 0 }, "rate_limit_window"},
		{"zero breaker timeout", func(c *Config) { c.Breaker.Timeout = 0 }, "Timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8085}
	if got := s.Addr(); got != "127.0.0.1:8085" {
		t.Errorf("Addr() = %q", got)
	}
}
