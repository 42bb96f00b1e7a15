// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marketrec/config.yaml",
	"/etc/marketrec/config.yml",
}

// sections are the top-level keys; SECTION_FIELD env vars map onto them.
var sections = []string{"server", "database", "recommend", "refresh", "breaker", "logging", "supervisor"}

// envAliases are short environment names kept for container deployments.
var envAliases = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"cors_origins": "server.cors_origins",
	"duckdb_path":  "database.path",
	"seed_file":    "database.seed_file",
	"log_level":    "logging.level",
	"log_format":   "logging.format",
}

// sliceKeys arrive from the environment as comma-separated strings.
var sliceKeys = []string{"server.cors_origins"}

// Load merges defaults, the config file and the environment, then validates.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit file path. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps RECOMMEND_TOP_K to recommend.top_k. Variables outside the
// known sections and aliases are ignored.
func envKey(name string) string {
	key := strings.ToLower(name)
	if mapped, ok := envAliases[key]; ok {
		return mapped
	}
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}
