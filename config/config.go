// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads storefront settings from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
)

type Config struct {
	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`
	Currency   string        `yaml:"currency"`

	StorageDriver string        `yaml:"storage_driver"`
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisURL      string        `yaml:"redis_url"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	MaxSessions   int           `yaml:"max_sessions"`

	LoginPath     string `yaml:"login_path"`
	ForbiddenPath string `yaml:"forbidden_path"`
	AlertBuffer   int    `yaml:"alert_buffer"`

	ListenAddr string `yaml:"listen_addr"`
	Port       string `yaml:"port"`
	BaseURL    string `yaml:"base_url"`

	LogLevel       string `yaml:"log_level"`
	EnableTracing  bool   `yaml:"enable_tracing"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	EnableProfiler bool   `yaml:"enable_profiler"`
}

func Default() Config {
	return Config{
		APITimeout:    10 * time.Second,
		Currency:      "CNY",
		StorageDriver: storage.DriverSQLite,
		SQLitePath:    ".storefront/state.db",
		SessionTTL:    48 * time.Hour,
		MaxSessions:   10000,
		LoginPath:     "/login",
		ForbiddenPath: "/",
		AlertBuffer:   32,
		Port:          "8080",
		LogLevel:      "info",
	}
}

// Load reads path (when not empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && v != "" {
			*target = v
		}
	}
	var errs []error
	dur := func(key string, target *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = d
		}
	}
	flag := func(key string, target *bool) {
		if v, ok := lookup(key); ok && v != "" {
			*target = v == "1" || v == "true"
		}
	}

	str("API_BASE_URL", &c.APIBaseURL)
	dur("API_TIMEOUT", &c.APITimeout)
	str("CURRENCY", &c.Currency)
	str("STORAGE_DRIVER", &c.StorageDriver)
	str("SQLITE_PATH", &c.SQLitePath)
	str("REDIS_URL", &c.RedisURL)
	dur("SESSION_TTL", &c.SessionTTL)
	str("LOGIN_PATH", &c.LoginPath)
	str("FORBIDDEN_PATH", &c.ForbiddenPath)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("PORT", &c.Port)
	str("BASE_URL", &c.BaseURL)
	str("LOG_LEVEL", &c.LogLevel)
	flag("ENABLE_TRACING", &c.EnableTracing)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)
	flag("ENABLE_PROFILER", &c.EnableProfiler)
	num := func(key string, target *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = n
		}
	}
	num("ALERT_BUFFER", &c.AlertBuffer)
	num("MAX_SESSIONS", &c.MaxSessions)
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %v", errs)
	}
	return nil
}

// Require fails when the backend address is missing, as the server cannot
// do anything useful without it.
func (c Config) Require() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("environment variable %q not set", "API_BASE_URL")
	}
	return nil
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:     c.StorageDriver,
		SQLitePath: c.SQLitePath,
		Redis: storage.RedisOptions{
			URL:       c.RedisURL,
			Namespace: "storefront",
			TTL:       c.SessionTTL,
		},
	}
}
