// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package config loads the application configuration from a YAML
// file, environment variables, and command-line flags, in ascending
// order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables that override config
// keys. A double underscore separates nesting levels:
// INKPRESS_SERVER__ADDR overrides server.addr.
const envPrefix = "INKPRESS_"

// Config is the full application configuration.
type Config struct {
	Server struct {
		Addr          string        `koanf:"addr"`
		SecureCookies bool          `koanf:"secure_cookies"`
		SessionTTL    time.Duration `koanf:"session_ttl"`
		FlashKey      string        `koanf:"flash_key"`
	} `koanf:"server"`

	Observability struct {
		Addr string `koanf:"addr"`
	} `koanf:"observability"`

	Database struct {
		URL      string `koanf:"url"`
		MaxConns int32  `koanf:"max_conns"`
	} `koanf:"database"`

	Email struct {
		BaseURL string        `koanf:"base_url"`
		Sender  string        `koanf:"sender"`
		Token   string        `koanf:"token"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"email"`

	Hash struct {
		Workers   int `koanf:"workers"`
		QueueSize int `koanf:"queue_size"`
	} `koanf:"hash"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.SessionTTL = 24 * time.Hour
	cfg.Observability.Addr = "127.0.0.1:9100"
	cfg.Database.MaxConns = 10
	cfg.Email.Timeout = 10 * time.Second
	cfg.Hash.Workers = 4
	cfg.Hash.QueueSize = 64
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is an error only when the path was given explicitly.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, oops.Code("CONFIG_FILE_MISSING").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
			return key, value
		},
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return &cfg, nil
}
