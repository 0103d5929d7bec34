// Package config resolves sentimentd settings from defaults, an optional
// config file and the environment. Flags are applied by the caller last.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sentimentd/internal/pipeline"
)

// Defaults.
const (
	DefaultAddr         = ":8080"
	DefaultModelID      = "distilbert-base-uncased-finetuned-sst-2-english"
	DefaultBackend      = pipeline.BackendHFInference
	DefaultHFEndpoint   = "https://router.huggingface.co/hf-inference"
	DefaultHFHubURL     = "https://huggingface.co"
	DefaultMaxBodyBytes = 1 << 20
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultNATSSubject  = "sentimentd.requests"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelID   string `json:"model_id" yaml:"model_id" toml:"model_id"`
	Backend   string `json:"backend" yaml:"backend" toml:"backend"`
	Preload   bool   `json:"preload" yaml:"preload" toml:"preload"`
	Serialize bool   `json:"serialize_inference" yaml:"serialize_inference" toml:"serialize_inference"`

	HFEndpoint string `json:"hf_endpoint" yaml:"hf_endpoint" toml:"hf_endpoint"`
	HFHubURL   string `json:"hf_hub_url" yaml:"hf_hub_url" toml:"hf_hub_url"`
	// HFToken is only taken from the environment.
	HFToken string `json:"-" yaml:"-" toml:"-"`

	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`

	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled" toml:"metrics_enabled"`
	NATSURL        string `json:"nats_url" yaml:"nats_url" toml:"nats_url"`
	NATSSubject    string `json:"nats_subject" yaml:"nats_subject" toml:"nats_subject"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		ModelID:        DefaultModelID,
		Backend:        DefaultBackend,
		HFEndpoint:     DefaultHFEndpoint,
		HFHubURL:       DefaultHFHubURL,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		MetricsEnabled: true,
		NATSSubject:    DefaultNATSSubject,
	}
}

// ApplyEnv overlays environment variables on cfg. getenv is usually os.Getenv.
// Malformed numeric or boolean values are reported and leave cfg unchanged
// for that key.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	str("SENTIMENTD_ADDR", &cfg.Addr)
	str("HF_MODEL_ID", &cfg.ModelID)
	str("SENTIMENTD_BACKEND", &cfg.Backend)
	str("HF_INFERENCE_URL", &cfg.HFEndpoint)
	str("HF_HUB_URL", &cfg.HFHubURL)
	str("HF_TOKEN", &cfg.HFToken)
	str("SENTIMENTD_LOG_LEVEL", &cfg.LogLevel)
	str("SENTIMENTD_LOG_FORMAT", &cfg.LogFormat)
	str("SENTIMENTD_NATS_URL", &cfg.NATSURL)
	str("SENTIMENTD_NATS_SUBJECT", &cfg.NATSSubject)
	boolean("SENTIMENTD_PRELOAD", &cfg.Preload)
	boolean("SENTIMENTD_SERIALIZE", &cfg.Serialize)
	boolean("SENTIMENTD_METRICS", &cfg.MetricsEnabled)
	if v := strings.TrimSpace(getenv("SENTIMENTD_MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SENTIMENTD_MAX_BODY_BYTES: %w", err))
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	if v := getenv("SENTIMENTD_CORS_ORIGINS"); strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = SplitCSV(v)
		cfg.CORSEnabled = len(cfg.CORSOrigins) > 0
	}
	return errors.Join(errs...)
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ModelID) == "" {
		errs = append(errs, errors.New("model_id must not be empty"))
	}
	switch c.Backend {
	case pipeline.BackendHFInference, pipeline.BackendLexicon:
	default:
		errs = append(errs, fmt.Errorf("backend %q: %w", c.Backend, pipeline.ErrUnknownBackend))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
