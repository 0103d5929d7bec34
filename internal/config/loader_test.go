package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmodel_id: m1\nbackend: lexicon\nserialize_inference: true\nmax_body_bytes: 2048\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":9999" || cfg.ModelID != "m1" || cfg.Backend != "lexicon" || !cfg.Serialize || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	// untouched keys keep defaults
	if cfg.HFEndpoint != DefaultHFEndpoint || cfg.LogFormat != DefaultLogFormat || !cfg.MetricsEnabled {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","model_id":"m2","metrics_enabled":false,"cors_enabled":true,"cors_allowed_origins":["http://a"]}`)
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":7070" || cfg.ModelID != "m2" || cfg.MetricsEnabled || !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodel_id=\"m3\"\nnats_url=\"nats://127.0.0.1:4222\"\nlog_level=\"debug\"\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":8081" || cfg.ModelID != "m3" || cfg.NATSURL != "nats://127.0.0.1:4222" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil { t.Fatalf("expected error on empty path") }
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil { t.Fatalf("expected unsupported extension error") }
	bad := writeTempFile(t, d, "bad.json", "{")
	if _, err := Load(bad); err == nil { t.Fatalf("expected parse error") }
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil { t.Fatalf("expected missing file error") }
}

func TestLoadTokenNotReadFromFile(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"HFToken":"leak","hf_token":"leak"}`)
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.HFToken != "" { t.Fatalf("token must only come from env, got %q", cfg.HFToken) }
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil { t.Skip("no home dir") }
	got, err := expandHome("~/x/y.yaml")
	if err != nil { t.Fatalf("expand: %v", err) }
	if got != filepath.Join(home, "x/y.yaml") { t.Fatalf("got %q", got) }
	if got, _ := expandHome("/abs"); got != "/abs" { t.Fatalf("got %q", got) }
}
