package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
gazette:
  base_url: https://example.org/do
  strict_availability: true
http:
  timeout_seconds: 20
smtp:
  host: smtp.example.org
  port: 587
  username: watcher
  password: hunter2
  sender: watcher@example.org
  operations: ops@example.org
search:
  terms: ["contrato 123", "licitação 456"]
retry:
  attempts: 3
  interval_minutes: 30
serve:
  port: 9090
  daily_at: "07:30"
logging:
  development: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gazette.BaseURL != "https://example.org/do" || !cfg.Gazette.StrictAvailability {
		t.Fatalf("expected gazette overrides to apply: %+v", cfg.Gazette)
	}
	if cfg.FetchTimeout() != 20*time.Second {
		t.Fatalf("expected 20s fetch timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.RetryInterval() != 30*time.Minute {
		t.Fatalf("expected 30m retry interval, got %v", cfg.RetryInterval())
	}
	if cfg.Retry.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Retry.Attempts)
	}
	if cfg.Serve.Port != 9090 || cfg.Serve.DailyAt != "07:30" {
		t.Fatalf("expected serve overrides to apply: %+v", cfg.Serve)
	}

	reg := cfg.Registry()
	if reg.Mode() != gazette.FlatTerms || reg.Len() != 2 {
		t.Fatalf("expected flat registry with 2 terms, got mode=%v len=%d", reg.Mode(), reg.Len())
	}
}

func TestLoadDirectoryModePreservesOrder(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.org
  sender: watcher@example.org
  operations: ops@example.org
search:
  directory:
    - name: Maria Silva
      address: maria@x.org
    - name: João Souza
      address: joao@x.org
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reg := cfg.Registry()
	if reg.Mode() != gazette.Directory {
		t.Fatalf("expected directory mode, got %v", reg.Mode())
	}
	entries := reg.Entries()
	if len(entries) != 2 || entries[0].Term != "Maria Silva" || entries[1].Term != "João Souza" {
		t.Fatalf("expected ordered directory entries, got %+v", entries)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
smtp:
  host: smtp.example.org
  sender: watcher@example.org
  operations: ops@example.org
search:
  terms: ["x"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Port != 587 {
		t.Fatalf("expected default submission port 587, got %d", cfg.SMTP.Port)
	}
	if cfg.Retry.Attempts != 4 || cfg.RetryInterval() != time.Hour {
		t.Fatalf("expected default retry budget 4x1h, got %dx%v", cfg.Retry.Attempts, cfg.RetryInterval())
	}
	if cfg.Gazette.BaseURL != gazette.DefaultBaseURL {
		t.Fatalf("expected default base URL, got %q", cfg.Gazette.BaseURL)
	}
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	t.Setenv("DOWATCH_SMTP_HOST", "smtp.example.org")
	t.Setenv("DOWATCH_SMTP_SENDER", "watcher@example.org")
	t.Setenv("DOWATCH_SMTP_OPERATIONS", "ops@example.org")
	t.Setenv("DOWATCH_SEARCH_TERMS", "contrato 123,ordem de serviço")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reg := cfg.Registry()
	if reg.Mode() != gazette.FlatTerms || reg.Len() != 2 {
		t.Fatalf("expected flat registry with 2 terms, got mode=%v len=%d", reg.Mode(), reg.Len())
	}
	entries := reg.Entries()
	if entries[0].Term != "contrato 123" || entries[1].Term != "ordem de serviço" {
		t.Fatalf("expected comma-split terms, got %+v", entries)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing sender",
			yaml: "smtp:\n  host: smtp.example.org\n  operations: ops@example.org\nsearch:\n  terms: [\"x\"]\n",
		},
		{
			name: "missing registry",
			yaml: "smtp:\n  host: smtp.example.org\n  sender: a@b.c\n  operations: ops@example.org\n",
		},
		{
			name: "both registry shapes",
			yaml: "smtp:\n  host: smtp.example.org\n  sender: a@b.c\n  operations: ops@example.org\nsearch:\n  terms: [\"x\"]\n  directory:\n    - name: y\n      address: y@x.org\n",
		},
		{
			name: "bad daily_at",
			yaml: "smtp:\n  host: smtp.example.org\n  sender: a@b.c\n  operations: ops@example.org\nsearch:\n  terms: [\"x\"]\nserve:\n  daily_at: \"25:99\"\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var ce *gazette.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}
