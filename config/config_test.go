package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != ":8080" {
		t.Errorf("default listen = %q, want :8080", cfg.Server.Listen)
	}

	if cfg.Fetcher.Timeout != 15*time.Second {
		t.Errorf("default fetcher timeout = %v, want 15s", cfg.Fetcher.Timeout)
	}

	if !cfg.Fetcher.Retry {
		t.Error("fetch retry should default to enabled")
	}

	if cfg.Advisor.Provider != "noop" {
		t.Errorf("default advisor provider = %q, want noop", cfg.Advisor.Provider)
	}

	if cfg.Advisor.APIKey != "" {
		t.Error("default advisor api key should be empty")
	}

	if cfg.Store.Strict {
		t.Error("strict persistence should default to off")
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) returned error: %v", err)
	}

	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q, want default :8080", cfg.Server.Listen)
	}
}

func TestLoad_MissingFileSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(&path)
	if err != nil {
		t.Fatalf("Load with missing file returned error: %v", err)
	}

	if cfg.Fetcher.UserAgent != "healthscan/1.0" {
		t.Errorf("user agent = %q, want default", cfg.Fetcher.UserAgent)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := `
server:
  listen: ":9090"
  analyze_timeout: 90s
advisor:
  provider: gemini
  api_key: file-secret
store:
  path: /tmp/snapshots.db
  strict: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(&path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Listen != ":9090" {
		t.Errorf("listen = %q, want :9090", cfg.Server.Listen)
	}

	if cfg.Server.AnalyzeTimeout != 90*time.Second {
		t.Errorf("analyze timeout = %v, want 90s", cfg.Server.AnalyzeTimeout)
	}

	if cfg.Advisor.Provider != "gemini" || cfg.Advisor.APIKey != "file-secret" {
		t.Errorf("advisor = %+v", cfg.Advisor)
	}

	if cfg.Store.Path != "/tmp/snapshots.db" || !cfg.Store.Strict {
		t.Errorf("store = %+v", cfg.Store)
	}

	// untouched sections keep their defaults
	if cfg.Fetcher.Timeout != 15*time.Second {
		t.Errorf("fetcher timeout = %v, want default 15s", cfg.Fetcher.Timeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(path, []byte("advisor:\n  api_key: file-secret\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	t.Setenv("HEALTHSCAN_ADVISOR_API_KEY", "env-secret")
	t.Setenv("HEALTHSCAN_SERVER_LISTEN", ":7070")
	t.Setenv("HEALTHSCAN_STORE_PATH", "/tmp/env.db")

	cfg, err := Load(&path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Advisor.APIKey != "env-secret" {
		t.Errorf("api key = %q, want env-secret", cfg.Advisor.APIKey)
	}

	if cfg.Server.Listen != ":7070" {
		t.Errorf("listen = %q, want :7070", cfg.Server.Listen)
	}

	if cfg.Store.Path != "/tmp/env.db" {
		t.Errorf("store path = %q, want /tmp/env.db", cfg.Store.Path)
	}
}

func TestEnvKeyMapper(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"HEALTHSCAN_ADVISOR_API_KEY", "advisor.api_key"},
		{"HEALTHSCAN_SERVER_MAX_BODY_SIZE", "server.max_body_size"},
		{"HEALTHSCAN_STORE_STRICT", "store.strict"},
		{"HEALTHSCAN_FETCHER_USER_AGENT", "fetcher.user_agent"},
		{"HEALTHSCAN_UNKNOWN", "unknown"},
	}

	for _, tc := range cases {
		if got := envKeyMapper(tc.in); got != tc.want {
			t.Errorf("envKeyMapper(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
