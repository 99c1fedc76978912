package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestLoadLegacyJSON tests that a config.json in the original credential
// format loads with defaults applied
func TestLoadLegacyJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{
		"RUBRIK_BASE_URL": "https://acme.example.com",
		"RUBRIK_CLIENT_ID": "client|abc",
		"RUBRIK_CLIENT_SECRET": "s3cret"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Platform.BaseURL != "https://acme.example.com" {
		t.Errorf("BaseURL = %s", cfg.Platform.BaseURL)
	}
	if cfg.Platform.ClientID != "client|abc" || cfg.Platform.ClientSecret != "s3cret" {
		t.Error("credentials not loaded")
	}
	if cfg.Poll.Interval.Std() != 5*time.Second || cfg.Poll.MaxAttempts != 72 {
		t.Errorf("poll defaults = %v/%d", cfg.Poll.Interval, cfg.Poll.MaxAttempts)
	}
	if cfg.Mount.NamePrefix != "vm-mount-" {
		t.Errorf("NamePrefix = %s", cfg.Mount.NamePrefix)
	}
	if cfg.Mount.GracePeriod.Std() != 10*time.Second {
		t.Errorf("GracePeriod = %v", cfg.Mount.GracePeriod)
	}
}

// TestLoadYAML tests the YAML variant with duration strings
func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
platform:
  base_url: https://acme.example.com
  client_id: client-1
  client_secret: s3cret
  timeout: 30s
poll:
  interval: 2s
  max_attempts: 10
mount:
  name_prefix: drill-
  grace_period: 3s
  teardown_retries: 5
  teardown_delay: 1s
store:
  path: /tmp/drills.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Platform.Timeout.Std() != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Platform.Timeout)
	}
	if cfg.Poll.Interval.Std() != 2*time.Second || cfg.Poll.MaxAttempts != 10 {
		t.Errorf("poll = %v/%d", cfg.Poll.Interval, cfg.Poll.MaxAttempts)
	}
	if cfg.Mount.NamePrefix != "drill-" || cfg.Mount.TeardownRetries != 5 {
		t.Errorf("mount = %+v", cfg.Mount)
	}
	if cfg.Store.Path != "/tmp/drills.db" {
		t.Errorf("store path = %s", cfg.Store.Path)
	}
}

// TestEnvOverridesCredentials tests the environment override hooks
func TestEnvOverridesCredentials(t *testing.T) {
	path := writeTemp(t, "config.json", `{
		"RUBRIK_BASE_URL": "https://acme.example.com",
		"RUBRIK_CLIENT_ID": "from-file",
		"RUBRIK_CLIENT_SECRET": "from-file"
	}`)

	t.Setenv(EnvClientID, "from-env")
	t.Setenv(EnvClientSecret, "also-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Platform.ClientID != "from-env" || cfg.Platform.ClientSecret != "also-from-env" {
		t.Errorf("credentials = %s/%s, want env values", cfg.Platform.ClientID, cfg.Platform.ClientSecret)
	}
}

// TestLoadRejectsInvalid tests validation failures
func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing credentials", "config.json", `{"RUBRIK_BASE_URL": "https://acme.example.com"}`},
		{"bad url", "config.json", `{"RUBRIK_BASE_URL": "not a url", "RUBRIK_CLIENT_ID": "a", "RUBRIK_CLIENT_SECRET": "b"}`},
		{"unparseable", "config.json", `{"RUBRIK_BASE_URL": `},
		{"unknown format", "config.toml", `base_url = "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want an error")
			}
		})
	}
}

// TestDurationUnmarshal tests the duration wrapper's accepted forms
func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Duration
		err  bool
	}{
		{"string", `"90s"`, 90 * time.Second, false},
		{"minutes", `"2m"`, 2 * time.Minute, false},
		{"bare seconds", `15`, 15 * time.Second, false},
		{"fractional seconds", `0.5`, 500 * time.Millisecond, false},
		{"garbage", `"soon"`, 0, true},
		{"wrong type", `[1]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.json))
			if tt.err {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON failed: %v", err)
			}
			if d.Std() != tt.want {
				t.Errorf("duration = %v, want %v", d.Std(), tt.want)
			}
		})
	}
}
