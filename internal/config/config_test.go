package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Upload.MaxAttempts != 5 {
		t.Errorf("upload.max_attempts = %d, want 5", cfg.Upload.MaxAttempts)
	}
	if cfg.Upload.BaseDelay != 30*time.Second {
		t.Errorf("upload.base_delay = %v, want 30s", cfg.Upload.BaseDelay)
	}
	if cfg.Recording.Backend != "auto" {
		t.Errorf("recording.backend = %q, want auto", cfg.Recording.Backend)
	}
	if cfg.Recording.Channels != 1 {
		t.Errorf("recording.channels = %d, want 1", cfg.Recording.Channels)
	}
	if !cfg.Notify.Desktop {
		t.Error("notify.desktop = false, want true by default")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "voicedrop.yaml")
	content := `
server:
  url: https://uploads.example.com
  timeout: 45s
recording:
  backend: arecord
  sample_rate: 48000
upload:
  max_attempts: 3
  base_delay: 10s
  resume_on_reconnect: true
notify:
  desktop: false
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.URL != "https://uploads.example.com" {
		t.Errorf("server.url = %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("server.timeout = %v, want 45s", cfg.Server.Timeout)
	}
	if cfg.Recording.Backend != "arecord" {
		t.Errorf("recording.backend = %q, want arecord", cfg.Recording.Backend)
	}
	if cfg.Recording.SampleRate != 48000 {
		t.Errorf("recording.sample_rate = %d, want 48000", cfg.Recording.SampleRate)
	}
	if cfg.Upload.MaxAttempts != 3 {
		t.Errorf("upload.max_attempts = %d, want 3", cfg.Upload.MaxAttempts)
	}
	if !cfg.Upload.ResumeOnReconnect {
		t.Error("upload.resume_on_reconnect = false, want true")
	}
	if cfg.Notify.Desktop {
		t.Error("notify.desktop = true, want false")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := defaultConfig
		c.Server.URL = "http://example.com"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty server url allowed at load time", func(c *Config) { c.Server.URL = "" }, false},
		{"bad server url scheme", func(c *Config) { c.Server.URL = "ftp://example.com" }, true},
		{"server url without host", func(c *Config) { c.Server.URL = "http://" }, true},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"unknown backend", func(c *Config) { c.Recording.Backend = "pulse" }, true},
		{"zero sample rate", func(c *Config) { c.Recording.SampleRate = 0 }, true},
		{"invalid channels", func(c *Config) { c.Recording.Channels = 3 }, true},
		{"empty recording directory", func(c *Config) { c.Recording.Directory = "" }, true},
		{"zero max attempts", func(c *Config) { c.Upload.MaxAttempts = 0 }, true},
		{"negative base delay", func(c *Config) { c.Upload.BaseDelay = -time.Second }, true},
		{"zero probe interval", func(c *Config) { c.Connectivity.ProbeInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProbeAddress(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		url      string
		want     string
	}{
		{"explicit address wins", "probe.example.com:53", "http://example.com", "probe.example.com:53"},
		{"derived from http url", "", "http://example.com", "example.com:80"},
		{"derived from https url", "", "https://example.com", "example.com:443"},
		{"explicit port preserved", "", "http://example.com:9000", "example.com:9000"},
		{"no url no address", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig
			cfg.Connectivity.ProbeAddress = tt.explicit
			cfg.Server.URL = tt.url
			if got := cfg.ProbeAddress(); got != tt.want {
				t.Errorf("ProbeAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}
