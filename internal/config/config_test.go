package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Scoring.Court != "court-1" || !cfg.Scoring.Announce {
		t.Fatalf("unexpected scoring defaults %+v", cfg.Scoring)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courtcall.yaml")
	data := []byte(`runtime_name: courtside
scoring:
  court: center
  announcement_voice: en-GB
  recognize_partials: true
match_store:
  retention_mode: ephemeral
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuntimeName != "courtside" || cfg.Scoring.Court != "center" || cfg.Scoring.AnnouncementVoice != "en-GB" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.Scoring.RecognizePartials {
		t.Fatalf("expected recognize_partials from file")
	}
	if cfg.Scoring.AnnouncementVolume != 0.8 {
		t.Fatalf("expected default volume to survive partial file, got %v", cfg.Scoring.AnnouncementVolume)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COURTCALL_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("COURTCALL_BUS_USERNAME", "alice")
	t.Setenv("COURTCALL_BUS_PASSWORD", "secret")
	t.Setenv("COURTCALL_BUS_TLS_INSECURE", "true")
	t.Setenv("COURTCALL_BUS_CONNECT_TIMEOUT_MS", "5000")
	t.Setenv("COURTCALL_MATCH_STORE_PATH", "./tmp.db")
	t.Setenv("COURTCALL_MATCH_STORE_RETENTION_DAYS", "7")
	t.Setenv("COURTCALL_MATCH_STORE_MAX_MATCHES", "123")
	t.Setenv("COURTCALL_MATCH_STORE_VACUUM_ON_START", "true")
	t.Setenv("COURTCALL_SCORING_COURT", "court-7")
	t.Setenv("COURTCALL_SCORING_ANNOUNCEMENT_VOLUME", "0.25")
	t.Setenv("COURTCALL_SCORING_AUTO_END_MATCHES", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatalf("expected credentials override")
	}
	if !cfg.Bus.TLSInsecure {
		t.Fatal("expected tls insecure override true")
	}
	if cfg.Bus.ConnectTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.Bus.ConnectTimeout)
	}
	if cfg.MatchStore.Path != "./tmp.db" {
		t.Fatalf("expected match store path override")
	}
	if cfg.MatchStore.RetentionDays != 7 {
		t.Fatalf("expected match store retention days override")
	}
	if cfg.MatchStore.MaxMatches != 123 {
		t.Fatalf("expected match store max matches override")
	}
	if !cfg.MatchStore.VacuumOnStart {
		t.Fatalf("expected match store vacuum flag override")
	}
	if cfg.Scoring.Court != "court-7" {
		t.Fatalf("expected court override")
	}
	if cfg.Scoring.AnnouncementVolume != 0.25 {
		t.Fatalf("expected volume override, got %v", cfg.Scoring.AnnouncementVolume)
	}
	if !cfg.Scoring.AutoEndMatches {
		t.Fatalf("expected auto end override")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Telemetry.LogLevel = "loud" }},
		{name: "bad retention", mutate: func(c *Config) { c.MatchStore.RetentionMode = "session" }},
		{name: "court with dot", mutate: func(c *Config) { c.Scoring.Court = "court.1" }},
		{name: "volume too high", mutate: func(c *Config) { c.Scoring.AnnouncementVolume = 1.5 }},
		{name: "exec stt without command", mutate: func(c *Config) { c.STT.Enabled = true; c.STT.Mode = "exec" }},
		{name: "unknown tts mode", mutate: func(c *Config) { c.TTS.Enabled = true; c.TTS.Mode = "cloud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
