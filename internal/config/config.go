package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	MatchStore  MatchStoreConfig `yaml:"match_store"`
	STT         STTConfig        `yaml:"stt"`
	TTS         TTSConfig        `yaml:"tts"`
	Scoring     ScoringConfig    `yaml:"scoring"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
	RequestTimeout int      `yaml:"request_timeout_ms"`
}

type MatchStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxMatches    int    `yaml:"max_matches"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type STTConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Mode           string `yaml:"mode"` // mock, exec
	Command        string `yaml:"command"`
	ModelPath      string `yaml:"model_path"`
	Language       string `yaml:"language"`
	Prompt         string `yaml:"prompt"`
	SampleRate     int    `yaml:"sample_rate"`
	Channels       int    `yaml:"channels"`
	PartialEveryMS int    `yaml:"partial_every_ms"`
	PublishInterim bool   `yaml:"publish_interim"`
}

type TTSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Mode            string `yaml:"mode"` // mock, exec
	Command         string `yaml:"command"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ChunkDurationMS int    `yaml:"chunk_duration_ms"`
}

// ScoringConfig holds the court-side settings that shape how transcripts
// are applied and announced.
type ScoringConfig struct {
	Court              string  `yaml:"court"`
	Announce           bool    `yaml:"announce"`
	AnnouncementVoice  string  `yaml:"announcement_voice"`
	AnnouncementVolume float64 `yaml:"announcement_volume"`
	RecognizePartials  bool    `yaml:"recognize_partials"`
	AutoEndMatches     bool    `yaml:"auto_end_matches"`
}

func Default() Config {
	return Config{
		RuntimeName: "courtcall",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
			RequestTimeout: 2000,
		},
		MatchStore: MatchStoreConfig{
			Path:          "./data/courtcall.db",
			RetentionMode: "persistent",
			RetentionDays: 365,
			MaxMatches:    1000,
		},
		STT: STTConfig{
			Enabled:        false,
			Mode:           "mock",
			SampleRate:     16000,
			Channels:       1,
			PartialEveryMS: 800,
			Prompt:         "Tennis and pickleball score calls: love, fifteen, thirty, forty, deuce, advantage, game, side out.",
		},
		TTS: TTSConfig{
			Enabled:         false,
			Mode:            "mock",
			SampleRate:      22050,
			Channels:        1,
			ChunkDurationMS: 400,
		},
		Scoring: ScoringConfig{
			Court:              "court-1",
			Announce:           true,
			AnnouncementVoice:  "en-US",
			AnnouncementVolume: 0.8,
			RecognizePartials:  false,
			AutoEndMatches:     false,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "COURTCALL_RUNTIME_NAME")
	overrideString(&cfg.Environment, "COURTCALL_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "COURTCALL_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "COURTCALL_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "COURTCALL_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "COURTCALL_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "COURTCALL_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "COURTCALL_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "COURTCALL_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "COURTCALL_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "COURTCALL_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "COURTCALL_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "COURTCALL_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "COURTCALL_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "COURTCALL_BUS_CONNECT_TIMEOUT_MS")
	overrideInt(&cfg.Bus.RequestTimeout, "COURTCALL_BUS_REQUEST_TIMEOUT_MS")
	overrideString(&cfg.MatchStore.Path, "COURTCALL_MATCH_STORE_PATH")
	overrideString(&cfg.MatchStore.RetentionMode, "COURTCALL_MATCH_STORE_RETENTION_MODE")
	overrideInt(&cfg.MatchStore.RetentionDays, "COURTCALL_MATCH_STORE_RETENTION_DAYS")
	overrideInt(&cfg.MatchStore.MaxMatches, "COURTCALL_MATCH_STORE_MAX_MATCHES")
	overrideBool(&cfg.MatchStore.VacuumOnStart, "COURTCALL_MATCH_STORE_VACUUM_ON_START")
	overrideBool(&cfg.STT.Enabled, "COURTCALL_STT_ENABLED")
	overrideString(&cfg.STT.Mode, "COURTCALL_STT_MODE")
	overrideString(&cfg.STT.Command, "COURTCALL_STT_COMMAND")
	overrideString(&cfg.STT.ModelPath, "COURTCALL_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "COURTCALL_STT_LANGUAGE")
	overrideString(&cfg.STT.Prompt, "COURTCALL_STT_PROMPT")
	overrideInt(&cfg.STT.SampleRate, "COURTCALL_STT_SAMPLE_RATE")
	overrideInt(&cfg.STT.Channels, "COURTCALL_STT_CHANNELS")
	overrideInt(&cfg.STT.PartialEveryMS, "COURTCALL_STT_PARTIAL_EVERY_MS")
	overrideBool(&cfg.STT.PublishInterim, "COURTCALL_STT_PUBLISH_INTERIM")
	overrideBool(&cfg.TTS.Enabled, "COURTCALL_TTS_ENABLED")
	overrideString(&cfg.TTS.Mode, "COURTCALL_TTS_MODE")
	overrideString(&cfg.TTS.Command, "COURTCALL_TTS_COMMAND")
	overrideInt(&cfg.TTS.SampleRate, "COURTCALL_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.Channels, "COURTCALL_TTS_CHANNELS")
	overrideInt(&cfg.TTS.ChunkDurationMS, "COURTCALL_TTS_CHUNK_DURATION_MS")
	overrideString(&cfg.Scoring.Court, "COURTCALL_SCORING_COURT")
	overrideBool(&cfg.Scoring.Announce, "COURTCALL_SCORING_ANNOUNCE")
	overrideString(&cfg.Scoring.AnnouncementVoice, "COURTCALL_SCORING_ANNOUNCEMENT_VOICE")
	overrideFloat(&cfg.Scoring.AnnouncementVolume, "COURTCALL_SCORING_ANNOUNCEMENT_VOLUME")
	overrideBool(&cfg.Scoring.RecognizePartials, "COURTCALL_SCORING_RECOGNIZE_PARTIALS")
	overrideBool(&cfg.Scoring.AutoEndMatches, "COURTCALL_SCORING_AUTO_END_MATCHES")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

// Validate reports the first invalid setting in cfg.
func Validate(cfg Config) error {
	return validate(cfg)
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	switch strings.ToLower(cfg.Telemetry.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("telemetry.log_level must be one of debug|info|warn|error")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Bus.RequestTimeout <= 0 {
		return errors.New("bus.request_timeout_ms must be positive")
	}
	switch cfg.MatchStore.RetentionMode {
	case "ephemeral", "persistent":
		// ok
	default:
		return errors.New("match_store.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.MatchStore.RetentionMode == "persistent" && cfg.MatchStore.Path == "" {
		return errors.New("match_store.path must not be empty")
	}
	if cfg.MatchStore.RetentionDays < 0 {
		return errors.New("match_store.retention_days must be >= 0")
	}
	if cfg.MatchStore.MaxMatches < 0 {
		return errors.New("match_store.max_matches must be >= 0")
	}
	if cfg.STT.Enabled {
		switch cfg.STT.Mode {
		case "mock", "exec":
		default:
			return errors.New("stt.mode must be one of mock|exec")
		}
		if cfg.STT.SampleRate <= 0 {
			return errors.New("stt.sample_rate must be positive")
		}
		if cfg.STT.Channels <= 0 {
			return errors.New("stt.channels must be positive")
		}
		if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
			return errors.New("stt.command must be set when mode=exec")
		}
	}
	if cfg.TTS.Enabled {
		switch cfg.TTS.Mode {
		case "mock", "exec":
		default:
			return errors.New("tts.mode must be one of mock|exec")
		}
		if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
			return errors.New("tts.command must be set when mode=exec")
		}
		if cfg.TTS.SampleRate <= 0 {
			return errors.New("tts.sample_rate must be positive")
		}
		if cfg.TTS.Channels <= 0 {
			return errors.New("tts.channels must be positive")
		}
	}
	if strings.TrimSpace(cfg.Scoring.Court) == "" {
		return errors.New("scoring.court must not be empty")
	}
	if strings.ContainsAny(cfg.Scoring.Court, ".*> ") {
		return errors.New("scoring.court must be a single subject token")
	}
	if cfg.Scoring.AnnouncementVolume < 0 || cfg.Scoring.AnnouncementVolume > 1 {
		return errors.New("scoring.announcement_volume must be between 0 and 1")
	}
	return nil
}
