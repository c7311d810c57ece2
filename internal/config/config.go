package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	Enabled        bool   `yaml:"enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Hotkey      HotkeyConfig      `yaml:"hotkey"`
	Audio       AudioConfig       `yaml:"audio"`
	Recording   RecordingConfig   `yaml:"recording"`
	Transcribe  TranscribeConfig  `yaml:"transcribe"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
	Output      OutputConfig      `yaml:"output"`
	History     HistoryConfig     `yaml:"history"`
	Integration IntegrationConfig `yaml:"integration"`
	Notify      NotifyConfig      `yaml:"notify"`
}

type HotkeyConfig struct {
	RecordChord string `yaml:"record_chord"`
	PanelChord  string `yaml:"panel_chord"`
}

type AudioConfig struct {
	Backend         string `yaml:"backend"` // portaudio, exec, mock
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	RecorderCommand string `yaml:"recorder_command"`
}

type RecordingConfig struct {
	MinDurationMS int `yaml:"min_duration_ms"`
}

type TranscribeConfig struct {
	Backend        string               `yaml:"backend"` // groq, local, mock
	APIKey         string               `yaml:"api_key"`
	APIBase        string               `yaml:"api_base"`
	Model          string               `yaml:"model"`
	Language       string               `yaml:"language"`
	VocabularyFile string               `yaml:"vocabulary_file"`
	MaxRetries     int                  `yaml:"max_retries"`
	TimeoutS       int                  `yaml:"timeout_s"`
	Local          LocalRecognizeConfig `yaml:"local"`
}

type LocalRecognizeConfig struct {
	Command      string `yaml:"command"`
	Model        string `yaml:"model"`
	ModelsDir    string `yaml:"models_dir"`
	AutoDownload bool   `yaml:"auto_download"`
}

type CleanupConfig struct {
	Mode                string    `yaml:"mode"`
	PreserveIntentional bool      `yaml:"preserve_intentional"`
	LLM                 LLMConfig `yaml:"llm"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // off, openai, ollama, mock
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutS    int     `yaml:"timeout_s"`
}

type OutputConfig struct {
	SkipClipboard  bool `yaml:"skip_clipboard"`
	TypeDelayMS    int  `yaml:"type_delay_ms"`
	PasteSettleMS  int  `yaml:"paste_settle_ms"`
	RestoreDelayMS int  `yaml:"restore_delay_ms"`
	ToolTimeoutS   int  `yaml:"tool_timeout_s"`
	TypeTimeoutS   int  `yaml:"type_timeout_s"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	MaxRecords    int    `yaml:"max_records"`
	RetentionDays int    `yaml:"retention_days"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type IntegrationConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() Config {
	return Config{
		RuntimeName: "handfree",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8090,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			Enabled:        false,
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Hotkey: HotkeyConfig{
			RecordChord: "rightctrl",
			PanelChord:  "ctrl+shift+h",
		},
		Audio: AudioConfig{
			Backend:    "portaudio",
			SampleRate: 16000,
			Channels:   1,
		},
		Recording: RecordingConfig{
			MinDurationMS: 100,
		},
		Transcribe: TranscribeConfig{
			Backend:    "groq",
			APIBase:    "https://api.groq.com/openai/v1",
			Model:      "whisper-large-v3-turbo",
			MaxRetries: 3,
			TimeoutS:   60,
			Local: LocalRecognizeConfig{
				Command:      "whisper-cli",
				Model:        "base.en",
				ModelsDir:    "~/.cache/whisper",
				AutoDownload: true,
			},
		},
		Cleanup: CleanupConfig{
			Mode:                "standard",
			PreserveIntentional: true,
			LLM: LLMConfig{
				Mode:        "off",
				Endpoint:    "http://localhost:11434",
				Model:       "llama3.2:latest",
				MaxTokens:   512,
				Temperature: 0.1,
				TimeoutS:    30,
			},
		},
		Output: OutputConfig{
			SkipClipboard:  false,
			TypeDelayMS:    0,
			PasteSettleMS:  50,
			RestoreDelayMS: 120,
			ToolTimeoutS:   5,
			TypeTimeoutS:   30,
		},
		History: HistoryConfig{
			Enabled:       true,
			Path:          "~/.local/share/handfree/history.db",
			MaxRecords:    500,
			RetentionDays: 0,
		},
		Integration: IntegrationConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := ioutil.ReadFile(path)
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
	expandPaths(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLenient reads the file like Load but tolerates a missing file and
// skips validation. Operator tooling uses it to reach one config
// section without requiring the whole daemon config to be valid.
func LoadLenient(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	expandPaths(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "HANDFREE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "HANDFREE_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "HANDFREE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "HANDFREE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "HANDFREE_TELEMETRY_LOG_LEVEL")
	overrideBool(&cfg.Telemetry.Enabled, "HANDFREE_TELEMETRY_ENABLED")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "HANDFREE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "HANDFREE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "HANDFREE_TELEMETRY_PROMETHEUS_BIND")
	overrideString(&cfg.Hotkey.RecordChord, "HANDFREE_HOTKEY_RECORD_CHORD")
	overrideString(&cfg.Hotkey.PanelChord, "HANDFREE_HOTKEY_PANEL_CHORD")
	overrideString(&cfg.Audio.Backend, "HANDFREE_AUDIO_BACKEND")
	overrideInt(&cfg.Audio.SampleRate, "HANDFREE_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "HANDFREE_AUDIO_CHANNELS")
	overrideString(&cfg.Audio.RecorderCommand, "HANDFREE_AUDIO_RECORDER_COMMAND")
	overrideInt(&cfg.Recording.MinDurationMS, "HANDFREE_MIN_DURATION_MS")
	overrideString(&cfg.Transcribe.Backend, "HANDFREE_TRANSCRIBE_BACKEND")
	overrideString(&cfg.Transcribe.APIKey, "HANDFREE_TRANSCRIBE_API_KEY")
	overrideString(&cfg.Transcribe.APIBase, "HANDFREE_TRANSCRIBE_API_BASE")
	overrideString(&cfg.Transcribe.Model, "HANDFREE_TRANSCRIBE_MODEL")
	overrideString(&cfg.Transcribe.Language, "HANDFREE_LANGUAGE")
	overrideString(&cfg.Transcribe.VocabularyFile, "HANDFREE_VOCABULARY_FILE")
	overrideInt(&cfg.Transcribe.MaxRetries, "HANDFREE_TRANSCRIBE_MAX_RETRIES")
	overrideInt(&cfg.Transcribe.TimeoutS, "HANDFREE_TRANSCRIBE_TIMEOUT_S")
	overrideString(&cfg.Transcribe.Local.Command, "HANDFREE_LOCAL_COMMAND")
	overrideString(&cfg.Transcribe.Local.Model, "HANDFREE_WHISPER_MODEL")
	overrideString(&cfg.Transcribe.Local.ModelsDir, "HANDFREE_MODELS_DIR")
	overrideBool(&cfg.Transcribe.Local.AutoDownload, "HANDFREE_LOCAL_AUTO_DOWNLOAD")
	overrideString(&cfg.Cleanup.Mode, "HANDFREE_CLEANUP_MODE")
	overrideBool(&cfg.Cleanup.PreserveIntentional, "HANDFREE_CLEANUP_PRESERVE_INTENTIONAL")
	overrideString(&cfg.Cleanup.LLM.Mode, "HANDFREE_CLEANUP_LLM_MODE")
	overrideString(&cfg.Cleanup.LLM.Endpoint, "HANDFREE_CLEANUP_LLM_ENDPOINT")
	overrideString(&cfg.Cleanup.LLM.APIKey, "HANDFREE_CLEANUP_LLM_API_KEY")
	overrideString(&cfg.Cleanup.LLM.Model, "HANDFREE_CLEANUP_LLM_MODEL")
	overrideInt(&cfg.Cleanup.LLM.MaxTokens, "HANDFREE_CLEANUP_LLM_MAX_TOKENS")
	overrideFloat(&cfg.Cleanup.LLM.Temperature, "HANDFREE_CLEANUP_LLM_TEMPERATURE")
	overrideInt(&cfg.Cleanup.LLM.TimeoutS, "HANDFREE_CLEANUP_LLM_TIMEOUT_S")
	overrideBool(&cfg.Output.SkipClipboard, "HANDFREE_SKIP_CLIPBOARD")
	overrideInt(&cfg.Output.TypeDelayMS, "HANDFREE_TYPE_DELAY")
	overrideInt(&cfg.Output.PasteSettleMS, "HANDFREE_OUTPUT_PASTE_SETTLE_MS")
	overrideInt(&cfg.Output.RestoreDelayMS, "HANDFREE_OUTPUT_RESTORE_DELAY_MS")
	overrideInt(&cfg.Output.ToolTimeoutS, "HANDFREE_OUTPUT_TOOL_TIMEOUT_S")
	overrideInt(&cfg.Output.TypeTimeoutS, "HANDFREE_OUTPUT_TYPE_TIMEOUT_S")
	overrideBool(&cfg.History.Enabled, "HANDFREE_HISTORY_ENABLED")
	overrideString(&cfg.History.Path, "HANDFREE_HISTORY_PATH")
	overrideInt(&cfg.History.MaxRecords, "HANDFREE_HISTORY_MAX_RECORDS")
	overrideInt(&cfg.History.RetentionDays, "HANDFREE_HISTORY_RETENTION_DAYS")
	overrideBool(&cfg.History.VacuumOnStart, "HANDFREE_HISTORY_VACUUM_ON_START")
	overrideBool(&cfg.Integration.Enabled, "HANDFREE_INTEGRATION_ENABLED")
	overrideBool(&cfg.Integration.Embedded, "HANDFREE_INTEGRATION_EMBEDDED")
	overrideInt(&cfg.Integration.Port, "HANDFREE_INTEGRATION_PORT")
	overrideStringSlice(&cfg.Integration.Servers, "HANDFREE_INTEGRATION_SERVERS")
	overrideString(&cfg.Integration.Username, "HANDFREE_INTEGRATION_USERNAME")
	overrideString(&cfg.Integration.Password, "HANDFREE_INTEGRATION_PASSWORD")
	overrideString(&cfg.Integration.Token, "HANDFREE_INTEGRATION_TOKEN")
	overrideBool(&cfg.Integration.TLSInsecure, "HANDFREE_INTEGRATION_TLS_INSECURE")
	overrideInt(&cfg.Integration.ConnectTimeout, "HANDFREE_INTEGRATION_CONNECT_TIMEOUT_MS")
	overrideBool(&cfg.Notify.Enabled, "HANDFREE_NOTIFY_ENABLED")

	// GROQ_API_KEY is the key name users already export for the Groq CLI
	// tools; honor it when the handfree-specific variable is absent.
	if cfg.Transcribe.APIKey == "" {
		overrideString(&cfg.Transcribe.APIKey, "GROQ_API_KEY")
	}
}

// expandPaths resolves the leading ~ in the path-valued settings so the
// rest of the system deals in absolute paths only.
func expandPaths(cfg *Config) {
	cfg.Transcribe.Local.ModelsDir = expandHome(cfg.Transcribe.Local.ModelsDir)
	cfg.Transcribe.VocabularyFile = expandHome(cfg.Transcribe.VocabularyFile)
	cfg.History.Path = expandHome(cfg.History.Path)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home + strings.TrimPrefix(path, "~")
	}
	return path
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

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty when telemetry is enabled")
	}
	if cfg.Hotkey.RecordChord == "" {
		return errors.New("hotkey.record_chord must not be empty")
	}
	switch cfg.Audio.Backend {
	case "portaudio", "exec", "mock":
	default:
		return errors.New("audio.backend must be one of portaudio|exec|mock")
	}
	if cfg.Audio.Backend == "exec" && cfg.Audio.RecorderCommand == "" {
		return errors.New("audio.recorder_command must be set when backend=exec")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if cfg.Recording.MinDurationMS < 0 {
		return errors.New("recording.min_duration_ms must be >= 0")
	}
	switch cfg.Transcribe.Backend {
	case "groq", "local", "mock":
	default:
		return errors.New("transcribe.backend must be one of groq|local|mock")
	}
	if cfg.Transcribe.Backend == "groq" && cfg.Transcribe.APIKey == "" {
		return errors.New("transcribe.api_key is required for the groq backend (export GROQ_API_KEY or set HANDFREE_TRANSCRIBE_API_KEY)")
	}
	if cfg.Transcribe.Backend == "local" {
		if cfg.Transcribe.Local.Command == "" {
			return errors.New("transcribe.local.command must be set when backend=local")
		}
		if cfg.Transcribe.Local.Model == "" {
			return errors.New("transcribe.local.model must be set when backend=local")
		}
		if cfg.Transcribe.Local.ModelsDir == "" {
			return errors.New("transcribe.local.models_dir must be set when backend=local")
		}
	}
	if cfg.Transcribe.MaxRetries < 1 {
		return errors.New("transcribe.max_retries must be >= 1")
	}
	if cfg.Transcribe.TimeoutS <= 0 {
		return errors.New("transcribe.timeout_s must be positive")
	}
	switch cfg.Cleanup.Mode {
	case "off", "light", "standard", "aggressive":
	default:
		return errors.New("cleanup.mode must be one of off|light|standard|aggressive")
	}
	switch cfg.Cleanup.LLM.Mode {
	case "off", "openai", "ollama", "mock":
	default:
		return errors.New("cleanup.llm.mode must be one of off|openai|ollama|mock")
	}
	if cfg.Cleanup.LLM.Mode == "ollama" && cfg.Cleanup.LLM.Endpoint == "" {
		return errors.New("cleanup.llm.endpoint must be set when mode=ollama")
	}
	if cfg.Cleanup.LLM.MaxTokens < 0 {
		return errors.New("cleanup.llm.max_tokens must be >= 0")
	}
	if cfg.Output.TypeDelayMS < 0 {
		return errors.New("output.type_delay_ms must be >= 0")
	}
	if cfg.Output.PasteSettleMS < 0 {
		return errors.New("output.paste_settle_ms must be >= 0")
	}
	if cfg.Output.RestoreDelayMS < 0 {
		return errors.New("output.restore_delay_ms must be >= 0")
	}
	if cfg.Output.ToolTimeoutS <= 0 {
		return errors.New("output.tool_timeout_s must be positive")
	}
	if cfg.Output.TypeTimeoutS <= 0 {
		return errors.New("output.type_timeout_s must be positive")
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return errors.New("history.path must not be empty when history is enabled")
	}
	if cfg.History.MaxRecords < 0 {
		return errors.New("history.max_records must be >= 0")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	if cfg.Integration.Enabled {
		if cfg.Integration.Embedded {
			if cfg.Integration.Port <= 0 || cfg.Integration.Port > 65535 {
				return errors.New("integration.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Integration.Servers) == 0 {
			return errors.New("integration.servers must not be empty when embedded mode is disabled")
		}
	}
	return nil
}
