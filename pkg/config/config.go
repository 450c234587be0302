package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultProvider        = "gemini"
	defaultGeminiBackend   = "api"
	defaultGCPLocation     = "us-central1"
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultVariant         = "schema"
	defaultModel           = "gemini-2.5-flash"
	defaultLanguage        = "ko"
	defaultInstructionTemp = 0.1
	defaultInstructionMax  = 4096
	defaultSchemaTemp      = 0.2
	defaultSchemaMax       = 8192
	defaultHistoryBackend  = "file"
	defaultHistoryDir      = ".ecclesia"
	defaultHistoryFile     = "scenarioHistory.json"
	defaultHistoryMax      = 100
	defaultServerAddr      = "127.0.0.1:8080"
)

type Config struct {
	GeminiAPIKey string `yaml:"-"`
	GroqAPIKey   string `yaml:"-"`
	GCPProject   string `yaml:"-"`
	GCPLocation  string `yaml:"-"`

	Provider string        `yaml:"provider"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	Groq     GroqConfig    `yaml:"groq"`
	Request  RequestConfig `yaml:"request"`
	History  HistoryConfig `yaml:"history"`
	Server   ServerConfig  `yaml:"server"`
}

type GeminiConfig struct {
	Backend string `yaml:"backend"` // "api" or "vertex"
	BaseURL string `yaml:"base_url"`
	// APIKeySecret names a Secret Manager secret holding the API key. It is
	// read only when no key is set in the environment.
	APIKeySecret string `yaml:"api_key_secret"`
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type SamplingConfig struct {
	// Temp is a pointer so an explicit 0 is kept.
	Temp            *float32 `yaml:"temperature"`
	MaxOutputTokens int32    `yaml:"max_output_tokens"`
}

type RequestConfig struct {
	Variant     string         `yaml:"variant"` // "schema" or "instruction"
	Model       string         `yaml:"model"`
	Language    string         `yaml:"language"`
	Instruction SamplingConfig `yaml:"instruction"`
	Schema      SamplingConfig `yaml:"schema"`
}

type HistoryConfig struct {
	Backend string `yaml:"backend"` // "file" or "gcs"
	Path    string `yaml:"path"`
	// MaxItems of 0 keeps every item.
	MaxItems *int      `yaml:"max_items"`
	GCS      GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	Object          string `yaml:"object"`
	CredentialsFile string `yaml:"credentials_file"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (s SamplingConfig) Temperature() float32 {
	if s.Temp == nil {
		return 0
	}
	return *s.Temp
}

func (h HistoryConfig) Limit() int {
	if h.MaxItems == nil {
		return defaultHistoryMax
	}
	return *h.MaxItems
}

// Load reads .env, the optional config.yaml in the working directory and
// the environment, then fills defaults.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", os.Getenv("API_KEY"))
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GCPProject = os.Getenv("GOOGLE_CLOUD_PROJECT")
	cfg.GCPLocation = getEnvOrDefault("GOOGLE_CLOUD_LOCATION", defaultGCPLocation)
	if path := os.Getenv("ECCLESIA_HISTORY_PATH"); path != "" {
		cfg.History.Path = path
	}
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		cfg.History.GCS.Bucket = bucket
	}

	applyDefaults(cfg)

	if err := resolveSecrets(ctx, cfg, newSecretClient); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("No config.yaml found, using defaults")
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}
	applyGeminiDefaults(cfg)
	applyGroqDefaults(cfg)
	applyRequestDefaults(cfg)
	applyHistoryDefaults(cfg)
	applyServerDefaults(cfg)
}

func applyGeminiDefaults(cfg *Config) {
	if cfg.Gemini.Backend == "" {
		cfg.Gemini.Backend = defaultGeminiBackend
	}
}

func applyGroqDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
}

func applyRequestDefaults(cfg *Config) {
	r := &cfg.Request
	if r.Variant == "" {
		r.Variant = defaultVariant
	}
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.Instruction.Temp == nil {
		r.Instruction.Temp = ptr[float32](defaultInstructionTemp)
	}
	if r.Instruction.MaxOutputTokens == 0 {
		r.Instruction.MaxOutputTokens = defaultInstructionMax
	}
	if r.Schema.Temp == nil {
		r.Schema.Temp = ptr[float32](defaultSchemaTemp)
	}
	if r.Schema.MaxOutputTokens == 0 {
		r.Schema.MaxOutputTokens = defaultSchemaMax
	}
}

func ptr[T any](v T) *T {
	return &v
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Backend == "" {
		cfg.History.Backend = defaultHistoryBackend
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath()
	}
	if cfg.History.GCS.Object == "" {
		cfg.History.GCS.Object = defaultHistoryFile
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(defaultHistoryDir, defaultHistoryFile)
	}
	return filepath.Join(home, defaultHistoryDir, defaultHistoryFile)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
