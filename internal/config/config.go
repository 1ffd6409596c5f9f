package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/pdf-digest/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Parser modes
const (
	ParserModeLlamaParse = "llamaparse"
	ParserModeLocal      = "local"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR,notEmpty"`
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"10m"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Parsing service credential, copied into ParserCfg.APIKey
	LlamaCloudAPIKey string `env:"LLAMA_CLOUD_API_KEY"`

	// External service configurations
	ParserCfg    ParserConfig    `envPrefix:"PARSER_"`
	EmbeddingCfg EmbeddingConfig `envPrefix:"EMBEDDING_"`
	LLMCfg       LLMConfig       `envPrefix:"LLM_"`

	// Retrieval index configuration
	IndexCfg IndexConfig `envPrefix:"INDEX_"`

	// Session registry configuration
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"3"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"`    // seconds
	MaxFileSize        int64  `env:"MAX_FILE_SIZE" envDefault:"20971520"` // Bot API download limit
	ReportFormat       string `env:"REPORT_FORMAT" envDefault:"markdown"`
}

// ParserConfig configures the document parsing service.
type ParserConfig struct {
	HTTPClientConfig
	Mode           string `env:"MODE" envDefault:"llamaparse"`
	APIKey         string
	UploadEndpoint string        `env:"UPLOAD_ENDPOINT" envDefault:"/api/parsing/upload"`
	JobEndpoint    string        `env:"JOB_ENDPOINT" envDefault:"/api/parsing/job/{job_id}"`
	ResultEndpoint string        `env:"RESULT_ENDPOINT" envDefault:"/api/parsing/job/{job_id}/result/markdown"`
	Language       string        `env:"LANGUAGE" envDefault:"en"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT" envDefault:"5m"`
}

// EmbeddingConfig configures the hosted embedding model.
type EmbeddingConfig struct {
	HTTPClientConfig
	Model     string               `env:"MODEL" envDefault:"BAAI/bge-base-en-v1.5"`
	Endpoint  string               `env:"ENDPOINT" envDefault:"/pipeline/feature-extraction/{model}"`
	BatchSize int                  `env:"BATCH_SIZE" envDefault:"32"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// LLMConfig configures the hosted language model.
type LLMConfig struct {
	APIKey    string        `env:"API_KEY"`
	BaseURL   string        `env:"BASE_URL"`
	Model     string        `env:"MODEL" envDefault:"claude-3-opus-20240229"`
	MaxTokens int           `env:"MAX_TOKENS" envDefault:"1024"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"2m"`
}

// IndexConfig tunes chunking, tree synthesis and retrieval.
type IndexConfig struct {
	SentencesPerChunk int `env:"SENTENCES_PER_CHUNK" envDefault:"8"`
	OverlapSentences  int `env:"OVERLAP_SENTENCES" envDefault:"1"`
	PromptBudget      int `env:"PROMPT_BUDGET" envDefault:"12000"` // characters of context per LLM call
	MaxConcurrency    int `env:"MAX_CONCURRENCY" envDefault:"4"`
	TopDocuments      int `env:"TOP_DOCUMENTS" envDefault:"3"`
	TopChunks         int `env:"TOP_CHUNKS" envDefault:"0"` // 0 keeps every chunk of the selected documents
}

// SessionConfig controls how long idle sessions keep their caches.
type SessionConfig struct {
	IdleTTL         time.Duration `env:"IDLE_TTL" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"52428800"`   // 50 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"54525952"` // 52 MiB
}

// CredentialEnv is the variable holding the parsing service key.
const CredentialEnv = "LLAMA_CLOUD_API_KEY"

// MissingCredentialMessage is shown to the user when CredentialEnv is empty.
const MissingCredentialMessage = CredentialEnv + " environment variable is not set. Please set it in .env file or in your shell environment then run again!"

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.ParserCfg.APIKey = cfg.LlamaCloudAPIKey

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if !cfg.EnableMocks {
		if cfg.ParserCfg.Mode == ParserModeLlamaParse && cfg.ParserCfg.APIKey == "" {
			errors = append(errors, MissingCredentialMessage)
		}
		if cfg.LLMCfg.APIKey == "" {
			errors = append(errors, "LLM_API_KEY must be set when mocks are disabled")
		}
	}

	switch cfg.ParserCfg.Mode {
	case ParserModeLlamaParse, ParserModeLocal:
	default:
		errors = append(errors, fmt.Sprintf("PARSER_MODE must be %q or %q, got %q", ParserModeLlamaParse, ParserModeLocal, cfg.ParserCfg.Mode))
	}

	if cfg.ParserCfg.Mode == ParserModeLlamaParse && (cfg.ParserCfg.PollInterval <= 0 || cfg.ParserCfg.PollTimeout < cfg.ParserCfg.PollInterval) {
		errors = append(errors, "PARSER_POLL_TIMEOUT must be greater than or equal to PARSER_POLL_INTERVAL")
	}

	if cfg.IndexCfg.SentencesPerChunk < 1 {
		errors = append(errors, fmt.Sprintf("INDEX_SENTENCES_PER_CHUNK must be positive, got %d", cfg.IndexCfg.SentencesPerChunk))
	}

	if cfg.IndexCfg.OverlapSentences < 0 || cfg.IndexCfg.OverlapSentences >= cfg.IndexCfg.SentencesPerChunk {
		errors = append(errors, fmt.Sprintf("INDEX_OVERLAP_SENTENCES must be between 0 and INDEX_SENTENCES_PER_CHUNK-1, got %d", cfg.IndexCfg.OverlapSentences))
	}

	if cfg.IndexCfg.PromptBudget < 1000 {
		errors = append(errors, fmt.Sprintf("INDEX_PROMPT_BUDGET must be at least 1000 characters, got %d", cfg.IndexCfg.PromptBudget))
	}

	if cfg.IndexCfg.MaxConcurrency < 1 || cfg.IndexCfg.MaxConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("INDEX_MAX_CONCURRENCY must be between 1 and 32, got %d", cfg.IndexCfg.MaxConcurrency))
	}

	if cfg.IndexCfg.TopDocuments < 0 || cfg.IndexCfg.TopChunks < 0 {
		errors = append(errors, "INDEX_TOP_DOCUMENTS and INDEX_TOP_CHUNKS must not be negative")
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	if cfg.FileUploadCfg.MaxFileSize <= 0 || cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxFileSize {
		errors = append(errors, "FILE_UPLOAD_MAX_UPLOAD_SIZE must be greater than or equal to FILE_UPLOAD_MAX_FILE_SIZE")
	}

	if cfg.SessionCfg.IdleTTL <= 0 {
		errors = append(errors, "SESSION_IDLE_TTL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
