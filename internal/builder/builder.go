package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/pdf-digest/internal/api"
	sessionapi "github.com/futig/pdf-digest/internal/api/session"
	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/index"
	"github.com/futig/pdf-digest/internal/ingest"
	"github.com/futig/pdf-digest/internal/integration/embedding"
	"github.com/futig/pdf-digest/internal/integration/llm"
	"github.com/futig/pdf-digest/internal/integration/parser"
	"github.com/futig/pdf-digest/internal/pkg/formatter"
	"github.com/futig/pdf-digest/internal/pkg/logger"
	"github.com/futig/pdf-digest/internal/pkg/validator"
	"github.com/futig/pdf-digest/internal/session"
	"github.com/futig/pdf-digest/internal/telegram"
	"github.com/futig/pdf-digest/internal/usecase/summary"
	"go.uber.org/zap"
)

// core holds what the HTTP server and the bot share
type core struct {
	sessions *session.Manager
	summary  *summary.SummaryUsecase
}

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	c := buildCore(cfg, logger)

	// Setup API handlers
	sessionHandler := sessionapi.NewHandler(c.summary, formatter.NewFactory(), cfg.FileUploadCfg)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(sessionHandler, cfg.RequestTimeout, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  time.Minute,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		sessions: c.sessions,
		logger:   logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.TelegramCfg.BotToken == "" {
		return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN must be set to run the bot")
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	c := buildCore(cfg, logger)

	report, err := reportFormatter(cfg.TelegramCfg.ReportFormat)
	if err != nil {
		c.sessions.Close()
		return nil, nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, c.summary, report, logger)
	if err != nil {
		c.sessions.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

func buildCore(cfg *config.Config, logger *zap.Logger) *core {
	// Initialize external service connectors (with mock support)
	var (
		documentParser ingest.Parser
		embedder       index.Embedder
		llmConnector   index.LLM
	)

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		documentParser = parser.NewMockConnector(logger)
		embedder = embedding.NewMockConnector(logger)
		llmConnector = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services",
			zap.String("parser_mode", cfg.ParserCfg.Mode),
		)
		if cfg.ParserCfg.Mode == config.ParserModeLocal {
			documentParser = parser.NewLocalParser(logger)
		} else {
			documentParser = parser.NewConnector(cfg.ParserCfg, logger)
		}
		embedder = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		llmConnector = llm.NewConnector(cfg.LLMCfg, logger)
	}

	sessions := session.NewManager(cfg.SessionCfg, logger)
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	pipeline := ingest.NewPipeline(documentParser, cfg.ParserCfg, cfg.EnableMocks, logger)
	indexBuilder := &engineBuilder{builder: index.NewBuilder(embedder, llmConnector, cfg.IndexCfg, logger)}

	summaryUC := summary.NewUsecase(sessions, fileValidator, pipeline, indexBuilder, logger)
	logger.Info("Use cases initialized")

	return &core{
		sessions: sessions,
		summary:  summaryUC,
	}
}

// engineBuilder hands index engines to the session cache
type engineBuilder struct {
	builder *index.Builder
}

func (b *engineBuilder) Build(ctx context.Context, docs []entity.Document) (session.Engine, error) {
	engine, err := b.builder.Build(ctx, docs)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// reportFormatter picks the file sent after a summary; json sends none.
func reportFormatter(format string) (formatter.Formatter, error) {
	f := entity.ResultFormat(format)
	if !f.IsValid() {
		return nil, fmt.Errorf("TELEGRAM_REPORT_FORMAT must be one of json, markdown, pdf, docx, got %q", format)
	}
	if f == entity.FormatJSON {
		return nil, nil
	}
	return formatter.NewFactory().Create(f)
}
