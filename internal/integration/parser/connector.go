package parser

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/integration/common"
	pkgRetry "github.com/futig/pdf-digest/internal/pkg/retry"
	pkghttp "github.com/futig/pdf-digest/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultServiceURL = "https://api.cloud.llamaindex.ai"

var errJobPending = errors.New("parsing job is still pending")

// Connector talks to the hosted parsing service: upload, poll the job, fetch markdown.
type Connector struct {
	config    config.ParserConfig
	connector *pkghttp.Connector
	poll      pkgRetry.RetryConfig
	logger    *zap.Logger
}

func NewConnector(
	cfg config.ParserConfig,
	logger *zap.Logger,
) *Connector {
	httpCfg := cfg.HTTPClientConfig
	if httpCfg.Url == "" {
		httpCfg.Url = defaultServiceURL
	}
	httpCfg.Token = cfg.APIKey

	return &Connector{
		connector: common.NewBaseConnector(httpCfg, logger),
		config:    cfg,
		poll: pkgRetry.RetryConfig{
			// zero attempts polls until the timeout expires
			Attempts: 0,
			Delay:    cfg.PollInterval,
			MaxDelay: 4 * cfg.PollInterval,
			Timeout:  cfg.PollTimeout,
		},
		logger: logger,
	}
}

// ParseFile uploads the file at path and returns the parsed markdown.
func (c *Connector) ParseFile(ctx context.Context, path string) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("%w: %s", entity.ErrMissingCredential, config.MissingCredentialMessage)
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("file", filepath.Base(path))))

	job, err := c.upload(ctx, path)
	if err != nil {
		return "", err
	}

	ctxzap.Info(ctx, "parsing job created", zap.String("job_id", job.ID))

	if err := c.waitForJob(ctx, job.ID); err != nil {
		return "", err
	}

	var result entity.ParseResult
	endpoint := strings.Replace(c.config.ResultEndpoint, "{job_id}", job.ID, 1)
	if err := c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return "", fmt.Errorf("%w: fetch result: %w", entity.ErrParserFailed, err)
	}

	ctxzap.Info(ctx, "document parsed", zap.Int("markdown_length", len(result.Markdown)))

	return result.Markdown, nil
}

func (c *Connector) upload(ctx context.Context, path string) (*entity.ParseJob, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}

	prepareBody := func(writer *multipart.Writer) error {
		if err := writer.WriteField("language", c.config.Language); err != nil {
			return fmt.Errorf("write language field: %w", err)
		}

		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}

		if _, err := part.Write(content); err != nil {
			return fmt.Errorf("write file content: %w", err)
		}
		return nil
	}

	var job entity.ParseJob
	if err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.UploadEndpoint, prepareBody, &job); err != nil {
		ctxzap.Error(ctx, "failed to upload file to parser", zap.Error(err))
		return nil, fmt.Errorf("%w: upload: %w", entity.ErrParserFailed, err)
	}

	if job.ID == "" {
		return nil, fmt.Errorf("%w: upload response has no job id", entity.ErrParserFailed)
	}

	return &job, nil
}

func (c *Connector) waitForJob(ctx context.Context, jobID string) error {
	endpoint := strings.Replace(c.config.JobEndpoint, "{job_id}", jobID, 1)

	check := func() error {
		var job entity.ParseJob
		if err := c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &job); err != nil {
			return err
		}

		switch job.Status {
		case entity.ParseJobSuccess:
			return nil
		case entity.ParseJobError, entity.ParseJobCanceled:
			return retry.Unrecoverable(fmt.Errorf("job %s finished with status %s: %s", jobID, job.Status, job.ErrorMessage))
		default:
			ctxzap.Debug(ctx, "parsing job pending", zap.String("job_id", jobID), zap.String("status", job.Status))
			return errJobPending
		}
	}

	retryIf := func(err error) bool {
		return errors.Is(err, errJobPending) || pkghttp.IsTemporary(err)
	}

	if err := c.poll.Do(ctx, check, retryIf); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrParserFailed, err)
	}

	return nil
}
