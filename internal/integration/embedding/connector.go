package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/futig/pdf-digest/internal/config"
	"github.com/futig/pdf-digest/internal/entity"
	"github.com/futig/pdf-digest/internal/integration/common"
	pkghttp "github.com/futig/pdf-digest/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultServiceURL = "https://api-inference.huggingface.co"

// Connector calls a hosted feature-extraction endpoint serving an open-weight
// sentence embedding model.
type Connector struct {
	config    config.EmbeddingConfig
	connector *pkghttp.Connector
	endpoint  string
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConfig,
	logger *zap.Logger,
) *Connector {
	httpCfg := cfg.HTTPClientConfig
	if httpCfg.Url == "" {
		httpCfg.Url = defaultServiceURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}

	return &Connector{
		connector: common.NewBaseConnector(httpCfg, logger),
		config:    cfg,
		endpoint:  strings.Replace(cfg.Endpoint, "{model}", cfg.Model, 1),
		logger:    logger,
	}
}

// Embed returns one L2-normalized vector per input text, in input order.
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding texts", zap.Int("count", len(texts)), zap.String("model", c.config.Model))

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := min(start+c.config.BatchSize, len(texts))

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (c *Connector) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := &entity.EmbeddingRequest{
		Inputs:  texts,
		Options: map[string]any{"wait_for_model": true},
	}

	var resp [][]float32
	call := func() error {
		resp = nil
		return c.connector.DoRequest(ctx, http.MethodPost, c.endpoint, req, &resp)
	}

	if err := c.config.Retry.Do(ctx, call, pkghttp.IsTemporary); err != nil {
		ctxzap.Error(ctx, "embedding request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrEmbeddingFailed, err)
	}

	if len(resp) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", entity.ErrEmbeddingFailed, len(texts), len(resp))
	}

	for i := range resp {
		if len(resp[i]) == 0 {
			return nil, fmt.Errorf("%w: empty vector at position %d", entity.ErrEmbeddingFailed, i)
		}
		normalize(resp[i])
	}

	return resp, nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
