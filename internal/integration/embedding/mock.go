package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimension = 256

var tokenPattern = regexp.MustCompile(`\p{L}+|\p{N}+`)

// MockConnector hashes tokens into a fixed-size bag-of-words vector.
// Texts sharing words get similar vectors, which is enough for local runs and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Embed - mock embedding generation
func (m *MockConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, mockDimension)
		for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
			h := fnv.New32a()
			h.Write([]byte(token))
			vec[h.Sum32()%mockDimension]++
		}
		normalize(vec)
		vectors[i] = vec
	}

	return vectors, nil
}
