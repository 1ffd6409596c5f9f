package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns canned markdown instead of calling the parsing service
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// ParseFile - mock parsing, the file still has to exist
func (m *MockConnector) ParseFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrUploadNotFound, err)
	}

	ctxzap.Info(ctx, "[MOCK] parsing document",
		zap.String("file", filepath.Base(path)),
		zap.Int64("size", info.Size()),
	)

	markdown := fmt.Sprintf(`# %s (MOCK)

## Overview
This document was parsed by the mock parser. It describes a quarterly plan for a small product team.
The team intends to ship two features and retire one legacy service.

## Key figures
Revenue grew by 12 percent compared to the previous quarter. Support tickets dropped by a third.
The migration budget is fixed at forty thousand dollars.

## Risks
The legacy service still handles ten percent of traffic. Hiring for the data role is delayed.
`, filepath.Base(path))

	return markdown, nil
}
