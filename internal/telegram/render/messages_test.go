package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("short text is one part", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, Split("hello", 10))
	})

	t.Run("prefers paragraph breaks", func(t *testing.T) {
		parts := Split("first paragraph\n\nsecond one", 20)
		assert.Equal(t, []string{"first paragraph", "second one"}, parts)
	})

	t.Run("falls back to spaces", func(t *testing.T) {
		parts := Split("aaa bbb ccc ddd", 8)
		assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, parts)
	})

	t.Run("never splits a rune", func(t *testing.T) {
		text := strings.Repeat("ж", 10) // 20 bytes, no spaces
		parts := Split(text, 7)
		for _, p := range parts {
			assert.LessOrEqual(t, len(p), 7)
			assert.True(t, utf8.ValidString(p))
		}
		assert.Equal(t, text, strings.Join(parts, ""))
	})

	t.Run("every part fits", func(t *testing.T) {
		text := strings.Repeat("word ", 3000)
		for _, p := range Split(text, MaxMessageLength) {
			assert.LessOrEqual(t, len(p), MaxMessageLength)
		}
	})
}

func TestRenderSummary(t *testing.T) {
	result := &entity.SummaryResult{
		Filename: "plan.pdf",
		Summary: entity.QueryResult{
			Kind:     entity.QuerySummary,
			Response: &entity.QueryResponse{Response: "A quarterly plan."},
		},
		Highlights: entity.QueryResult{
			Kind: entity.QueryHighlights,
			Err:  errors.New("model unavailable"),
		},
	}

	messages := RenderSummary(result)
	require.Len(t, messages, 2)
	assert.Equal(t, "📝 Summary of plan.pdf\n\nA quarterly plan.", messages[0])
	assert.Contains(t, messages[1], "📌 Key points of plan.pdf")
	assert.Contains(t, messages[1], "model unavailable")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ErrGeneric},
		{"extension", fmt.Errorf("wrap: %w", entity.ErrInvalidExtension), ErrInvalidFile},
		{"too large", entity.ErrFileTooLarge, ErrFileTooLarge},
		{"no documents", entity.ErrNoDocuments, ErrNoText},
		{"upload missing", entity.ErrUploadNotFound, ErrUploadNotFound},
		{"deadline", fmt.Errorf("index: %w", context.DeadlineExceeded), ErrTimeout},
		{"other", errors.New("boom"), ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}

	assert.Contains(t, ClassifyError(entity.ErrMissingCredential), "LLAMA_CLOUD_API_KEY")
	assert.True(t, strings.HasPrefix(ClassifyError(fmt.Errorf("%w: 503", entity.ErrLLMFailed)), "❌ An error occurred: "))
}
