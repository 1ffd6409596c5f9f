package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeSummarizer_SingleCall(t *testing.T) {
	llm := &recordingLLM{reply: "final"}
	s := NewTreeSummarizer(llm, 2000, 4)

	answer, err := s.Summarize(context.Background(), "what?", []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "final", answer)
	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], "first\n\nsecond")
	assert.Contains(t, llm.prompts[0], "Query: what?")
}

func TestTreeSummarizer_MultipleLevels(t *testing.T) {
	llm := &recordingLLM{reply: "short"}
	overhead := promptOverhead("q")
	s := NewTreeSummarizer(llm, overhead+100, 2)

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = strings.Repeat("x", 60)
	}

	answer, err := s.Summarize(context.Background(), "q", texts)
	require.NoError(t, err)

	assert.Equal(t, "short", answer)
	// ten packs at the first level, one merge call at the second
	assert.Equal(t, 11, llm.calls())
	assert.LessOrEqual(t, llm.peak.Load(), int32(2))
	for _, p := range llm.prompts {
		assert.LessOrEqual(t, len(p), overhead+100)
	}
}

func TestTreeSummarizer_LongAnswersStillConverge(t *testing.T) {
	overhead := promptOverhead("q")
	llm := &recordingLLM{reply: strings.Repeat("y", 90)}
	s := NewTreeSummarizer(llm, overhead+100, 4)

	texts := []string{strings.Repeat("a", 100), strings.Repeat("b", 100), strings.Repeat("c", 100)}

	answer, err := s.Summarize(context.Background(), "q", texts)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", 90), answer)
	for _, p := range llm.prompts {
		assert.LessOrEqual(t, len(p), overhead+100)
	}
}

func TestTreeSummarizer_Errors(t *testing.T) {
	t.Run("no texts", func(t *testing.T) {
		_, err := NewTreeSummarizer(&recordingLLM{}, 2000, 1).Summarize(context.Background(), "q", nil)
		require.ErrorIs(t, err, entity.ErrInvalidParameter)
	})

	t.Run("budget too small", func(t *testing.T) {
		_, err := NewTreeSummarizer(&recordingLLM{}, 10, 1).Summarize(context.Background(), "q", []string{"a"})
		require.ErrorIs(t, err, entity.ErrInvalidParameter)
	})

	t.Run("llm failure", func(t *testing.T) {
		llmErr := errors.New("overloaded")
		_, err := NewTreeSummarizer(&recordingLLM{err: llmErr}, 2000, 1).Summarize(context.Background(), "q", []string{"a"})
		require.ErrorIs(t, err, llmErr)
	})

	t.Run("blank answer", func(t *testing.T) {
		_, err := NewTreeSummarizer(&recordingLLM{reply: "   "}, 2000, 1).Summarize(context.Background(), "q", []string{"a"})
		require.ErrorIs(t, err, entity.ErrEmptyResponse)
	})
}

func TestPack(t *testing.T) {
	packs := pack([]string{"aaaa", "bb", "cccccccccc", "d"}, 8)

	assert.Equal(t, [][]string{
		{"aaaa", "bb"},
		{"cccccccc"},
		{"cc", "d"},
	}, packs)
}

func TestSplit_PrefersWhitespace(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, split("hello world", 8))
	assert.Equal(t, []string{"日本"}, split("日本", 6))
	assert.Equal(t, []string{"日", "本"}, split("日本", 4))
}
