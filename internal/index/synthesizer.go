package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/pdf-digest/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TreeSummarizer answers a query over any amount of text. Texts are packed
// into prompts that fit the budget, each pack is answered, and the answers are
// summarized again level by level until one remains.
type TreeSummarizer struct {
	llm         LLM
	budget      int
	concurrency int
}

func NewTreeSummarizer(llm LLM, budget, concurrency int) *TreeSummarizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TreeSummarizer{
		llm:         llm,
		budget:      budget,
		concurrency: concurrency,
	}
}

// Summarize returns a single answer to query built from texts.
func (s *TreeSummarizer) Summarize(ctx context.Context, query string, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: no context to summarize", entity.ErrInvalidParameter)
	}

	room := s.budget - promptOverhead(query)
	if room < 1 {
		return "", fmt.Errorf("%w: prompt budget %d is too small for the query", entity.ErrInvalidParameter, s.budget)
	}

	for level := 0; ; level++ {
		packs := pack(texts, room)
		if level > 0 && len(packs) >= len(texts) {
			// answers too long to merge, force the tree to shrink
			packs = pairs(texts, room)
		}

		ctxzap.Debug(ctx, "tree summarize level",
			zap.Int("level", level),
			zap.Int("texts", len(texts)),
			zap.Int("calls", len(packs)),
		)

		answers, err := s.answerAll(ctx, query, packs)
		if err != nil {
			return "", err
		}

		if len(answers) == 1 {
			return answers[0], nil
		}
		texts = answers
	}
}

func (s *TreeSummarizer) answerAll(ctx context.Context, query string, packs [][]string) ([]string, error) {
	answers := make([]string, len(packs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range packs {
		g.Go(func() error {
			answer, err := s.llm.Complete(gctx, treeSummarizePrompt(query, p))
			if err != nil {
				return err
			}
			answer = strings.TrimSpace(answer)
			if answer == "" {
				return fmt.Errorf("%w: language model returned no text", entity.ErrEmptyResponse)
			}
			answers[i] = answer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return answers, nil
}

// pack groups texts greedily, in order, so that every group fits room
// characters including separators. Texts longer than room are split.
func pack(texts []string, room int) [][]string {
	var (
		packs   [][]string
		current []string
		size    int
	)

	flush := func() {
		if len(current) > 0 {
			packs = append(packs, current)
			current, size = nil, 0
		}
	}

	for _, text := range texts {
		for _, piece := range split(text, room) {
			extra := len(piece)
			if len(current) > 0 {
				extra += len(contextSeparator)
			}
			if size+extra > room {
				flush()
				extra = len(piece)
			}
			current = append(current, piece)
			size += extra
		}
	}
	flush()

	return packs
}

// pairs merges texts two at a time, truncating each to half of room.
func pairs(texts []string, room int) [][]string {
	half := max((room-len(contextSeparator))/2, 1)

	packs := make([][]string, 0, (len(texts)+1)/2)
	for i := 0; i < len(texts); i += 2 {
		p := []string{truncate(texts[i], half)}
		if i+1 < len(texts) {
			p = append(p, truncate(texts[i+1], half))
		}
		packs = append(packs, p)
	}

	return packs
}

// split cuts text into pieces of at most limit bytes, preferring whitespace
// boundaries and never cutting inside a UTF-8 sequence.
func split(text string, limit int) []string {
	var pieces []string
	for len(text) > limit {
		cut := safeCut(text, limit)
		if ws := strings.LastIndexAny(text[:cut], " \n\t"); ws > 0 {
			cut = ws
		}
		if piece := strings.TrimSpace(text[:cut]); piece != "" {
			pieces = append(pieces, piece)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:safeCut(text, limit)]
}

// safeCut moves limit back to the start of a UTF-8 sequence.
func safeCut(text string, limit int) int {
	cut := limit
	for cut > 0 && cut < len(text) && text[cut]&0xC0 == 0x80 {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
