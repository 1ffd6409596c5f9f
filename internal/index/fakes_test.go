package index

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// wordEmbedder gives every distinct lower-cased word its own dimension.
type wordEmbedder struct {
	calls atomic.Int32
	err   error

	mu    sync.Mutex
	vocab map[string]int
}

func (e *wordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.vocab == nil {
		e.vocab = make(map[string]int)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		counts := make(map[int]float32)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.Trim(w, ".,!?:")
			idx, ok := e.vocab[w]
			if !ok {
				idx = len(e.vocab)
				e.vocab[w] = idx
			}
			counts[idx]++
		}

		vec := make([]float32, len(e.vocab))
		var sum float64
		for idx, c := range counts {
			vec[idx] = c
			sum += float64(c * c)
		}
		if sum > 0 {
			for j := range vec {
				vec[j] /= float32(math.Sqrt(sum))
			}
		}
		out[i] = vec
	}
	return out, nil
}

// recordingLLM answers with a fixed-size reply and records prompts.
type recordingLLM struct {
	mu       sync.Mutex
	prompts  []string
	reply    string
	err      error
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (l *recordingLLM) Complete(ctx context.Context, prompt string) (string, error) {
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}

	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.err != nil {
		return "", l.err
	}
	if l.reply != "" {
		return l.reply, nil
	}
	return "partial answer", nil
}

func (l *recordingLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}
