// Package embeddertest provides a deterministic embedder.Service for tests.
package embeddertest

import (
	"context"
	"errors"
	"sync"

	"github.com/bububa/scrape-embeddings/components/embedder"
)

var ErrInjected = errors.New("injected failure")

// Stub is an in-memory embedder.Service. By default every rune is one token,
// detokenize turns token ids back into runes and the embedding of a text is
// {rune count, first rune, last rune}. Any of the funcs can be replaced.
type Stub struct {
	TokenizeFunc   func(ctx context.Context, text string) ([]int, error)
	DetokenizeFunc func(ctx context.Context, tokens []int) (string, error)
	EmbeddingFunc  func(ctx context.Context, text string) ([]float64, error)

	mu    sync.Mutex
	calls []Call
}

// Call is one recorded invocation.
type Call struct {
	Op      embedder.Op
	Input   string
	Options embedder.CallOptions
}

var _ embedder.Service = (*Stub)(nil)

func New() *Stub {
	return new(Stub)
}

func (s *Stub) record(op embedder.Op, input string, opts []embedder.CallOption) {
	var o embedder.CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, Input: input, Options: o})
	s.mu.Unlock()
}

// Calls returns the recorded invocations in call order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Call, len(s.calls))
	copy(ret, s.calls)
	return ret
}

// Count returns how many times op was invoked.
func (s *Stub) Count(op embedder.Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *Stub) Tokenize(ctx context.Context, text string, opts ...embedder.CallOption) ([]int, error) {
	s.record(embedder.OpTokenize, text, opts)
	if s.TokenizeFunc != nil {
		tokens, err := s.TokenizeFunc(ctx, text)
		if err != nil {
			return nil, embedder.NewError(embedder.OpTokenize, "Stub", "", err)
		}
		return tokens, nil
	}
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens, nil
}

func (s *Stub) Detokenize(ctx context.Context, tokens []int, opts ...embedder.CallOption) (string, error) {
	s.record(embedder.OpDetokenize, "", opts)
	if s.DetokenizeFunc != nil {
		text, err := s.DetokenizeFunc(ctx, tokens)
		if err != nil {
			return "", embedder.NewError(embedder.OpDetokenize, "Stub", "", err)
		}
		return text, nil
	}
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes), nil
}

func (s *Stub) Embedding(ctx context.Context, text string, opts ...embedder.CallOption) ([]float64, error) {
	s.record(embedder.OpEmbed, text, opts)
	if s.EmbeddingFunc != nil {
		vec, err := s.EmbeddingFunc(ctx, text)
		if err != nil {
			return nil, embedder.NewError(embedder.OpEmbed, "Stub", "", err)
		}
		return vec, nil
	}
	return Vector(text), nil
}

// Vector is the default embedding computed by Stub.
func Vector(text string) []float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return []float64{0, 0, 0}
	}
	return []float64{float64(len(runes)), float64(runes[0]), float64(runes[len(runes)-1])}
}

// FailFirst returns a tokenize func failing the first n calls and then falling
// back to one token per rune.
func FailFirst(n int) func(context.Context, string) ([]int, error) {
	var (
		mu    sync.Mutex
		calls int
	)
	return func(_ context.Context, text string) ([]int, error) {
		mu.Lock()
		calls++
		fail := calls <= n
		mu.Unlock()
		if fail {
			return nil, ErrInjected
		}
		runes := []rune(text)
		tokens := make([]int, len(runes))
		for i, r := range runes {
			tokens[i] = int(r)
		}
		return tokens, nil
	}
}
