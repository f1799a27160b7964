package components

import (
	cohere "github.com/cohere-ai/cohere-go/v2"
	"go.uber.org/atomic"
)

// LLMUsage tracks the tokens billed by a provider. It is safe for concurrent use
// because a single provider client is shared by every processing worker.
type LLMUsage struct {
	InputTokens  atomic.Int64
	OutputTokens atomic.Int64
	Requests     atomic.Int64
}

// FromCohere adds the token usage reported in a cohere response meta
func (u *LLMUsage) FromCohere(meta *cohere.ApiMeta) {
	u.Requests.Inc()
	if meta == nil || meta.Tokens == nil {
		return
	}
	if v := meta.Tokens.InputTokens; v != nil {
		u.InputTokens.Add(int64(*v))
	}
	if v := meta.Tokens.OutputTokens; v != nil {
		u.OutputTokens.Add(int64(*v))
	}
}

// Add records a single request consuming the given input tokens
func (u *LLMUsage) Add(inputTokens int) {
	u.Requests.Inc()
	u.InputTokens.Add(int64(inputTokens))
}

// Snapshot returns a plain copy of the counters.
func (u *LLMUsage) Snapshot() UsageSnapshot {
	return UsageSnapshot{
		InputTokens:  u.InputTokens.Load(),
		OutputTokens: u.OutputTokens.Load(),
		Requests:     u.Requests.Load(),
	}
}

type UsageSnapshot struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
	Requests     int64 `json:"requests,omitempty"`
}

func (s *UsageSnapshot) Merge(v UsageSnapshot) {
	s.InputTokens += v.InputTokens
	s.OutputTokens += v.OutputTokens
	s.Requests += v.Requests
}
