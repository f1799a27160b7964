package embedder

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTokenization    = errors.New("tokenization failed")
	ErrDetokenization  = errors.New("detokenization failed")
	ErrEmbedding       = errors.New("embedding failed")
)

// Op names the provider operation that failed.
type Op string

const (
	OpTokenize   Op = "tokenize"
	OpDetokenize Op = "detokenize"
	OpEmbed      Op = "embed"
)

// Error is returned by every Service implementation. It matches ErrTokenization,
// ErrDetokenization or ErrEmbedding through errors.Is depending on Op, and unwraps
// to the provider cause.
type Error struct {
	Op       Op
	Provider Provider
	Model    string
	Err      error
}

func NewError(op Op, provider Provider, model string, err error) *Error {
	return &Error{
		Op:       op,
		Provider: provider,
		Model:    model,
		Err:      err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.sentinel(), e.Provider, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Op {
	case OpTokenize:
		return ErrTokenization
	case OpDetokenize:
		return ErrDetokenization
	default:
		return ErrEmbedding
	}
}

// StatusError is a non-success HTTP answer from a provider, carrying the raw body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return IsTransientStatus(e.StatusCode)
}

// IsTransientStatus is true for rate limiting and server side failures.
func IsTransientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
