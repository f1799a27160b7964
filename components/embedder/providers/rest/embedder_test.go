package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/scrape-embeddings/components/embedder"
)

func newTestEmbedder(t *testing.T, handler http.Handler, opts ...embedder.Option) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	clt := NewClient(
		WithAPIKey("secret"),
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	opts = append([]embedder.Option{
		embedder.WithRetry(embedder.RetryOptions{Attempts: 3, Base: time.Millisecond, Max: time.Millisecond}),
	}, opts...)
	return New(clt, opts...)
}

func TestTokenize(t *testing.T) {
	var got TokenizeRequest
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tokenize", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"tokens":[11,22,33]}`))
	}), embedder.WithModel("embed-english-v3.0"))

	tokens, err := e.Tokenize(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []int{11, 22, 33}, tokens)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, "embed-english-v3.0", got.Model)
}

func TestTokenizeTruncatesLongText(t *testing.T) {
	var got TokenizeRequest
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"tokens":[1]}`))
	}))

	_, err := e.Tokenize(context.Background(), strings.Repeat("x", 70000))
	require.NoError(t, err)
	assert.Len(t, got.Text, TruncatedTextLength)

	_, err = e.Tokenize(context.Background(), strings.Repeat("x", MaxTextLength))
	require.NoError(t, err)
	assert.Len(t, got.Text, MaxTextLength)
}

func TestDetokenizeSurfacesBody(t *testing.T) {
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid token id 99999999"}`))
	}))

	_, err := e.Detokenize(context.Background(), []int{99999999})
	require.Error(t, err)
	assert.ErrorIs(t, err, embedder.ErrDetokenization)
	assert.Contains(t, err.Error(), "invalid token id 99999999")

	var statusErr *embedder.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestEmbedding(t *testing.T) {
	var got EmbedRequest
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"x","embeddings":[[0.1,0.2,0.3]],"texts":["hello"]}`))
	}), embedder.WithInputType(embedder.InputTypeClustering))

	vec, err := e.Embedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"hello"}, got.Texts)
	assert.Equal(t, embedder.InputTypeClustering, got.InputType)
	assert.Equal(t, DefaultModel, got.Model)

	_, err = e.Embedding(context.Background(), "hello", embedder.WithCallInputType(embedder.InputTypeSearchQuery))
	require.NoError(t, err)
	assert.Equal(t, embedder.InputTypeSearchQuery, got.InputType)
	assert.Equal(t, int64(2), e.Usage().Requests)
}

func TestEmbeddingEmptyResponse(t *testing.T) {
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))

	_, err := e.Embedding(context.Background(), "hello")
	assert.ErrorIs(t, err, embedder.ErrEmbedding)
	assert.ErrorIs(t, err, ErrEmptyEmbeddings)
}

func TestEmbeddingRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("try later"))
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))

	vec, err := e.Embedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vec)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbeddingDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid api token"))
	}))

	_, err := e.Embedding(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api token")
	assert.Equal(t, int32(1), calls.Load())
}
