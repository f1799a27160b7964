package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// Http reads records from an HTTP endpoint.
type Http struct {
	client  *http.Client
	link    string
	method  string
	payload []byte
	meta    map[string]string
}

var _ Source = (*Http)(nil)

type HttpConfig struct {
	client  *http.Client
	link    string
	method  string
	payload []byte
}

type HttpOption func(*HttpConfig)

func WithHttpMethod(method string) HttpOption {
	return func(h *HttpConfig) {
		h.method = method
	}
}

func WithHttpURL(link string) HttpOption {
	return func(h *HttpConfig) {
		h.link = link
	}
}

func WithPayload(payload []byte) HttpOption {
	return func(h *HttpConfig) {
		h.payload = payload
	}
}

func WithHttpClient(client *http.Client) HttpOption {
	return func(h *HttpConfig) {
		h.client = client
	}
}

func NewHttp(opts ...HttpOption) *Http {
	var cfg HttpConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.method == "" {
		cfg.method = http.MethodGet
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}
	return &Http{
		client:  cfg.client,
		link:    cfg.link,
		method:  cfg.method,
		payload: cfg.payload,
		meta: map[string]string{
			"source": "http",
			"url":    cfg.link,
			"method": cfg.method,
		},
	}
}

// Open sends the request, failing on any status other than 200.
func (h *Http) Open(ctx context.Context) (io.ReadCloser, error) {
	var body io.Reader
	if h.payload != nil {
		body = bytes.NewReader(h.payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, h.method, h.link, body)
	if err != nil {
		return nil, err
	}
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, fmt.Errorf("%s %s: status %d: %s", h.method, h.link, httpResp.StatusCode, msg)
	}
	return httpResp.Body, nil
}

func (h *Http) Name() string {
	if u, err := url.Parse(h.link); err == nil {
		return path.Base(u.Path)
	}
	return h.link
}

func (h *Http) Meta() map[string]string {
	return h.meta
}
