package advclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Anil1013/mob13r-platform-sub000/internal/domain/offers"
	"github.com/Anil1013/mob13r-platform-sub000/internal/pin/template"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Request is a fully rendered advertiser call.
type Request struct {
	Method  string
	URL     string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Snapshot is the audit form of the request.
func (r Request) Snapshot() map[string]any {
	return map[string]any{
		"method":  r.Method,
		"url":     r.URL,
		"query":   r.Query,
		"headers": r.Headers,
		"body":    r.Body,
	}
}

// Build renders spec against ctx. fallbackBody is used when the spec carries
// neither a body nor a query.
func Build(spec offers.RequestSpec, ctx template.Context, fallbackBody map[string]any) Request {
	req := Request{
		Method:  strings.ToUpper(strings.TrimSpace(spec.Method)),
		URL:     template.RenderString(ctx, spec.URL),
		Query:   template.RenderMap(ctx, spec.Query),
		Headers: template.RenderMap(ctx, spec.Headers),
		Body:    template.Render(ctx, spec.Body),
	}
	if req.Method == "" {
		req.Method = http.MethodPost
	}
	if spec.Body == nil && len(spec.Query) == 0 && fallbackBody != nil {
		rendered := template.RenderMap(ctx, fallbackBody)
		if req.Method == http.MethodGet {
			req.Query = rendered
		} else {
			body := make(map[string]any, len(rendered))
			for k, v := range rendered {
				body[k] = v
			}
			req.Body = body
		}
	}
	return req
}

type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	tracer     trace.Tracer
	log        *logger.Logger
}

func New(cfg Config, baseLog *logger.Logger) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "pin-router/1.0"
	}
	return &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(tr)},
		timeout:    timeout,
		userAgent:  ua,
		tracer:     otel.Tracer("github.com/Anil1013/mob13r-platform-sub000/internal/pin/advclient"),
		log:        baseLog.With("client", "AdvertiserClient"),
	}
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, baseLog *logger.Logger) *Client {
	c := New(cfg, baseLog)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// Do performs one advertiser call bounded by the client timeout. Network
// errors, timeouts and 5xx responses return an error. Any other status is an
// advertiser answer: its body is decoded as JSON, and non-JSON text is wrapped
// as {"response": text}.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	ctx, span := c.tracer.Start(ctx, "advertiser.call", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("http.request.method", httpReq.Method),
		attribute.String("server.address", httpReq.URL.Host),
	)

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	httpReq = httpReq.WithContext(ctx2)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("advertiser %s %s: %w", httpReq.Method, httpReq.URL.Host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("read advertiser body: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, "upstream 5xx")
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	if resp.StatusCode >= 400 {
		c.log.Debug("advertiser returned client error", "status", resp.StatusCode, "host", httpReq.URL.Host)
	}
	return decodeBody(raw), nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, fmt.Errorf("parse advertiser url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("advertiser url must be absolute")
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	contentType := headerValue(req.Headers, "Content-Type")
	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead && req.Body != nil {
		encoded, ct, err := encodeBody(req.Body, contentType)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && body != nil {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func encodeBody(v any, contentType string) ([]byte, string, error) {
	if s, ok := v.(string); ok {
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		return []byte(s), contentType, nil
	}
	if strings.Contains(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		form := url.Values{}
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				form.Set(k, fmt.Sprint(val))
			}
		}
		return []byte(form.Encode()), contentType, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode advertiser body: %w", err)
	}
	if contentType == "" {
		contentType = "application/json"
	}
	return b, contentType, nil
}

func decodeBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	var out any
	if len(trimmed) > 0 && json.Unmarshal(trimmed, &out) == nil && out != nil {
		return out
	}
	return map[string]any{"response": string(trimmed)}
}

func headerValue(h map[string]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
