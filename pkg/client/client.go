package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/helmcode/triage/pkg/model"
)

// StatusError is a non-2xx response. Its message is the server's raw body
// when there is one.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("Server error: %d", e.StatusCode)
}

// Client talks to the triage backend.
type Client struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithMeter records one "triage.client.requests" increment per round trip.
func WithMeter(m metric.Meter) Option {
	return func(c *Client) {
		counter, err := m.Int64Counter("triage.client.requests",
			metric.WithDescription("Backend round trips by endpoint and outcome"))
		if err == nil {
			c.requests = counter
		}
	}
}

// New creates a client for baseURL. Requests have no timeout: a pending
// request runs until the server answers or the context is cancelled.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		logger:  zap.NewNop(),
		tracer:  tracenoop.NewTracerProvider().Tracer("triage/client"),
	}
	c.requests, _ = metricnoop.NewMeterProvider().Meter("triage/client").Int64Counter("triage.client.requests")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeSymptoms posts to /analyze_symptoms and returns the raw body.
func (c *Client) AnalyzeSymptoms(ctx context.Context, req model.AnalyzeRequest) ([]byte, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []model.FollowupAnswer{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/analyze_symptoms", nil, body,
		attribute.Bool("triage.followup", req.IsFollowup),
		attribute.Int("triage.answers", len(req.ConversationHistory)),
	)
}

// History fetches the raw /history body with at most limit entries.
func (c *Client) History(ctx context.Context, limit int) ([]byte, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.do(ctx, http.MethodGet, "/history", query, nil, attribute.Int("triage.limit", limit))
}

// ClearHistory deletes every stored consultation on the server.
func (c *Client) ClearHistory(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/clear-history", nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, attrs ...attribute.KeyValue) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	started := time.Now()
	respBytes, status, err := c.send(ctx, method, path, query, body)
	elapsed := time.Since(started)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		c.logger.Debug("backend request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int("bytes", len(respBytes)),
			zap.Duration("elapsed", elapsed),
		)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", path),
		attribute.String("outcome", outcome),
	))

	return respBytes, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(respBytes)}
	}
	return respBytes, resp.StatusCode, nil
}
