// Package api is the HTTP transport shared by the catalog, receipt and
// reports packages. It owns request construction, bearer authentication,
// tracing and the decoding of the {success, ...} response envelope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 10 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client // Defaults to a traced client with Timeout
	Timeout    time.Duration
	UserAgent  string
	Logger     core.Logger
}

// Client issues GET requests against the POS API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	logger     core.Logger
	metrics    *telemetry.APIMetrics
	tracer     trace.Tracer
}

// NewClient validates the base URL and builds a client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q: %w", opts.BaseURL, core.ErrInvalidConfiguration)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = telemetry.NewTracedHTTPClient(nil, opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
		logger:     logger,
		metrics:    telemetry.NewAPIMetrics(),
		tracer:     otel.Tracer(telemetry.InstrumentationName),
	}, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one GET call.
type Request struct {
	Op    string     // Operation name used in spans, logs and errors
	Path  string     // Path relative to the base URL
	Query url.Values // Optional query parameters
	Token string     // Bearer token; empty for public endpoints
}

// Get performs req and decodes the response into out.
// The envelope must carry success=true; otherwise an *Error of kind
// KindUnsuccessful is returned and out is left untouched.
func (c *Client) Get(ctx context.Context, req Request, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, req.Op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pos.api.path", req.Path),
			attribute.Bool("pos.api.authenticated", req.Token != ""),
		),
	)
	defer span.End()

	start := time.Now()
	err := c.do(ctx, req, out)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Warn("POS API request failed", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"operation":   req.Op,
			"path":        req.Path,
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		}))
	} else {
		span.SetStatus(codes.Ok, "")
		c.logger.Debug("POS API request succeeded", telemetry.EnrichLogFields(ctx, map[string]interface{}{
			"operation":   req.Op,
			"path":        req.Path,
			"duration_ms": elapsed.Milliseconds(),
		}))
	}
	c.metrics.Record(ctx, req.Op, outcome, elapsed)
	return err
}

func (c *Client) do(ctx context.Context, req Request, out interface{}) error {
	target := c.resolve(req.Path, req.Query)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return newError(req.Op, KindTransport, 0, "", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	telemetry.InjectCorrelationHeaders(ctx, httpReq.Header)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return newError(req.Op, KindTransport, 0, "", err)
	}
	defer resp.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return newError(req.Op, KindTransport, resp.StatusCode, "", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return newError(req.Op, KindUnauthorized, resp.StatusCode, envelopeMessage(body), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return newError(req.Op, KindTransport, resp.StatusCode, envelopeMessage(body), nil)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return newError(req.Op, KindMalformed, resp.StatusCode, "", err)
	}
	if !env.Success {
		return newError(req.Op, KindUnsuccessful, resp.StatusCode, env.Message, nil)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return newError(req.Op, KindMalformed, resp.StatusCode, "", err)
		}
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// envelopeMessage extracts a server message from an error body, if any.
func envelopeMessage(body []byte) string {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// IsCanceled reports whether err stems from the caller canceling ctx.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
