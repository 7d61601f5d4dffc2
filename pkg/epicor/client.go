package epicor

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes bounds how much of a downstream body is read.
const maxResponseBytes = 64 << 20

// ErrResponseTooLarge is the cause of the *ParseError returned when a
// downstream body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ClientConfig contains the upstream HTTP transport settings.
type ClientConfig struct {
	// Timeout bounds a single call including reading the body.
	Timeout time.Duration

	// MaxIdleConns is the size of the connection pool.
	MaxIdleConns int

	// IdleConnTimeout is how long idle connections are kept.
	IdleConnTimeout time.Duration

	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool
}

// ClientConfigFromConfig builds a ClientConfig from the epicor section.
func ClientConfigFromConfig(cfg config.EpicorConfig) ClientConfig {
	return ClientConfig{
		Timeout:            cfg.Timeout,
		MaxIdleConns:       cfg.MaxIdleConns,
		IdleConnTimeout:    cfg.IdleConnTimeout,
		InsecureSkipVerify: cfg.AcceptAnyCertificate,
	}
}

// Health is a snapshot of upstream reachability as seen by the Client.
type Health struct {
	// Reachable is false after three consecutive transport failures
	// and true again after the next call that gets any HTTP response.
	Reachable bool

	ConsecutiveFailures int
	LastError           error
	LastResponse        time.Time
	TotalRequests       int64
	FailedRequests      int64
}

// Client sends authenticated requests to the ERP. It holds no session
// state; every Request carries its own headers.
type Client struct {
	cfg     ClientConfig
	client  *http.Client
	logger  *slog.Logger
	maxBody int64

	healthMu sync.RWMutex
	health   Health
}

// NewClient creates a Client with a pooled transport.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	if cfg.InsecureSkipVerify {
		// #nosec G402 - enabled only by epicor.accept_any_certificate
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return NewClientWithHTTP(cfg, &http.Client{Transport: transport, Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP creates a Client around an existing http.Client.
func NewClientWithHTTP(cfg ClientConfig, hc *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		client:  hc,
		logger:  logger.With("component", "epicor.client"),
		maxBody: maxResponseBytes,
		health:  Health{Reachable: true, LastResponse: time.Now()},
	}
}

// Send performs req and returns the status and full body. Any HTTP
// status is a successful Send; failures to obtain a response are
// returned as *TransportError and bodies over the size limit as
// *ParseError wrapping ErrResponseTooLarge.
func (c *Client) Send(ctx context.Context, req *Request) (resp *Response, err error) {
	ctx, span := otel.Tracer(tracing.InstrumentationName).Start(ctx, "epicor."+req.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", req.Method)),
	)
	defer func() {
		if resp != nil {
			tracing.SetHTTPStatus(span, resp.StatusCode)
		}
		if err != nil {
			tracing.SetStatus(span, err)
		}
		span.End()
	}()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &TransportError{Op: req.Operation, Method: req.Method, URL: req.URL, Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	tracing.Inject(ctx, httpReq.Header)

	c.logger.DebugContext(ctx, "sending request to epicor",
		"operation", req.Operation,
		"method", req.Method,
		"url", req.URL,
	)

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		terr := &TransportError{Op: req.Operation, Method: req.Method, URL: req.URL, Cause: err}
		c.recordFailure(terr)
		c.logger.WarnContext(ctx, "epicor request failed",
			"operation", req.Operation,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, terr
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
	if err != nil {
		terr := &TransportError{Op: req.Operation, Method: req.Method, URL: req.URL, Cause: fmt.Errorf("failed to read response: %w", err)}
		c.recordFailure(terr)
		return nil, terr
	}

	c.recordResponse()
	if int64(len(data)) > c.maxBody {
		c.logger.WarnContext(ctx, "epicor response too large",
			"operation", req.Operation,
			"status", httpResp.StatusCode,
			"limit", c.maxBody,
		)
		return nil, &ParseError{Op: req.Operation, Cause: ErrResponseTooLarge}
	}
	c.logger.DebugContext(ctx, "epicor response received",
		"operation", req.Operation,
		"status", httpResp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

// Health returns the current reachability snapshot.
func (c *Client) Health() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

func (c *Client) recordResponse() {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	c.health.Reachable = true
	c.health.ConsecutiveFailures = 0
	c.health.LastError = nil
	c.health.LastResponse = time.Now()
}

func (c *Client) recordFailure(err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	c.health.FailedRequests++
	c.health.ConsecutiveFailures++
	c.health.LastError = err

	if c.health.ConsecutiveFailures >= 3 && c.health.Reachable {
		c.health.Reachable = false
		c.logger.Warn("epicor marked unreachable",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}
