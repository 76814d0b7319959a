package interceptor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kubecall/kubecall/internal/logging"
)

// Request is the outbound request description flowing through the chain.
// Stages before the transport may rewrite it; stages after it must not.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Resolved action identity and the path template it was bound to,
	// carried for error reporting and instrumentation.
	Kind    string
	Action  string
	Version string
	Path    string

	// Params are the caller-supplied request parameters, echoed back in
	// request errors.
	Params map[string]any
}

// Response is the transport's answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Exchange is the in-flight call: a request, and once the transport stage
// has run, the response.
type Exchange struct {
	Request  *Request
	Response *Response
}

// Interceptor is one stage of the chain. Stages share a single capability:
// inspect or rewrite the exchange, or fail it. A stage before the transport
// sees Exchange.Response == nil; a stage after it sees the filled response.
type Interceptor interface {
	Process(ctx context.Context, exch *Exchange) error
}

// Func adapts a function to the Interceptor interface.
type Func func(ctx context.Context, exch *Exchange) error

func (f Func) Process(ctx context.Context, exch *Exchange) error {
	return f(ctx, exch)
}

// Chain executes its stages by ordered iteration; any stage error
// short-circuits the run. There is no retry, backpressure or timeout logic
// here.
type Chain struct {
	stages  []Interceptor
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// ChainOption configures optional chain instrumentation.
type ChainOption func(*Chain)

// WithMetrics records per-invocation metrics on the chain.
func WithMetrics(m *Metrics) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

// WithTracer wraps every invocation in a span.
func WithTracer(t trace.Tracer) ChainOption {
	return func(c *Chain) { c.tracer = t }
}

// WithLogger sets the chain's logger.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// NewChain builds a chain over the given ordered stages.
func NewChain(stages []Interceptor, opts ...ChainOption) *Chain {
	c := &Chain{stages: stages, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the request through every stage in order and returns the
// response the transport stage produced.
func (c *Chain) Execute(ctx context.Context, req *Request) (*Response, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "kubecall.request", trace.WithAttributes(
			attribute.String("kubecall.kind", req.Kind),
			attribute.String("kubecall.action", req.Action),
			attribute.String("kubecall.version", req.Version),
		))
		defer span.End()
	}

	start := time.Now()
	exch := &Exchange{Request: req}
	for _, stage := range c.stages {
		if err := stage.Process(ctx, exch); err != nil {
			c.finish(ctx, exch, start, err)
			return nil, err
		}
	}
	if exch.Response == nil {
		err := fmt.Errorf("interceptor chain finished without a transport stage")
		c.finish(ctx, exch, start, err)
		return nil, err
	}
	c.finish(ctx, exch, start, nil)
	return exch.Response, nil
}

func (c *Chain) finish(ctx context.Context, exch *Exchange, start time.Time, err error) {
	status := 0
	if exch.Response != nil {
		status = exch.Response.StatusCode
	}
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.observe(exch.Request, status, duration)
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	if err != nil {
		c.logger.Debug("request failed",
			logging.Kind(exch.Request.Kind),
			logging.Action(exch.Request.Action),
			logging.Duration(duration),
			logging.SanitizedErr(err))
		return
	}
	c.logger.Debug("request completed",
		logging.Kind(exch.Request.Kind),
		logging.Action(exch.Request.Action),
		logging.Status(status),
		logging.Duration(duration))
}
