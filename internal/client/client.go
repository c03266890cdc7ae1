// Package client fetches payloads from the backend API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrBackendUnavailable is returned when the backend answers with a non-2xx status.
var ErrBackendUnavailable = errors.New(constants.ErrBackendConnection)

// Message is the decoded /api/message payload. Absent fields are empty.
type Message struct {
	Message        string
	Environment    string
	RuntimeVersion string
}

type wireMessage struct {
	Message string    `json:"message"`
	Data    *wireData `json:"data"`
}

type wireData struct {
	Environment    string `json:"environment"`
	RuntimeVersion string `json:"runtime_version"`
	NodeVersion    string `json:"node_version"`
}

// StatusError carries the status of a non-2xx response. It matches
// ErrBackendUnavailable under errors.Is.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return ErrBackendUnavailable.Error()
}

func (e *StatusError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// Client talks to one backend base URL. It never retries.
type Client struct {
	baseURL  string
	http     *req.Client
	contract *apispec.Contract
	metrics  *observability.Metrics
	tracer   oteltrace.Tracer
	logger   *zap.Logger
}

type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithContract validates every response body against the contract before decoding.
func WithContract(contract *apispec.Contract) Option {
	return func(c *Client) { c.contract = contract }
}

// WithMetrics counts fetch outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider creates a client span per fetch and propagates its context.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer("github.com/leslieo2/devstack/internal/client")
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: req.C().
			SetLogger(nil).
			SetTimeout(constants.FrontendRequestTimeout).
			SetJsonMarshal(json.Marshal).
			SetJsonUnmarshal(json.Unmarshal).
			SetCommonHeader(constants.HeaderAccept, constants.ContentTypeJSON),
		tracer: otel.GetTracerProvider().Tracer("github.com/leslieo2/devstack/internal/client"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchMessage issues exactly one GET to /api/message. Cancelling ctx aborts
// the request and the returned error wraps ctx.Err().
func (c *Client) FetchMessage(ctx context.Context) (Message, error) {
	target := c.baseURL + constants.PathMessage

	ctx, span := c.tracer.Start(ctx, "GET "+constants.PathMessage,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String("url.full", target)),
	)
	defer span.End()

	msg, outcome, err := c.fetchMessage(ctx, target)
	if c.metrics != nil {
		c.metrics.RecordFetch(outcome)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("Backend fetch failed",
			zap.String("url", target),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return Message{}, err
	}

	c.logger.Debug("Backend fetch succeeded", zap.String("url", target))
	return msg, nil
}

func (c *Client) fetchMessage(ctx context.Context, target string) (Message, string, error) {
	r := c.http.R().SetContext(ctx)

	carrier := propagation.HeaderCarrier(http.Header{})
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, k := range carrier.Keys() {
		r.SetHeader(k, carrier.Get(k))
	}

	resp, err := r.Get(target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Message{}, observability.FetchOutcomeCancelled, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		return Message{}, observability.FetchOutcomeTransport, fmt.Errorf("request to %s failed: %w", target, err)
	}

	if !resp.IsSuccessState() {
		return Message{}, observability.FetchOutcomeUnavailable, &StatusError{StatusCode: resp.StatusCode}
	}

	body := resp.Bytes()
	if c.contract != nil {
		if err := c.contract.ValidateResponse(http.MethodGet, constants.PathMessage, resp.StatusCode, body); err != nil {
			return Message{}, observability.FetchOutcomeInvalid, fmt.Errorf("response violates contract: %w", err)
		}
	}

	msg, err := DecodeMessage(body)
	if err != nil {
		return Message{}, observability.FetchOutcomeInvalid, err
	}
	return msg, observability.FetchOutcomeSuccess, nil
}

// DecodeMessage decodes a message payload. The body must be a JSON object;
// runtime_version wins over the legacy node_version key.
func DecodeMessage(body []byte) (Message, error) {
	if json.Get(body).ValueType() != jsoniter.ObjectValue {
		return Message{}, errors.New("invalid response: expected a JSON object")
	}

	var w wireMessage
	if err := json.Unmarshal(body, &w); err != nil {
		return Message{}, fmt.Errorf("invalid response: %w", err)
	}

	msg := Message{Message: w.Message}
	if w.Data != nil {
		msg.Environment = w.Data.Environment
		msg.RuntimeVersion = w.Data.RuntimeVersion
		if msg.RuntimeVersion == "" {
			msg.RuntimeVersion = w.Data.NodeVersion
		}
	}
	return msg, nil
}
